package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/middleware"
	"github.com/iliyamo/staybook/internal/service"
)

// ReviewHandler accepts verified reviews from past guests.
type ReviewHandler struct {
	Svc *service.Service
	Log *zap.Logger
}

func NewReviewHandler(svc *service.Service, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{Svc: svc, Log: log}
}

func (h *ReviewHandler) Submit(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, h.Log, service.OpSubmitReview, err)
	}
	var in service.ReviewInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	in.ListingID = id

	rv, err := h.Svc.SubmitReview(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return fail(c, h.Log, service.OpSubmitReview, err)
	}
	return c.JSON(http.StatusCreated, rv)
}
