package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/middleware"
	"github.com/iliyamo/staybook/internal/service"
)

// AdminHandler manages the catalogue and answers reviews.  Routes are
// guarded by RequireAdmin; the service checks the flag again.
type AdminHandler struct {
	Svc *service.Service
	Log *zap.Logger
}

func NewAdminHandler(svc *service.Service, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Log: log}
}

type respondReq struct {
	Response string `json:"response"`
}

func (h *AdminHandler) CreateListing(c echo.Context) error {
	var in service.ListingInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	l, err := h.Svc.CreateListing(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return fail(c, h.Log, service.OpSaveListing, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *AdminHandler) UpdateListing(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, h.Log, service.OpSaveListing, err)
	}
	var in service.ListingInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	l, err := h.Svc.UpdateListing(c.Request().Context(), middleware.CurrentUser(c), id, in)
	if err != nil {
		return fail(c, h.Log, service.OpSaveListing, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *AdminHandler) DeleteListing(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, h.Log, service.OpDeleteListing, err)
	}
	if err := h.Svc.DeleteListing(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return fail(c, h.Log, service.OpDeleteListing, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Respond attaches the owner's reply to a review.
func (h *AdminHandler) Respond(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, h.Log, service.OpRespondToReview, err)
	}
	var req respondReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	rv, err := h.Svc.RespondToReview(c.Request().Context(), middleware.CurrentUser(c), id, req.Response)
	if err != nil {
		return fail(c, h.Log, service.OpRespondToReview, err)
	}
	return c.JSON(http.StatusOK, rv)
}
