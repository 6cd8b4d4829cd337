package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/middleware"
	"github.com/iliyamo/staybook/internal/service"
)

// BookingHandler serves reservation endpoints for logged-in users.
type BookingHandler struct {
	Svc *service.Service
	Log *zap.Logger
}

func NewBookingHandler(svc *service.Service, log *zap.Logger) *BookingHandler {
	return &BookingHandler{Svc: svc, Log: log}
}

// Create books the listing in the path for the dates in the body.
func (h *BookingHandler) Create(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, h.Log, service.OpBook, err)
	}
	var in service.BookingInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Dates must be in YYYY-MM-DD format")
	}
	in.ListingID = id

	r, err := h.Svc.Book(c.Request().Context(), middleware.CurrentUser(c), in)
	if err != nil {
		return fail(c, h.Log, service.OpBook, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// Mine lists the caller's reservations with their listings.
func (h *BookingHandler) Mine(c echo.Context) error {
	out, err := h.Svc.ListReservations(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		return fail(c, h.Log, service.OpListBookings, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, h.Log, service.OpCancelBooking, err)
	}
	if err := h.Svc.Cancel(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return fail(c, h.Log, service.OpCancelBooking, err)
	}
	return c.NoContent(http.StatusNoContent)
}
