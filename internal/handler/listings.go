package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/service"
)

// ListingHandler serves the public catalogue.
type ListingHandler struct {
	Svc *service.Service
	Log *zap.Logger
}

func NewListingHandler(svc *service.Service, log *zap.Logger) *ListingHandler {
	return &ListingHandler{Svc: svc, Log: log}
}

// Search returns listings matching ?q=, ?location= and ?maxPrice=, plus the
// catalogue's distinct locations.
func (h *ListingHandler) Search(c echo.Context) error {
	f := service.Filter{
		Query:    strings.TrimSpace(c.QueryParam("q")),
		Location: strings.TrimSpace(c.QueryParam("location")),
	}
	if raw := strings.TrimSpace(c.QueryParam("maxPrice")); raw != "" {
		p, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || p < 0 {
			return badRequest(c, "maxPrice must be a non-negative whole number")
		}
		f.MaxPrice = &p
	}
	res, err := h.Svc.Search(c.Request().Context(), f)
	if err != nil {
		return fail(c, h.Log, service.OpListListings, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ListingHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, h.Log, service.OpGetListing, err)
	}
	l, err := h.Svc.GetListing(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, service.OpGetListing, err)
	}
	return c.JSON(http.StatusOK, l)
}

// Reviews lists a listing's reviews with their authors.
func (h *ListingHandler) Reviews(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, h.Log, service.OpListReviews, err)
	}
	reviews, err := h.Svc.ListReviews(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, service.OpListReviews, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// Quote prices ?startDate=&endDate= without checking availability.
func (h *ListingHandler) Quote(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, h.Log, service.OpQuote, err)
	}
	start, end, ok := dateRange(c)
	if !ok {
		return badRequest(c, "Dates must be in YYYY-MM-DD format")
	}
	q, err := h.Svc.Quote(c.Request().Context(), id, start, end)
	if err != nil {
		return fail(c, h.Log, service.OpQuote, err)
	}
	return c.JSON(http.StatusOK, q)
}

// dateRange reads the optional startDate and endDate query parameters.  A
// missing value stays zero so validation can name it.
func dateRange(c echo.Context) (start, end model.Date, ok bool) {
	parse := func(name string) (model.Date, bool) {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			return model.Date{}, true
		}
		d, err := model.ParseDate(raw)
		return d, err == nil
	}
	var okStart, okEnd bool
	start, okStart = parse("startDate")
	end, okEnd = parse("endDate")
	return start, end, okStart && okEnd
}
