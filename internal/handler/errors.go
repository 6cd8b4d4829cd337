package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/lock"
	"github.com/iliyamo/staybook/internal/service"
	"github.com/iliyamo/staybook/internal/store"
)

// errorBody is the JSON shape of every failed response.  Fields is set for
// validation errors only.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps service and store errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *service.ValidationError
	var serr *store.StatusError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrLoginRequired), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case service.IsRejection(err), errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, lock.ErrNotAcquired):
		return http.StatusServiceUnavailable
	case errors.As(err, &serr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes the user-facing message for err.  Infrastructure failures
// are logged with their detail, which never reaches the client.
func fail(c echo.Context, log *zap.Logger, op service.Op, err error) error {
	code := statusFor(err)
	body := errorBody{Error: service.Message(op, err)}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	if code >= 500 && log != nil {
		log.Error("request failed", zap.String("op", string(op)), zap.Int("status", code), zap.Error(err))
	}
	return c.JSON(code, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: msg})
}

// idParam parses a path id.  Anything that is not a positive integer
// names a record that cannot exist.
func idParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, store.ErrNotFound
	}
	return id, nil
}
