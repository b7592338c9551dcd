package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/service"
)

// requestTimeout bounds the DB work behind a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statuses maps service sentinels to HTTP codes, checked in order.
var statuses = []struct {
	err    error
	status int
}{
	{service.ErrConflict, http.StatusConflict},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrBadRequest, http.StatusBadRequest},
	{service.ErrNotAcceptable, http.StatusNotAcceptable},
}

// fail writes the error body for err.  Service sentinels keep their message
// (minus the sentinel prefix); anything else is logged and hidden behind a
// generic 500.
func fail(c echo.Context, err error) error {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			msg := strings.TrimPrefix(err.Error(), s.err.Error()+": ")
			return c.JSON(s.status, echo.Map{"error": msg})
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		middleware.Logger(c).WithError(err).Warn("request timed out")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request timed out"})
	}
	middleware.Logger(c).WithError(err).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}
