package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/texnomart/internal/service"
)

func notFound() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, echo.Map{"detail": "Not found."})
}

// serviceError logs err under event and turns it into the matching HTTP error.
func serviceError(l *slog.Logger, event string, err error) error {
	var v *service.ValidationError
	switch {
	case errors.As(err, &v):
		l.Warn(event, "status", 400, "reason", "validation failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, v.Fields)
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", "not found", "error", err)
		return notFound()
	case errors.Is(err, service.ErrSearchDisabled):
		l.Warn(event, "status", 503, "reason", "search disabled")
		return echo.NewHTTPError(http.StatusServiceUnavailable, echo.Map{"detail": "Search is not available."})
	default:
		l.Error(event, "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, echo.Map{"detail": "A server error occurred."})
	}
}

// pathID parses the :id param. Anything but a positive integer is reported as a missing resource.
func pathID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func invalidBody(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", 400, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"detail": "JSON parse error."})
}
