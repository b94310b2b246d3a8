package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/minishop/internal/service"
)

// fail maps a service error to its HTTP status, logs it under event and
// returns the echo error with msg as the client-facing text. Unknown errors
// become 500 with a generic message.
func fail(l *slog.Logger, event string, err error, msg string) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		code = http.StatusConflict
	}

	if code == http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, "internal error")
	}
	l.Warn(event, "status", code, "reason", err.Error())
	if msg == "" {
		msg = err.Error()
	}
	return echo.NewHTTPError(code, msg)
}

// validationMsg strips the sentinel suffix from a service error so the
// client sees only the field-level reason.
func validationMsg(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{service.ErrValidation, service.ErrConflict} {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	return msg
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}
