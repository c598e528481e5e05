package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/commands"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/utils"
	"github.com/labstack/echo/v4"
)

// httpError maps the bridge errors to HTTP errors. Not ready errors are retryable so they become a 503.
func httpError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, bridgeerrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, commands.ErrUnknownCommand), errors.Is(err, bridgeerrors.ErrEntityNotFound):
		status = http.StatusNotFound
	case errors.Is(err, bridgeerrors.ErrNotReady):
		status = http.StatusServiceUnavailable
	case errors.Is(err, bridgeerrors.ErrOperationFailed):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		slog.Error(
			"SERVER",
			"message",
			"request failed",
			"error",
			err,
			"requestID",
			utils.GetRequestID(c),
			"traceID",
			utils.GetTraceID(c),
		)
	}
	return echo.NewHTTPError(status, err.Error())
}
