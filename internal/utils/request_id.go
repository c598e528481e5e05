package utils

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func GetRequestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// NewRequestID generates the X-Request-ID of incoming requests that do not carry one.
func NewRequestID() string {
	return uuid.NewString()
}
