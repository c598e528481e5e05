package utils

import (
	"context"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

func GetTraceID(c echo.Context) string {
	if span := sentryecho.GetSpanFromContext(c); span != nil {
		return span.TraceID.String()
	}
	return ""
}

// ContextWithHub returns the request context carrying the sentry hub of the request, if there is one.
func ContextWithHub(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		return sentry.SetHubOnContext(ctx, hub)
	}
	return ctx
}
