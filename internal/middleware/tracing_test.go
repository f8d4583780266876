package middleware

import (
	"context"
	"net/http/httptest"
	"regexp"
	"testing"

	"snipstream/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingMiddleware(t *testing.T) {
	// Ratio 0 keeps spans unexported while still minting real trace IDs.
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "snipstream-test",
		Environment:  "test",
		Enabled:      true,
		Exporter:     "stdout",
		SamplerRatio: 0,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	app := fiber.New()
	app.Use(TracingMiddleware())

	var sawSpan bool
	app.Get("/ping", func(c *fiber.Ctx) error {
		sawSpan = trace.SpanFromContext(c.UserContext()).SpanContext().IsValid()
		return c.SendString("pong")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, sawSpan)

	traceID := resp.Header.Get("X-Trace-ID")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), traceID)
	assert.NotEqual(t, "00000000000000000000000000000000", traceID)
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName: "snipstream-test",
		Enabled:     false,
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
