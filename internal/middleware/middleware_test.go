package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDPropagatesIncomingHeader(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/ping", func(c *fiber.Ctx) error {
		require.Equal(t, "abc-123", GetCorrelationID(c))
		require.Equal(t, "abc-123", CorrelationIDFromContext(c.UserContext()))
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "abc-123", resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDGeneratesWhenMissing(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDReplacesUnusableHeader(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, incoming := range []string{"has space", strings.Repeat("x", 200)} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Correlation-ID", incoming)
		resp, err := app.Test(req)
		require.NoError(t, err)
		got := resp.Header.Get("X-Correlation-ID")
		require.NotEmpty(t, got)
		require.NotEqual(t, incoming, got)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "req-42", resp.Header.Get("X-Correlation-ID"))
}

func TestContextWithCorrelationIgnoresBlankIDs(t *testing.T) {
	ctx := ContextWithCorrelation(context.Background(), "  ")
	require.Empty(t, CorrelationIDFromContext(ctx))

	ctx = ContextWithCorrelation(ctx, "reconcile-1")
	require.Equal(t, "reconcile-1", CorrelationIDFromContext(ctx))
}

func TestRequestTimeoutSetsDeadline(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Use(RequestTimeout(2 * time.Second))
	app.Get("/ping", func(c *fiber.Ctx) error {
		deadline, ok := c.UserContext().Deadline()
		require.True(t, ok)
		require.WithinDuration(t, time.Now().Add(2*time.Second), deadline, time.Second)
		require.NotEmpty(t, CorrelationIDFromContext(c.UserContext()))
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestRateLimitRejectsAfterBudget(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(5))
		return c.Next()
	})
	app.Use(RateLimit("learning", 1, time.Minute))
	app.Post("/complete", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/complete", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/complete", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
