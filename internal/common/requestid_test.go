package common

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-report/internal/logger"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(logger.RequestIDFromContext(c.UserContext()))
	})
	return app
}

func TestRequestID_Generated(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	id := resp.Header.Get(RequestIDHeader)
	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
}

func TestRequestID_Propagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")

	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", string(body))
}
