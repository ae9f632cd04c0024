package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountsRequestsAndErrors(t *testing.T) {
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(metrics.Handler())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).SendString("boom")
	})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))
		assert.NotEmpty(t, resp.Header.Get("X-Request-Count"))
	}
	_, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(4), snap["request_count"])
	assert.Equal(t, int64(1), snap["error_count"])
	assert.Equal(t, 0.25, snap["error_rate"])
}

func TestMetricsSnapshotEmpty(t *testing.T) {
	snap := NewMetrics().Snapshot()
	assert.Equal(t, int64(0), snap["request_count"])
	assert.Equal(t, 0.0, snap["error_rate"])
	assert.Equal(t, 0.0, snap["average_response_time"])
}
