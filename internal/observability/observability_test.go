package observability

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/tickets", "GET", "OPERATION_FAILED")
	m.RecordSearch(false)
	m.RecordSearch(true)
	m.RecordDroppedEvent()

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.Requests["/api/tickets|GET|200"])
	assert.Equal(t, int64(20), s.AvgLatencyMS["/api/tickets|GET|200"])
	assert.Equal(t, int64(1), s.Errors["/api/tickets|GET|OPERATION_FAILED"])
	assert.Equal(t, int64(2), s.Searches)
	assert.Equal(t, int64(1), s.CappedSearches)
	assert.Equal(t, int64(1), s.DroppedEvents)

	var nilMetrics *Metrics
	nilMetrics.RecordSearch(true)
	assert.Zero(t, nilMetrics.Snapshot().Searches)
}

func TestRequestLogger(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/ping/:id", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})

	t.Run("generates an id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping/1", nil))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	})

	t.Run("keeps the caller id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ping/2", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
	})

	assert.Equal(t, int64(2), metrics.Snapshot().Requests["/ping/:id|GET|200"])
}

func TestSetupTracingWithoutEndpoint(t *testing.T) {
	shutdown := SetupTracing(context.Background(), config.TelemetryConfig{}, "test", zap.NewNop())
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
