package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Metrics collects per-request counters served by GET /metrics.
type Metrics struct {
	mu           sync.Mutex
	requestCount int64
	errorCount   int64
	totalLatency time.Duration
}

// NewMetrics Metrics 생성
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Handler returns the fiber middleware that records every request.
func (m *Metrics) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		m.mu.Lock()
		m.requestCount++
		m.totalLatency += elapsed
		if err != nil || c.Response().StatusCode() >= fiber.StatusInternalServerError {
			m.errorCount++
		}
		count := m.requestCount
		m.mu.Unlock()

		c.Set("X-Process-Time", elapsed.String())
		c.Set("X-Request-Count", strconv.FormatInt(count, 10))

		return err
	}
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() fiber.Map {
	m.mu.Lock()
	defer m.mu.Unlock()

	avg := time.Duration(0)
	errorRate := 0.0
	if m.requestCount > 0 {
		avg = m.totalLatency / time.Duration(m.requestCount)
		errorRate = float64(m.errorCount) / float64(m.requestCount)
	}

	return fiber.Map{
		"request_count":         m.requestCount,
		"error_count":           m.errorCount,
		"average_response_time": avg.Seconds(),
		"error_rate":            errorRate,
	}
}
