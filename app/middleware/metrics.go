package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API requests partitioned by method, route, and status code
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_http_requests_total",
			Help: "Total number of CRM API requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned the same way
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_http_request_duration_seconds",
			Help:    "CRM API request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	apiInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crm_http_inflight_requests",
			Help: "Number of CRM API requests currently being served",
		},
	)
)

// Metrics returns a Fiber v3 middleware that records request metrics.
// The matched route template is used as the label where available, so
// /api/v1/leads/:id does not fan out into one series per lead.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		apiInFlight.Inc()
		defer apiInFlight.Dec()

		err := c.Next()

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		labels := prometheus.Labels{
			"method": c.Method(),
			"route":  route,
			"status": strconv.Itoa(c.Response().StatusCode()),
		}
		apiRequestsTotal.With(labels).Inc()
		apiRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}
