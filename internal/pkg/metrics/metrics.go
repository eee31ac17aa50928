// Package metrics owns the Prometheus registry exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aidmap",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aidmap",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aidmap",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aidmap",
			Subsystem: "payments",
			Name:      "attempts_total",
			Help:      "Funding attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	paymentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aidmap",
			Subsystem: "payments",
			Name:      "charge_duration_seconds",
			Help:      "Duration of payment provider charges.",
			Buckets:   prometheus.LinearBuckets(0.5, 0.5, 8),
		},
		[]string{"provider"},
	)

	realtimeSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aidmap",
			Subsystem: "realtime",
			Name:      "subscribers",
			Help:      "Current number of realtime subscribers.",
		},
	)

	realtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aidmap",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Realtime events by delivery result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		payments,
		paymentDuration,
		realtimeSubscribers,
		realtimeEvents,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per matched route
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// RecordPayment counts a funding attempt. outcome is e.g. "success", "declined", "error".
func RecordPayment(provider, outcome string, elapsed time.Duration) {
	payments.WithLabelValues(provider, outcome).Inc()
	if elapsed > 0 {
		paymentDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

// SubscriberAdded and SubscriberRemoved track live realtime subscriptions
func SubscriberAdded() { realtimeSubscribers.Inc() }
func SubscriberRemoved() { realtimeSubscribers.Dec() }

// RecordEvent counts a realtime delivery. result is "delivered" or "dropped".
func RecordEvent(result string) {
	realtimeEvents.WithLabelValues(result).Inc()
}
