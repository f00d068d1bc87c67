package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Ledger writes. op is create|withdraw|delete, result is ok or the error class.
	Interactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_interactions_total",
			Help: "Interaction ledger writes by kind, operation and result",
		},
		[]string{"kind", "op", "result"},
	)

	// Circuit breakers: 0 = closed, 1 = half-open, 2 = open
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "discovery_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// NATS
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_events_published_total",
			Help: "Domain events published by subject and result",
		},
		[]string{"subject", "result"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_events_consumed_total",
			Help: "Inbound events handled by subject and result",
		},
		[]string{"subject", "result"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordInteraction(kind, op, result string) {
	Interactions.WithLabelValues(kind, op, result).Inc()
}

func RecordEventPublished(subject string, err error) {
	EventsPublished.WithLabelValues(subject, resultLabel(err)).Inc()
}

func RecordEventConsumed(subject string, err error) {
	EventsConsumed.WithLabelValues(subject, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
