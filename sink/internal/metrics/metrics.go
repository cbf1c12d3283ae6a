// Package metrics defines Prometheus collectors for the sink service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SinksTotal counts dispatch requests per sink and outcome.
	SinksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditflow_sink_requests_total",
			Help: "Total sink dispatch requests by sink identifier and outcome",
		},
		[]string{"sink", "status"},
	)

	// SinkDuration observes end-to-end sink processing latency.
	SinkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auditflow_sink_duration_seconds",
			Help:    "Sink processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DeliveryAttempts counts outbound delivery attempts per destination.
	DeliveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditflow_sink_delivery_attempts_total",
			Help: "Outbound delivery attempts by destination",
		},
		[]string{"destination"},
	)

	// RateLimitHits counts requests rejected by the rate limiter.
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditflow_sink_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter, by client key",
		},
		[]string{"key"},
	)
)
