package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditflow_transformer_requests_total",
			Help: "Total number of transform requests by transformer and outcome",
		},
		[]string{"transformer", "status"},
	)

	TransformDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auditflow_transformer_duration_seconds",
			Help:    "Duration of transform invocations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
