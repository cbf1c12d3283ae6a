package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Labs64/labs64.io-auditflow/common/middleware"
	"github.com/Labs64/labs64.io-auditflow/transformer/internal/handlers"
)

// NewRouter constructs a ServeMux with transformer API routes registered.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Dispatch endpoints
	mux.HandleFunc("POST /transform/{transformerId}", h.Transform)
	mux.HandleFunc("GET /transformers", h.List)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
