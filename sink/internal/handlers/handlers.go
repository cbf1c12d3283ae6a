package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
	"github.com/Labs64/labs64.io-auditflow/common/httputil"
	"github.com/Labs64/labs64.io-auditflow/common/logging"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
	"github.com/Labs64/labs64.io-auditflow/sink/internal/metrics"
	"github.com/Labs64/labs64.io-auditflow/sink/internal/ratelimit"
)

// Handler dispatches sink requests to registered sink plugins.
type Handler struct {
	registry    *plugin.Registry[plugin.Sink]
	rateLimiter ratelimit.RateLimiter
	logger      *logging.Logger
}

func New(registry *plugin.Registry[plugin.Sink], rateLimiter ratelimit.RateLimiter, logger *logging.Logger) *Handler {
	if rateLimiter == nil {
		rateLimiter = &ratelimit.NoOpRateLimiter{}
	}
	return &Handler{registry: registry, rateLimiter: rateLimiter, logger: logger}
}

// sinkRequest is the dispatch body: the transformed event plus optional
// per-request sink configuration.
type sinkRequest struct {
	EventData  envelope.Event    `json:"event_data"`
	Properties plugin.Properties `json:"properties"`
}

// Process handles POST /sink/{sinkId}.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sinkId")
	ctx := r.Context()

	allowed, err := h.rateLimiter.Allow(ctx, clientKey(r))
	if err != nil {
		h.logger.WarnContext(ctx, "rate limiter unavailable, allowing request", logging.Error(err))
	} else if !allowed {
		metrics.SinksTotal.WithLabelValues(id, "rate_limited").Inc()
		httputil.WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	var req sinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	if req.EventData == nil {
		httputil.WriteError(w, http.StatusBadRequest, "missing required field: event_data")
		return
	}
	if req.Properties == nil {
		req.Properties = plugin.Properties{}
	}

	impl, err := h.registry.Resolve(id)
	if err != nil {
		h.writeResolveError(w, r, id, err)
		return
	}

	h.logger.InfoContext(ctx, "processing event through sink",
		logging.Sink(id), logging.EventType(req.EventData.String("eventType", "unknown")))

	start := time.Now()
	result, err := invoke(func() (plugin.Result, error) {
		return impl.Process(ctx, req.EventData.Clone(), req.Properties)
	})
	metrics.SinkDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SinksTotal.WithLabelValues(id, "error").Inc()
		h.logger.ErrorContext(ctx, "sink processing failed", logging.Sink(id), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError,
			fmt.Sprintf("An unexpected error occurred while processing event through sink '%s': %v", id, err))
		return
	}

	metrics.SinksTotal.WithLabelValues(id, "success").Inc()
	var payload any = result
	if len(result) == 0 {
		payload = "Event sent to destination"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"sink":    id,
		"message": fmt.Sprintf("Event processed successfully by sink '%s'", id),
		"result":  payload,
	})
}

// List handles GET /sinks.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	descriptors := h.registry.List()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"available_sinks": descriptors,
		"count":           len(descriptors),
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /readyz.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) writeResolveError(w http.ResponseWriter, r *http.Request, id string, err error) {
	ctx := r.Context()

	var notFound *plugin.NotFoundError
	var loadErr *plugin.LoadError
	var contractErr *plugin.ContractError
	switch {
	case errors.As(err, &notFound):
		metrics.SinksTotal.WithLabelValues(id, "not_found").Inc()
		h.logger.WarnContext(ctx, "unknown sink", logging.Sink(id))
		httputil.WriteError(w, http.StatusNotFound,
			fmt.Sprintf("Sink module not found for ID: '%s'. Searched: %v", id, notFound.Searched))
	case errors.As(err, &contractErr):
		metrics.SinksTotal.WithLabelValues(id, "error").Inc()
		h.logger.ErrorContext(ctx, "sink missing entry function", logging.Sink(id), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError,
			fmt.Sprintf("Process function 'process' not found in sink module '%s' (%s)", id, contractErr.Path))
	case errors.As(err, &loadErr):
		metrics.SinksTotal.WithLabelValues(id, "error").Inc()
		h.logger.ErrorContext(ctx, "sink failed to load", logging.Sink(id), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to load sink module '%s': %v", id, loadErr.Err))
	default:
		metrics.SinksTotal.WithLabelValues(id, "error").Inc()
		h.logger.ErrorContext(ctx, "sink resolution failed", logging.Sink(id), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to resolve sink '%s': %v", id, err))
	}
}

// clientKey identifies the caller for rate limiting purposes.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

// invoke isolates a plugin call: a panic inside the plugin becomes an error
// instead of taking down the dispatch process.
func invoke(call func() (plugin.Result, error)) (result plugin.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("plugin panicked: %v", rec)
		}
	}()
	return call()
}
