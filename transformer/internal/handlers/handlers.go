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
	"github.com/Labs64/labs64.io-auditflow/transformer/internal/metrics"
)

// Handler dispatches transform requests to registered transformer plugins.
type Handler struct {
	registry *plugin.Registry[plugin.Transformer]
	logger   *logging.Logger
}

func New(registry *plugin.Registry[plugin.Transformer], logger *logging.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// Transform handles POST /transform/{transformerId}. The request body is
// the raw audit event envelope; the response is the bare transformed
// payload.
func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("transformerId")
	ctx := r.Context()

	var event envelope.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	impl, err := h.registry.Resolve(id)
	if err != nil {
		h.writeResolveError(w, r, "transformer", id, err)
		return
	}

	start := time.Now()
	transformed, err := invoke(func() (envelope.Event, error) {
		return impl.Transform(ctx, event.Clone())
	})
	metrics.TransformDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TransformsTotal.WithLabelValues(id, "error").Inc()
		h.logger.ErrorContext(ctx, "transform failed", logging.Transformer(id), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError,
			fmt.Sprintf("An unexpected error occurred while processing event through transformer '%s': %v", id, err))
		return
	}

	metrics.TransformsTotal.WithLabelValues(id, "success").Inc()
	h.logger.InfoContext(ctx, "event transformed",
		logging.Transformer(id), logging.EventType(event.String("eventType", "unknown")))
	httputil.WriteJSON(w, http.StatusOK, transformed)
}

// List handles GET /transformers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	descriptors := h.registry.List()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"available_transformers": descriptors,
		"count":                  len(descriptors),
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

func (h *Handler) writeResolveError(w http.ResponseWriter, r *http.Request, kind, id string, err error) {
	ctx := r.Context()

	var notFound *plugin.NotFoundError
	var loadErr *plugin.LoadError
	var contractErr *plugin.ContractError
	switch {
	case errors.As(err, &notFound):
		metrics.TransformsTotal.WithLabelValues(id, "not_found").Inc()
		h.logger.WarnContext(ctx, "unknown transformer", logging.Transformer(id))
		httputil.WriteError(w, http.StatusNotFound,
			fmt.Sprintf("Transformation module not found for ID: '%s'. Searched: %v", id, notFound.Searched))
	case errors.As(err, &contractErr):
		metrics.TransformsTotal.WithLabelValues(id, "error").Inc()
		h.logger.ErrorContext(ctx, "transformer missing entry function", logging.Transformer(id), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError,
			fmt.Sprintf("Transformation function 'transform' not found in module for ID: '%s' (%s)", id, contractErr.Path))
	case errors.As(err, &loadErr):
		metrics.TransformsTotal.WithLabelValues(id, "error").Inc()
		h.logger.ErrorContext(ctx, "transformer failed to load", logging.Transformer(id), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to load transformation for ID '%s': %v", id, loadErr.Err))
	default:
		metrics.TransformsTotal.WithLabelValues(id, "error").Inc()
		h.logger.ErrorContext(ctx, "transformer resolution failed", logging.Transformer(id), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to resolve %s '%s': %v", kind, id, err))
	}
}

// invoke isolates a plugin call: a panic inside the plugin becomes an error
// instead of taking down the dispatch process.
func invoke(call func() (envelope.Event, error)) (result envelope.Event, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("plugin panicked: %v", rec)
		}
	}()
	return call()
}
