package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Labs64/labs64.io-auditflow/common/delivery"
	"github.com/Labs64/labs64.io-auditflow/common/envelope"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
	"github.com/Labs64/labs64.io-auditflow/sink/internal/metrics"
)

// Loki pushes audit events to Grafana Loki. Events already shaped by the
// audit_loki transformer (carrying a streams field) pass through unchanged;
// anything else is wrapped into a single stream.
type Loki struct {
	httpClient *http.Client
	client     *delivery.Client
	now        func() time.Time
}

func NewLoki(client *delivery.Client) *Loki {
	if client == nil {
		client = delivery.NewClient(0, 0)
	}
	return &Loki{
		httpClient: &http.Client{},
		client:     client,
		now:        time.Now,
	}
}

// Process pushes the event to Loki. Properties:
//
//	service-url:  Loki base URL (required)
//	service-path: push path (default /loki/api/v1/push)
//	username:     basic auth username (optional)
//	password:     basic auth password (optional)
//	tenant-id:    X-Scope-OrgID header for multi-tenancy (optional)
func (s *Loki) Process(ctx context.Context, event envelope.Event, props plugin.Properties) (plugin.Result, error) {
	serviceURL := props.Get("service-url", "")
	if serviceURL == "" {
		return nil, plugin.MissingProperty("service-url")
	}
	servicePath := props.Get("service-path", "/loki/api/v1/push")
	username := props.Get("username", "")
	password := props.Get("password", "")
	tenantID := props.Get("tenant-id", "")

	fullURL := strings.TrimRight(serviceURL, "/") + servicePath

	lokiData := event
	if !event.Has("streams") {
		lokiData = s.wrapStream(event)
	}
	payload, err := json.Marshal(map[string]any(lokiData))
	if err != nil {
		return nil, fmt.Errorf("marshal loki payload: %w", err)
	}

	var statusCode int
	_, err = s.client.Do(ctx, fullURL, func(ctx context.Context) error {
		metrics.DeliveryAttempts.WithLabelValues("loki").Inc()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(payload))
		if err != nil {
			return delivery.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if tenantID != "" {
			req.Header.Set("X-Scope-OrgID", tenantID)
		}
		if username != "" && password != "" {
			req.SetBasicAuth(username, password)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		statusCode = resp.StatusCode
		if resp.StatusCode >= 500 {
			return fmt.Errorf("loki returned status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return delivery.Permanent(fmt.Errorf("loki returned status %d", resp.StatusCode))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send event to Loki at %s: %w", fullURL, err)
	}

	return plugin.Result{
		"sent":          true,
		"destination":   "loki",
		"url":           fullURL,
		"status_code":   statusCode,
		"streams_count": len(lokiData.Slice("streams")),
	}, nil
}

func (s *Loki) wrapStream(event envelope.Event) envelope.Event {
	labels := map[string]any{
		"job":           "auditflow",
		"event_type":    event.String("eventType", "unknown"),
		"source_system": event.String("sourceSystem", "unknown"),
	}

	line, err := json.Marshal(map[string]any(event))
	if err != nil {
		line = []byte("{}")
	}
	timestamp := strconv.FormatInt(s.now().UnixNano(), 10)

	return envelope.Event{
		"streams": []any{
			map[string]any{
				"stream": labels,
				"values": []any{
					[]any{timestamp, string(line)},
				},
			},
		},
	}
}
