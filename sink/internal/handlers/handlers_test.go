package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
	"github.com/Labs64/labs64.io-auditflow/common/logging"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
)

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(ctx context.Context, key string) (bool, error) { return false, nil }
func (denyAllLimiter) Close() error                                        { return nil }

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	registry := plugin.NewRegistry[plugin.Sink]("sink", "sinks", "", plugin.LoadLuaSink)
	registry.Register("echo", plugin.SinkFunc(
		func(ctx context.Context, event envelope.Event, props plugin.Properties) (plugin.Result, error) {
			return plugin.Result{
				"delivered":  true,
				"event_type": event.String("eventType", ""),
				"format":     props.Get("format", "json"),
			}, nil
		}))
	registry.Register("empty", plugin.SinkFunc(
		func(ctx context.Context, event envelope.Event, props plugin.Properties) (plugin.Result, error) {
			return nil, nil
		}))
	registry.Register("boom", plugin.SinkFunc(
		func(ctx context.Context, event envelope.Event, props plugin.Properties) (plugin.Result, error) {
			panic("sink exploded")
		}))
	return New(registry, nil, logging.Default())
}

func doSink(t *testing.T, h *Handler, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sink/"+id, strings.NewReader(body))
	req.SetPathValue("sinkId", id)
	rec := httptest.NewRecorder()
	h.Process(rec, req)
	return rec
}

func TestProcessSuccess(t *testing.T) {
	h := newTestHandler(t)

	rec := doSink(t, h, "echo",
		`{"event_data":{"eventType":"login"},"properties":{"format":"text"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Status  string         `json:"status"`
		Sink    string         `json:"sink"`
		Message string         `json:"message"`
		Result  map[string]any `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.Status != "success" || got.Sink != "echo" {
		t.Errorf("envelope = %+v", got)
	}
	if got.Message != "Event processed successfully by sink 'echo'" {
		t.Errorf("message = %q", got.Message)
	}
	if got.Result["event_type"] != "login" || got.Result["format"] != "text" {
		t.Errorf("result = %v", got.Result)
	}
}

func TestProcessEmptyResultPlaceholder(t *testing.T) {
	h := newTestHandler(t)

	rec := doSink(t, h, "empty", `{"event_data":{"eventType":"login"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got["result"] != "Event sent to destination" {
		t.Errorf("result = %v, want placeholder string", got["result"])
	}
}

func TestProcessMissingEventData(t *testing.T) {
	h := newTestHandler(t)

	rec := doSink(t, h, "echo", `{"properties":{"format":"text"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProcessUnknownSink(t *testing.T) {
	h := newTestHandler(t)

	rec := doSink(t, h, "missing", `{"event_data":{"eventType":"login"}}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if !strings.Contains(body["detail"], "Sink module not found for ID: 'missing'") {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestProcessPanicIsolated(t *testing.T) {
	h := newTestHandler(t)

	rec := doSink(t, h, "boom", `{"event_data":{"eventType":"login"}}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if !strings.Contains(body["detail"], "unexpected error occurred while processing event through sink 'boom'") {
		t.Errorf("detail = %q", body["detail"])
	}

	rec = doSink(t, h, "echo", `{"event_data":{"eventType":"login"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status after panic = %d, want 200", rec.Code)
	}
}

func TestProcessRateLimited(t *testing.T) {
	registry := plugin.NewRegistry[plugin.Sink]("sink", "sinks", "", plugin.LoadLuaSink)
	registry.Register("echo", plugin.SinkFunc(
		func(ctx context.Context, event envelope.Event, props plugin.Properties) (plugin.Result, error) {
			return plugin.Result{}, nil
		}))
	h := New(registry, denyAllLimiter{}, logging.Default())

	rec := doSink(t, h, "echo", `{"event_data":{"eventType":"login"}}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestListSinks(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/sinks", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Available []plugin.Descriptor `json:"available_sinks"`
		Count     int                 `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if body.Count != 3 {
		t.Errorf("count = %d, want 3", body.Count)
	}
}
