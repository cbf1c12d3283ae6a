package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transform/user", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var event map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		event["transformed"] = true
		json.NewEncoder(w).Encode(event)
	}))
	defer server.Close()

	result, err := NewTransformerClient(server.URL).Transform("user", map[string]interface{}{
		"eventType": "order",
	})
	require.NoError(t, err)
	assert.Equal(t, true, result["transformed"])
	assert.Equal(t, "order", result["eventType"])
}

func TestTransformErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"detail": "Transformation module not found for ID: 'nope'",
		})
	}))
	defer server.Close()

	_, err := NewTransformerClient(server.URL).Transform("nope", map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "Transformation module not found")
}

func TestListTransformers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transformers", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"available_transformers": []map[string]string{
				{"id": "audit_loki", "type": "internal", "path": "transformers/audit_loki"},
				{"id": "custom", "type": "external", "path": "transformers_bootstrap/custom.lua"},
			},
			"count": 2,
		})
	}))
	defer server.Close()

	descriptors, err := NewTransformerClient(server.URL).ListTransformers()
	require.NoError(t, err)
	require.Len(t, descriptors, 2)
	assert.Equal(t, "audit_loki", descriptors[0].ID)
	assert.Equal(t, "external", descriptors[1].Type)
}

func TestSinkProcess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sink/logging", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotNil(t, payload["event_data"])
		props := payload["properties"].(map[string]interface{})
		assert.Equal(t, "text", props["format"])

		json.NewEncoder(w).Encode(SinkResponse{
			Status:  "success",
			Sink:    "logging",
			Message: "Event processed successfully by sink 'logging'",
			Result:  map[string]interface{}{"logged": true},
		})
	}))
	defer server.Close()

	resp, err := NewSinkClient(server.URL).Process("logging",
		map[string]interface{}{"eventType": "login"},
		map[string]string{"format": "text"})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "logging", resp.Sink)
}

func TestListSinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sinks", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"available_sinks": []map[string]string{
				{"id": "logging", "type": "internal", "path": "sinks/logging"},
			},
			"count": 1,
		})
	}))
	defer server.Close()

	descriptors, err := NewSinkClient(server.URL).ListSinks()
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "logging", descriptors[0].ID)
}
