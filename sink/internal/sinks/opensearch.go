package sinks

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchutil"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
	"github.com/Labs64/labs64.io-auditflow/sink/internal/metrics"
)

// OpenSearch indexes audit events into an OpenSearch cluster. Clients are
// cached per connection configuration so repeated dispatches reuse the
// underlying connection pool.
type OpenSearch struct {
	mu      sync.Mutex
	clients map[string]*opensearch.Client
}

func NewOpenSearch() *OpenSearch {
	return &OpenSearch{clients: make(map[string]*opensearch.Client)}
}

// Process indexes the event. Properties:
//
//	service-url: OpenSearch base URL (required)
//	index:       target index (default auditflow)
//	username:    basic auth username (optional)
//	password:    basic auth password (optional)
//	verify-ssl:  verify TLS certificates (default true)
func (s *OpenSearch) Process(ctx context.Context, event envelope.Event, props plugin.Properties) (plugin.Result, error) {
	serviceURL := props.Get("service-url", "")
	if serviceURL == "" {
		return nil, plugin.MissingProperty("service-url")
	}
	index := props.Get("index", "auditflow")
	username := props.Get("username", "")
	password := props.Get("password", "")
	verifySSL := props.Bool("verify-ssl", true)

	client, err := s.clientFor(serviceURL, username, password, verifySSL)
	if err != nil {
		return nil, err
	}

	doc := event.Clone()
	meta := doc.Section("meta")
	if len(meta) > 0 && !meta.Has("timestamp") {
		meta["timestamp"] = time.Now().UTC().Format(time.RFC3339)
		doc["meta"] = map[string]any(meta)
	}

	metrics.DeliveryAttempts.WithLabelValues("opensearch").Inc()
	res, err := client.Index(
		index,
		opensearchutil.NewJSONReader(map[string]any(doc)),
		client.Index.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send event to OpenSearch at %s: %w", serviceURL, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch indexing failed: %s", res.Status())
	}

	var indexed struct {
		ID     string `json:"_id"`
		Index  string `json:"_index"`
		Result string `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&indexed); err != nil {
		return nil, fmt.Errorf("decode opensearch response: %w", err)
	}

	return plugin.Result{
		"sent":        true,
		"destination": "opensearch",
		"url":         strings.TrimRight(serviceURL, "/"),
		"document_id": indexed.ID,
		"index":       indexed.Index,
		"result":      indexed.Result,
		"status_code": res.StatusCode,
	}, nil
}

func (s *OpenSearch) clientFor(serviceURL, username, password string, verifySSL bool) (*opensearch.Client, error) {
	key := fmt.Sprintf("%s|%s|%t", serviceURL, username, verifySSL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if client, ok := s.clients[key]; ok {
		return client, nil
	}

	cfg := opensearch.Config{
		Addresses: []string{serviceURL},
		Username:  username,
		Password:  password,
	}
	if !verifySSL {
		cfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}
	s.clients[key] = client
	return client, nil
}
