package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TransformerClient talks to the transformer dispatch service.
type TransformerClient struct {
	baseURL string
	client  *http.Client
}

func NewTransformerClient(baseURL string) *TransformerClient {
	return &TransformerClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Transform sends an event through the named transformer and returns the
// transformed payload.
func (c *TransformerClient) Transform(transformerID string, event map[string]interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/transform/"+transformerID, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("transform", resp)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListTransformers returns the transformer descriptors the service exposes.
func (c *TransformerClient) ListTransformers() ([]Descriptor, error) {
	return listPlugins(c.client, c.baseURL+"/transformers", "available_transformers")
}

// Descriptor mirrors the dispatch services' plugin listing entries.
type Descriptor struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Path string `json:"path"`
}

func listPlugins(client *http.Client, url, field string) ([]Descriptor, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list failed with status %d", resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	var descriptors []Descriptor
	if raw, ok := payload[field]; ok {
		if err := json.Unmarshal(raw, &descriptors); err != nil {
			return nil, err
		}
	}
	return descriptors, nil
}

func apiError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
		return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, detail.Detail)
	}
	return fmt.Errorf("%s failed with status %d", op, resp.StatusCode)
}
