package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// SinkClient talks to the sink dispatch service.
type SinkClient struct {
	baseURL string
	client  *http.Client
}

func NewSinkClient(baseURL string) *SinkClient {
	return &SinkClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// SinkResponse is the dispatch envelope returned by the sink service.
type SinkResponse struct {
	Status  string      `json:"status"`
	Sink    string      `json:"sink"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

// Process dispatches an event to the named sink with per-request properties.
func (c *SinkClient) Process(sinkID string, event map[string]interface{}, properties map[string]string) (*SinkResponse, error) {
	payload := map[string]interface{}{
		"event_data": event,
	}
	if len(properties) > 0 {
		payload["properties"] = properties
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/sink/"+sinkID, bytes.NewBuffer(body))
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
		return nil, apiError("sink", resp)
	}

	var result SinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListSinks returns the sink descriptors the service exposes.
func (c *SinkClient) ListSinks() ([]Descriptor, error) {
	return listPlugins(c.client, c.baseURL+"/sinks", "available_sinks")
}
