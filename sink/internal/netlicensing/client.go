// Package netlicensing integrates the sink service with the Labs64
// NetLicensing REST API. Checkout transaction events are translated into
// licensee and license records.
package netlicensing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Labs64/labs64.io-auditflow/common/delivery"
	"github.com/Labs64/labs64.io-auditflow/sink/internal/metrics"
)

const (
	// DefaultBaseURL is the production NetLicensing endpoint.
	DefaultBaseURL = "https://go.netlicensing.io/core/v2/rest/"

	userAgent = "Labs64-AuditFlow-NetLicensingSink/1.0"
)

// Entity is a NetLicensing record flattened from the API's property list
// form. Nested lists (for example the licensee's product) appear under
// their list name.
type Entity struct {
	Type       string
	Properties map[string]string
	Nested     map[string]map[string]string
}

// Get returns a top-level property value, or "" when absent.
func (e Entity) Get(name string) string {
	return e.Properties[name]
}

// NestedGet returns a property of a nested list, or "" when absent.
func (e Entity) NestedGet(list, name string) string {
	if props, ok := e.Nested[list]; ok {
		return props[name]
	}
	return ""
}

// Client talks to the NetLicensing REST API. Requests are form-encoded and
// authenticated with Basic auth using the "apiKey" pseudo-user.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	delivery   *delivery.Client
}

// NewClient builds a client for baseURL. The delivery client supplies the
// per-attempt timeout and retry budget.
func NewClient(baseURL, apiKey string, deliveryClient *delivery.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if deliveryClient == nil {
		deliveryClient = delivery.NewClient(0, 0)
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		delivery:   deliveryClient,
	}
}

// GetLicensee fetches a licensee by number.
func (c *Client) GetLicensee(ctx context.Context, number string) (Entity, error) {
	return c.request(ctx, http.MethodGet, "licensee/"+url.PathEscape(number), nil)
}

// CreateLicensee creates a licensee under the given product.
func (c *Client) CreateLicensee(ctx context.Context, productNumber string, props map[string]string) (Entity, error) {
	form := url.Values{}
	form.Set("productNumber", productNumber)
	for k, v := range props {
		form.Set(k, v)
	}
	return c.request(ctx, http.MethodPost, "licensee", form)
}

// GetLicenseTemplate fetches a license template by number.
func (c *Client) GetLicenseTemplate(ctx context.Context, number string) (Entity, error) {
	return c.request(ctx, http.MethodGet, "licensetemplate/"+url.PathEscape(number), nil)
}

// CreateLicense creates a license for the licensee from the given template.
func (c *Client) CreateLicense(ctx context.Context, licenseeNumber, templateNumber string, props map[string]string) (Entity, error) {
	form := url.Values{}
	form.Set("licenseeNumber", licenseeNumber)
	form.Set("licenseTemplateNumber", templateNumber)
	for k, v := range props {
		form.Set(k, v)
	}
	return c.request(ctx, http.MethodPost, "license", form)
}

// NetLicensing response document. Record properties arrive as name/value
// pairs, with nested records (the licensee's product, the template's
// product module) in named lists.
type apiResponse struct {
	Items struct {
		Item []apiItem `json:"item"`
	} `json:"items"`
}

type apiItem struct {
	Type     string        `json:"type"`
	Property []apiProperty `json:"property"`
	List     []apiList     `json:"list"`
}

type apiProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type apiList struct {
	Name     string        `json:"name"`
	Property []apiProperty `json:"property"`
}

func (c *Client) request(ctx context.Context, method, endpoint string, form url.Values) (Entity, error) {
	fullURL := c.baseURL + endpoint

	var entity Entity
	_, err := c.delivery.Do(ctx, fullURL, func(ctx context.Context) error {
		metrics.DeliveryAttempts.WithLabelValues("netlicensing").Inc()

		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
		if err != nil {
			return delivery.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", userAgent)
		req.SetBasicAuth("apiKey", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("netlicensing returned status %d: %s", resp.StatusCode, truncate(string(raw), 500))
		}
		if resp.StatusCode >= 400 {
			return delivery.Permanent(fmt.Errorf("netlicensing returned status %d: %s", resp.StatusCode, truncate(string(raw), 500)))
		}

		var parsed apiResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return delivery.Permanent(fmt.Errorf("decode netlicensing response: %w", err))
		}
		if len(parsed.Items.Item) == 0 {
			return delivery.Permanent(fmt.Errorf("netlicensing response contains no items"))
		}
		entity = flattenItem(parsed.Items.Item[0])
		return nil
	})
	if err != nil {
		return Entity{}, err
	}
	return entity, nil
}

func flattenItem(item apiItem) Entity {
	entity := Entity{
		Type:       item.Type,
		Properties: make(map[string]string, len(item.Property)),
		Nested:     make(map[string]map[string]string, len(item.List)),
	}
	for _, prop := range item.Property {
		if prop.Name != "" {
			entity.Properties[prop.Name] = prop.Value
		}
	}
	for _, list := range item.List {
		if list.Name == "" {
			continue
		}
		nested := make(map[string]string, len(list.Property))
		for _, prop := range list.Property {
			if prop.Name != "" {
				nested[prop.Name] = prop.Value
			}
		}
		entity.Nested[list.Name] = nested
	}
	return entity
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
