package sinks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Labs64/labs64.io-auditflow/common/delivery"
	"github.com/Labs64/labs64.io-auditflow/common/envelope"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
	"github.com/Labs64/labs64.io-auditflow/sink/internal/metrics"
)

const webhookUserAgent = "Labs64-AuditFlow/1.0"

// Webhook delivers audit events to HTTP endpoints (Zapier, Make, n8n and
// similar platforms).
type Webhook struct{}

func NewWebhook() *Webhook {
	return &Webhook{}
}

// Process sends the event to a webhook URL with retries. Properties:
//
//	webhook-url:      target URL (required)
//	method:           GET or POST (default POST)
//	content-type:     Content-Type header (default application/json)
//	headers:          additional headers as a JSON object (optional)
//	secret:           HMAC-SHA256 signing secret (optional)
//	signature-header: signature header name (default X-Hub-Signature-256)
//	timeout:          per-attempt timeout in seconds (default 30)
//	verify-ssl:       verify TLS certificates (default true)
//	retry-count:      total attempts (default 3)
func (s *Webhook) Process(ctx context.Context, event envelope.Event, props plugin.Properties) (plugin.Result, error) {
	webhookURL := props.Get("webhook-url", "")
	if webhookURL == "" {
		return nil, plugin.MissingProperty("webhook-url")
	}

	method := strings.ToUpper(props.Get("method", "POST"))
	if method != http.MethodPost && method != http.MethodGet {
		return nil, &plugin.ConfigError{Field: "method", Reason: fmt.Sprintf("unsupported HTTP method %q", method)}
	}
	contentType := props.Get("content-type", "application/json")
	timeoutSec, err := strconv.Atoi(props.Get("timeout", "30"))
	if err != nil {
		return nil, &plugin.ConfigError{Field: "timeout", Reason: "must be an integer"}
	}
	retryCount, err := strconv.Atoi(props.Get("retry-count", "3"))
	if err != nil {
		return nil, &plugin.ConfigError{Field: "retry-count", Reason: "must be an integer"}
	}
	verifySSL := props.Bool("verify-ssl", true)
	secret := props.Get("secret", "")
	signatureHeader := props.Get("signature-header", "X-Hub-Signature-256")

	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	headers.Set("User-Agent", webhookUserAgent)
	if extra := props.Get("headers", ""); extra != "" {
		var parsed map[string]string
		if err := json.Unmarshal([]byte(extra), &parsed); err != nil {
			slog.WarnContext(ctx, "failed to parse additional webhook headers", "headers", extra, "error", err)
		} else {
			for k, v := range parsed {
				headers.Set(k, v)
			}
		}
	}

	payload, err := webhookPayload(event, contentType)
	if err != nil {
		return nil, err
	}
	if secret != "" {
		headers.Set(signatureHeader, signPayload(payload, secret))
	}

	httpClient := &http.Client{}
	if !verifySSL {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client := delivery.NewClient(time.Duration(timeoutSec)*time.Second, retryCount)

	var statusCode int
	var responseBody string
	var elapsed time.Duration
	attempts, err := client.Do(ctx, webhookURL, func(ctx context.Context) error {
		metrics.DeliveryAttempts.WithLabelValues("webhook").Inc()

		req, err := buildWebhookRequest(ctx, method, webhookURL, payload, event, headers)
		if err != nil {
			return delivery.Permanent(err)
		}

		start := time.Now()
		resp, err := httpClient.Do(req)
		elapsed = time.Since(start)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusCode = resp.StatusCode
		responseBody = string(body)

		if resp.StatusCode >= 500 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return delivery.Permanent(fmt.Errorf("webhook returned status %d", resp.StatusCode))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send webhook to %s: %w", webhookURL, err)
	}

	result := plugin.Result{
		"sent":             true,
		"destination":      "webhook",
		"url":              webhookURL,
		"method":           method,
		"status_code":      statusCode,
		"response_time_ms": elapsed.Milliseconds(),
		"attempt":          attempts,
	}
	if responseBody != "" {
		result["response_body"] = truncate(responseBody, 200)
	}
	return result, nil
}

func buildWebhookRequest(ctx context.Context, method, rawURL string, payload []byte, event envelope.Event, headers http.Header) (*http.Request, error) {
	if method == http.MethodGet {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		for k, v := range flattenEvent(event, "") {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header = headers.Clone()
		return req, nil
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header = headers.Clone()
	return req, nil
}

func webhookPayload(event envelope.Event, contentType string) ([]byte, error) {
	if contentType == "application/x-www-form-urlencoded" {
		form := url.Values{}
		for k, v := range flattenEvent(event, "") {
			form.Set(k, v)
		}
		return []byte(form.Encode()), nil
	}
	raw, err := json.Marshal(map[string]any(event))
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return raw, nil
}

// signPayload produces a GitHub-style HMAC-SHA256 signature.
func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// flattenEvent turns nested sections into dot-separated keys so the event
// can travel as query or form parameters. Lists are JSON-encoded.
func flattenEvent(event envelope.Event, prefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range event {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			for nk, nv := range flattenEvent(envelope.Event(val), key) {
				out[nk] = nv
			}
		case []any:
			raw, err := json.Marshal(val)
			if err != nil {
				out[key] = fmt.Sprintf("%v", val)
			} else {
				out[key] = string(raw)
			}
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
