// Package sinks holds the built-in sink plugins registered by the sink
// service at startup.
package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
)

// Logging writes audit events to the service log. Useful for debugging and
// development.
type Logging struct {
	logger *slog.Logger
}

func NewLogging(logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger}
}

// Process logs the event at the configured level. Properties:
//
//	log-level: debug, info, warn or error (default info)
//	format:    json or text (default json)
func (s *Logging) Process(ctx context.Context, event envelope.Event, props plugin.Properties) (plugin.Result, error) {
	logLevel := strings.ToUpper(props.Get("log-level", "INFO"))
	format := strings.ToLower(props.Get("format", "json"))

	var message string
	if format == "json" {
		raw, err := json.MarshalIndent(map[string]any(event), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal event: %w", err)
		}
		message = string(raw)
	} else {
		meta := event.Section("meta")
		action := event.Section("action")
		message = fmt.Sprintf("AuditEvent: %s | Source: %s | Action: %s | Status: %s",
			meta.String("eventType", "unknown"),
			meta.String("sourceSystem", "unknown"),
			action.String("name", "unknown"),
			action.String("status", "unknown"),
		)
	}

	s.logger.Log(ctx, parseLevel(logLevel), "Audit Event Logged", slog.String("event", message))

	return plugin.Result{
		"logged":     true,
		"log_level":  logLevel,
		"format":     format,
		"event_type": event.Section("meta").String("eventType", "unknown"),
	}, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
