package transformers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
)

var statusToLevel = map[string]string{
	"SUCCESS": "INFO",
	"FAILURE": "ERROR",
	"PENDING": "WARN",
}

func logLevel(status string) string {
	if level, ok := statusToLevel[strings.ToUpper(status)]; ok {
		return level
	}
	return "UNKNOWN"
}

// AuditLoki shapes an audit event into a Loki push payload: one stream
// labelled with job/service/tenant/event/action and a single value of
// [unix-nanos timestamp, action message, structured metadata].
type AuditLoki struct{}

func (AuditLoki) Transform(_ context.Context, event envelope.Event) (envelope.Event, error) {
	geo := event.Section("geolocation")
	extra := event.Section("extra")

	stream := map[string]any{
		"job":           "auditflow",
		"service_name":  event.String("sourceSystem", "unknown"),
		"tenant_id":     event.String("tenantId", "unknown"),
		"event_type":    event.String("eventType", "unknown"),
		"action_name":   extra.String("action_name", "unknown_action"),
		"action_status": extra.String("action_status", "unknown_status"),
	}

	metadata := map[string]any{
		"eventId":      event.String("eventId", "N/A"),
		"level":        logLevel(extra.String("action_status", "N/A")),
		"userId":       extra.String("userId", "N/A"),
		"country_code": geo.String("countryCode", "N/A"),
		"latitude":     coordString(geo, "lat"),
		"longitude":    coordString(geo, "lon"),
	}

	value := []any{
		unixNanos(event.String("timestamp", "")),
		extra.String("action_message", "N/A"),
		metadata,
	}

	return envelope.Event{
		"streams": []any{
			map[string]any{
				"stream": stream,
				"values": []any{value},
			},
		},
	}, nil
}

// unixNanos converts an RFC 3339 timestamp into the nanosecond string Loki
// expects, or "0" for absent/invalid timestamps.
func unixNanos(iso string) string {
	if iso == "" {
		return "0"
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return "0"
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}

func coordString(geo envelope.Event, key string) string {
	if v, ok := geo[key]; ok && v != nil {
		return fmt.Sprintf("%v", v)
	}
	return "N/A"
}
