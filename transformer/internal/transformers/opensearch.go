// Package transformers holds the built-in payload translations shipped with
// the transformer service.
package transformers

import (
	"context"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
)

// AuditOpenSearch flattens an audit event into an OpenSearch-friendly
// document: snake_case top-level fields, a geo_point "location" when both
// coordinates are present, and the extra section retained as a nested
// object.
type AuditOpenSearch struct{}

func (AuditOpenSearch) Transform(_ context.Context, event envelope.Event) (envelope.Event, error) {
	geo := event.Section("geolocation")
	extra := event.Section("extra")

	out := envelope.Event{
		"timestamp":     event["timestamp"],
		"event_id":      event["eventId"],
		"event_type":    event["eventType"],
		"source_system": event["sourceSystem"],
		"tenant_id":     event["tenantId"],

		"action_name":    extra["action_name"],
		"action_status":  extra["action_status"],
		"action_message": extra["action_message"],

		"location_city":         geo["city"],
		"location_region":       geo["region"],
		"location_country":      geo["country"],
		"location_country_code": geo["countryCode"],
	}

	// OpenSearch geo_point mappings reject partial coordinates, so the
	// field is omitted unless both are present.
	lat, latOK := geo.Number("lat")
	lon, lonOK := geo.Number("lon")
	if latOK && lonOK {
		out["location"] = map[string]any{"lat": lat, "lon": lon}
	}

	if len(extra) > 0 {
		out["extra"] = map[string]any(extra)
	} else {
		out["extra"] = map[string]any{}
	}

	return out, nil
}
