// Package envelope defines the generic representation of one audit event.
//
// The envelope schema is intentionally open-ended: plugins read the
// sub-fields they need and treat absent fields as defaults. Accessors never
// fail; they return the zero value or the supplied default instead.
package envelope

import "encoding/json"

// Event is one audit event as an open key/value mapping. Values are
// JSON-representable: nil, bool, float64, string, []any or map[string]any.
type Event map[string]any

// Parse decodes a JSON document into an Event.
func Parse(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// String returns the value under key as a string, or def when the key is
// absent or not a string.
func (e Event) String(key, def string) string {
	if v, ok := e[key].(string); ok {
		return v
	}
	return def
}

// Number returns the value under key as a float64. JSON numbers always
// decode to float64, so integer fields are reachable through this too.
func (e Event) Number(key string) (float64, bool) {
	switch v := e[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Int returns the value under key truncated to int, or def.
func (e Event) Int(key string, def int) int {
	if v, ok := e.Number(key); ok {
		return int(v)
	}
	return def
}

// Section returns the nested object under key. Absent or non-object values
// yield an empty Event so chained lookups stay safe.
func (e Event) Section(key string) Event {
	switch v := e[key].(type) {
	case map[string]any:
		return Event(v)
	case Event:
		return v
	}
	return Event{}
}

// Slice returns the array under key, or nil.
func (e Event) Slice(key string) []any {
	if v, ok := e[key].([]any); ok {
		return v
	}
	return nil
}

// Has reports whether key is present, regardless of its value.
func (e Event) Has(key string) bool {
	_, ok := e[key]
	return ok
}

// Clone returns a shallow copy of the event. Dispatch hands plugins their
// own top-level map so a plugin cannot alter the caller's view.
func (e Event) Clone() Event {
	out := make(Event, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
