// Package plugin defines the capability contracts implemented by transformer
// and sink plugins, the failure taxonomy dispatch maps to HTTP responses, and
// the registry that resolves plugin identifiers.
package plugin

import (
	"context"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
)

// Properties is the flat per-request configuration handed to a sink plugin.
// Keys, defaults and required fields are plugin-specific.
type Properties map[string]string

// Get returns the property value or def when the key is absent or empty.
func (p Properties) Get(key, def string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return def
}

// Bool interprets the property as a boolean flag ("true"/"false").
func (p Properties) Bool(key string, def bool) bool {
	switch p[key] {
	case "true", "TRUE", "True":
		return true
	case "false", "FALSE", "False":
		return false
	}
	return def
}

// Result is a sink's delivery outcome, returned to the caller unchanged.
type Result map[string]any

// Transformer reshapes an audit event into a destination-specific payload.
// Implementations must not mutate the input event.
type Transformer interface {
	Transform(ctx context.Context, event envelope.Event) (envelope.Event, error)
}

// Sink delivers an audit event to an external destination.
type Sink interface {
	Process(ctx context.Context, event envelope.Event, props Properties) (Result, error)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(ctx context.Context, event envelope.Event) (envelope.Event, error)

func (f TransformerFunc) Transform(ctx context.Context, event envelope.Event) (envelope.Event, error) {
	return f(ctx, event)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, event envelope.Event, props Properties) (Result, error)

func (f SinkFunc) Process(ctx context.Context, event envelope.Event, props Properties) (Result, error) {
	return f(ctx, event, props)
}
