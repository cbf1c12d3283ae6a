package logging

import "log/slog"

// Common field names for consistent logging across both dispatch services.
const (
	FieldService     = "service"
	FieldPlugin      = "plugin"
	FieldSink        = "sink"
	FieldTransformer = "transformer"
	FieldEventType   = "event_type"
	FieldDestination = "destination"
	FieldAttempt     = "attempt"
	FieldStatus      = "status"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Plugin returns a slog attribute for a plugin identifier.
func Plugin(id string) slog.Attr {
	return slog.String(FieldPlugin, id)
}

// Sink returns a slog attribute for a sink identifier.
func Sink(id string) slog.Attr {
	return slog.String(FieldSink, id)
}

// Transformer returns a slog attribute for a transformer identifier.
func Transformer(id string) slog.Attr {
	return slog.String(FieldTransformer, id)
}

// EventType returns a slog attribute for the audit event type.
func EventType(t string) slog.Attr {
	return slog.String(FieldEventType, t)
}

// Destination returns a slog attribute for a delivery destination.
func Destination(d string) slog.Attr {
	return slog.String(FieldDestination, d)
}

// Attempt returns a slog attribute for a delivery attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(FieldAttempt, n)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
