package plugin

import "fmt"

// NotFoundError means no plugin with the requested identifier exists in any
// search location. Dispatch maps it to 404.
type NotFoundError struct {
	ID       string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("plugin not found for ID %q (searched: %v)", e.ID, e.Searched)
}

// LoadError means an override script exists but failed to compile or
// initialize. Dispatch maps it to 500.
type LoadError struct {
	ID   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load plugin %q from %s: %v", e.ID, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ContractError means a plugin loaded but does not export the required entry
// function. Distinct from LoadError so operators see which half is broken.
type ContractError struct {
	ID     string
	Path   string
	Symbol string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("entry function %q not found in plugin %q (%s)", e.Symbol, e.ID, e.Path)
}

// ConfigError is raised by a plugin when a required property is missing or
// invalid. The field name is part of the diagnostic.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid property %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("missing required property: %q", e.Field)
}

// MissingProperty is shorthand for the common required-property failure.
func MissingProperty(field string) error {
	return &ConfigError{Field: field}
}
