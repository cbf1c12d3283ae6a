package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Origin tags where a plugin was discovered.
type Origin string

const (
	OriginInternal Origin = "internal" // compiled-in plugin
	OriginExternal Origin = "external" // operator override script
)

// Descriptor identifies one discoverable plugin without loading it.
type Descriptor struct {
	ID     string `json:"id"`
	Origin Origin `json:"type"`
	Path   string `json:"path"`
}

// Loader compiles an override script into a plugin implementation. It must
// return *LoadError or *ContractError on failure.
type Loader[T any] func(id, path string) (T, error)

// Registry resolves plugin identifiers for one service. Built-in plugins are
// registered at the composition root; operator overrides are Lua scripts in
// an optional directory. Built-ins take precedence on an identifier clash,
// matching the original search-path order.
//
// Resolution of an override is cached for the life of the process. A changed
// script on disk requires a restart; this is a known limitation.
type Registry[T any] struct {
	kind        string // "transformer" or "sink", used in diagnostics
	builtinPath string // label prefix for built-in descriptors
	overrideDir string // optional; absence is only a diagnostic note
	loader      Loader[T]

	mu       sync.Mutex
	builtins map[string]T
	cache    map[string]T
}

// NewRegistry constructs a registry. overrideDir may be empty or point to a
// directory that does not exist; both disable overrides.
func NewRegistry[T any](kind, builtinPath, overrideDir string, loader Loader[T]) *Registry[T] {
	r := &Registry[T]{
		kind:        kind,
		builtinPath: builtinPath,
		overrideDir: overrideDir,
		loader:      loader,
		builtins:    make(map[string]T),
		cache:       make(map[string]T),
	}
	if overrideDir == "" {
		slog.Info("no override directory configured", "kind", kind)
	} else if _, err := os.Stat(overrideDir); err != nil {
		slog.Warn("override directory not found, skipping", "kind", kind, "dir", overrideDir)
	} else {
		slog.Info("override directory registered", "kind", kind, "dir", overrideDir)
	}
	return r
}

// Register adds a built-in plugin. Identifiers are case-sensitive and used
// verbatim as lookup keys.
func (r *Registry[T]) Register(id string, impl T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[id] = impl
}

// Resolve returns the plugin for id, loading and caching an override script
// on first use. The registry lock guards the cache, so concurrent first
// resolutions of the same identifier initialize it exactly once.
func (r *Registry[T]) Resolve(id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if impl, ok := r.builtins[id]; ok {
		return impl, nil
	}
	if impl, ok := r.cache[id]; ok {
		return impl, nil
	}

	var zero T
	path, ok := r.overridePath(id)
	if !ok {
		return zero, &NotFoundError{ID: id, Searched: r.searchLocations()}
	}

	impl, err := r.loader(id, path)
	if err != nil {
		return zero, err
	}
	r.cache[id] = impl
	slog.Info("loaded override plugin", "kind", r.kind, "id", id, "path", path)
	return impl, nil
}

// List enumerates every discoverable plugin without loading it.
func (r *Registry[T]) List() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Descriptor, 0, len(r.builtins))
	for id := range r.builtins {
		out = append(out, Descriptor{
			ID:     id,
			Origin: OriginInternal,
			Path:   fmt.Sprintf("%s/%s", r.builtinPath, id),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if r.overrideDir == "" {
		return out
	}
	entries, err := os.ReadDir(r.overrideDir)
	if err != nil {
		return out
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".lua") {
			continue
		}
		id := strings.TrimSuffix(name, ".lua")
		if _, shadowed := r.builtins[id]; shadowed {
			continue
		}
		out = append(out, Descriptor{
			ID:     id,
			Origin: OriginExternal,
			Path:   filepath.Join(r.overrideDir, name),
		})
	}
	return out
}

func (r *Registry[T]) overridePath(id string) (string, bool) {
	if r.overrideDir == "" {
		return "", false
	}
	// Identifiers come from the request path; keep them from escaping the
	// override directory.
	if id != filepath.Base(id) || strings.ContainsAny(id, `/\`) {
		return "", false
	}
	path := filepath.Join(r.overrideDir, id+".lua")
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func (r *Registry[T]) searchLocations() []string {
	locations := []string{fmt.Sprintf("built-in %ss (%s/)", r.kind, r.builtinPath)}
	if r.overrideDir != "" {
		locations = append(locations, r.overrideDir)
	} else {
		locations = append(locations, "no override directory configured")
	}
	return locations
}
