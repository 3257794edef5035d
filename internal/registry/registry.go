// file: internal/registry/registry.go
// version: 1.1.0
// guid: caa63db7-1703-4a39-bdfb-602fa2099244

// Package registry holds the set of metadata providers available to the
// dispatcher. Providers are registered at startup; after Freeze the registry
// is read-only and safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jdfalk/spit/internal/metadata"
	"github.com/jdfalk/spit/internal/models"
)

var (
	// ErrDuplicateProvider is returned when a provider name is registered twice.
	ErrDuplicateProvider = errors.New("duplicate provider")
	// ErrUnknownSource is returned when a source filter names no provider
	// registered for the query category.
	ErrUnknownSource = errors.New("unknown source")
	// ErrUnsupportedCategory is returned when a descriptor claims a category
	// its provider does not implement.
	ErrUnsupportedCategory = errors.New("unsupported category")
	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("registry is frozen")
)

// SourceAll selects every eligible provider. An empty filter does the same.
const SourceAll = "all"

// Entry is a registered provider together with its descriptor.
type Entry struct {
	Descriptor models.Descriptor
	Provider   metadata.Provider
	// Index is the registration position, used to break ordering ties.
	Index int
}

// Registry maps provider names to providers, preserving registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []*Entry
	byName  map[string]*Entry
	frozen  bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*Entry)}
}

// Register adds a provider. The descriptor name defaults to the provider's
// own name and its categories default to everything the provider supports.
func (r *Registry) Register(desc models.Descriptor, p metadata.Provider) error {
	if p == nil {
		return fmt.Errorf("registering %q: nil provider", desc.Name)
	}
	if desc.Name == "" {
		desc.Name = p.Name()
	}
	if desc.Group == "" {
		desc.Group = models.GroupSafe
	}
	if len(desc.Categories) == 0 {
		desc.Categories = append([]models.Category(nil), p.Categories()...)
	}

	supported := models.Descriptor{Categories: p.Categories()}
	for _, c := range desc.Categories {
		if !c.Valid() || !supported.Supports(c) {
			return fmt.Errorf("%w: %s does not serve %s", ErrUnsupportedCategory, desc.Name, c)
		}
	}

	key := strings.ToLower(desc.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if _, exists := r.byName[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, desc.Name)
	}
	e := &Entry{Descriptor: desc, Provider: p, Index: len(r.entries)}
	r.entries = append(r.entries, e)
	r.byName[key] = e
	return nil
}

// MustRegister is like Register but panics on error. Intended for static
// provider tables built at startup.
func (r *Registry) MustRegister(desc models.Descriptor, p metadata.Provider) {
	if err := r.Register(desc, p); err != nil {
		panic(err)
	}
}

// Freeze stops further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Lookup returns the entry registered under name, case-insensitively. A
// name that is not registered is tried as a prefix; the first provider in
// registration order whose name starts with it wins.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byName[key]; ok {
		return e, true
	}
	for _, e := range r.entries {
		if strings.HasPrefix(strings.ToLower(e.Descriptor.Name), key) {
			return e, true
		}
	}
	return nil, false
}

// Providers returns every entry in registration order.
func (r *Registry) Providers() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Entry(nil), r.entries...)
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// EligibleProviders returns, in registration order, the enabled providers
// that serve q's category and pass its source filter.
//
// The filter is a provider name, a group name ("safe", "unsafe", "special")
// or "all". Several can be combined with ";" or ",". A filter that selects
// nothing for the category yields ErrUnknownSource.
func (r *Registry) EligibleProviders(q models.Query) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	terms := splitFilter(q.SourceFilter())
	var out []*Entry
	for _, e := range r.entries {
		if !e.Descriptor.Enabled || !e.Descriptor.Supports(q.Category()) {
			continue
		}
		if terms != nil && !matchesFilter(e.Descriptor, terms) {
			continue
		}
		out = append(out, e)
	}
	if len(out) == 0 && terms != nil {
		return nil, fmt.Errorf("%w: %q for %s", ErrUnknownSource, q.SourceFilter(), q.Category())
	}
	return out, nil
}

// splitFilter returns nil when the filter selects everything.
func splitFilter(filter string) []string {
	fields := strings.FieldsFunc(strings.ToLower(filter), func(r rune) bool {
		return r == ';' || r == ',' || r == ' '
	})
	for _, f := range fields {
		if f == SourceAll {
			return nil
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func matchesFilter(d models.Descriptor, terms []string) bool {
	name := strings.ToLower(d.Name)
	for _, t := range terms {
		if t == name || t == string(d.Group) {
			return true
		}
	}
	return false
}
