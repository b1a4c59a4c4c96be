package components

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDuplicateBinding is returned when a key is registered twice.
	ErrDuplicateBinding = errors.New("duplicate component binding")
	// ErrRegistryFrozen is returned when registering after Freeze.
	ErrRegistryFrozen = errors.New("component registry is frozen")
)

// Key identifies a render unit by section type and variant.
type Key struct {
	Type    string
	Variant string
}

// String returns the lookup form "{type}_{variant}".
func (k Key) String() string {
	return k.Type + "_" + k.Variant
}

// Unit is a presentational render unit.
type Unit struct {
	// Name is the display name of the unit.
	Name string
	// Template names the template that renders the unit.
	Template string
	// Layout selects a layout variation inside the template.
	Layout string
}

// Binding associates a key with a unit.
type Binding struct {
	Key  Key
	Unit Unit
}

// Registry maps section keys to render units. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings map[Key]Unit
	frozen   bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[Key]Unit)}
}

// Register adds bindings. It fails without registering any of them when a
// key is already bound or appears twice in the batch.
func (r *Registry) Register(bindings ...Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}

	batch := make(map[Key]Unit, len(bindings))
	for _, b := range bindings {
		if existing, ok := r.bindings[b.Key]; ok {
			return fmt.Errorf("%w: %s bound to %s, cannot bind %s", ErrDuplicateBinding, b.Key, existing.Name, b.Unit.Name)
		}
		if existing, ok := batch[b.Key]; ok {
			return fmt.Errorf("%w: %s bound to %s, cannot bind %s", ErrDuplicateBinding, b.Key, existing.Name, b.Unit.Name)
		}
		batch[b.Key] = b.Unit
	}

	for k, u := range batch {
		r.bindings[k] = u
	}
	return nil
}

// Freeze stops further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Resolve returns the unit bound to the section type and variant. A false
// result tells the caller to skip the section.
func (r *Registry) Resolve(sectionType, variant string) (Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.bindings[Key{Type: sectionType, Variant: variant}]
	return u, ok
}

// Bindings returns every binding ordered by key string.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Binding, 0, len(r.bindings))
	for k, u := range r.bindings {
		out = append(out, Binding{Key: k, Unit: u})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// Describe lists the catalog, one "key -> Name (template)" line per binding.
func (r *Registry) Describe() string {
	bindings := r.Bindings()
	lines := make([]string, len(bindings))
	for i, b := range bindings {
		lines[i] = fmt.Sprintf("%s -> %s (%s)", b.Key, b.Unit.Name, b.Unit.Template)
	}
	return strings.Join(lines, "\n")
}
