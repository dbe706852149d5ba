package method

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps payment method identifiers to their descriptors.
// It is filled once at startup and only read afterwards.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Method
}

func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]Method)}
}

// Register adds m to the registry. Params and Triggers are copied so later
// changes to the caller's slices and maps never leak in.
func (r *Registry) Register(m Method) error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidMethod)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.methods[m.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMethod, m.ID)
	}

	params := make(map[string]string, len(m.Params))
	for k, v := range m.Params {
		params[k] = v
	}
	m.Params = params
	m.Triggers = append([]Trigger(nil), m.Triggers...)

	r.methods[m.ID] = m
	return nil
}

// Lookup returns the method registered under id. Plugin-namespaced keys
// are accepted as well.
func (r *Registry) Lookup(id string) (Method, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.methods[KeyByMop(id)]
	if !ok {
		return Method{}, fmt.Errorf("%w: %s", ErrUnknownMethod, id)
	}
	return m, nil
}

// All returns every registered method ordered by id.
func (r *Registry) All() []Method {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Method, 0, len(r.methods))
	for _, m := range r.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// KeyByMop strips the plugin namespace from a method-of-payment key.
func KeyByMop(mop string) string {
	return strings.TrimPrefix(strings.TrimSpace(mop), PluginNamespace)
}
