package dialog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/corebot/pkg/domain"
)

// Registry maps dialog ids to templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]*Template),
	}
}

// Register adds a template. Registering the same id twice is an error.
func (r *Registry) Register(t *Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[t.ID()]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateDialog, t.ID())
	}
	r.templates[t.ID()] = t
	return nil
}

// Lookup returns the template registered under id.
func (r *Registry) Lookup(id string) (*Template, error) {
	r.mu.RLock()
	t, ok := r.templates[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDialog, id)
	}
	return t, nil
}

// IDs returns the registered dialog ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
