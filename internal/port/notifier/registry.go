package notifier

import (
	"fmt"
	"sync"
)

// Registry collects the notifiers enabled at startup, keyed by Name().
// NotificationService fans out to the registered set; registration order
// is preserved so delivery attempts are deterministic.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Notifier
	order  []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Notifier)}
}

// Add registers a notifier under its Name(). A duplicate name panics:
// two notifiers publishing under one name would double-send every toast.
func (r *Registry) Add(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := n.Name()
	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("notifier: duplicate registration for %q", name))
	}
	r.byName[name] = n
	r.order = append(r.order, name)
}

// Get returns the notifier registered under name.
func (r *Registry) Get(name string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("notifier: unknown provider %q", name)
	}
	return n, nil
}

// All returns the registered notifiers in registration order.
func (r *Registry) All() []Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Notifier, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the names of the registered notifiers in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}
