package notifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/gfranco/carteira/internal/core"
)

// Registry manages delivery channel instances
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Notifier
}

// NewRegistry creates a new delivery registry
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]Notifier),
	}
}

// Register adds a channel to the registry
func (r *Registry) Register(n Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := n.Name()
	if _, exists := r.channels[name]; exists {
		return fmt.Errorf("notifier %s already registered", name)
	}

	r.channels[name] = n
	return nil
}

// Get retrieves a channel by name
func (r *Registry) Get(name string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, exists := r.channels[name]
	if !exists {
		return nil, fmt.Errorf("notifier %s not found", name)
	}
	return n, nil
}

// GetAll returns all registered channels
func (r *Registry) GetAll() []Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Notifier, 0, len(r.channels))
	for _, n := range r.channels {
		result = append(result, n)
	}
	return result
}

// DeliverAll pushes the report to every registered channel. Channels are
// independent; one failing never stops the others. The returned map holds
// only the failures.
func (r *Registry) DeliverAll(ctx context.Context, d core.Delivery) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	errors := make(map[string]error)
	for name, n := range r.channels {
		if err := n.Deliver(ctx, d); err != nil {
			errors[name] = err
		}
	}
	return errors
}
