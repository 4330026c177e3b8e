// internal/domain/cart/registry.go
package cart

import (
	"context"
	"sync"
)

// Registry keeps one Store per customer code so that concurrent requests
// for the same customer share state and mutation ordering. Stores are not
// bound to an employee; callers mark the acting employee with WithEmployee.
type Registry struct {
	build func(SessionProvider) *Store

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	store  *Store
	loaded sync.Once
}

// NewRegistry creates a registry. build is called once per customer with a
// session fixed to that customer.
func NewRegistry(build func(SessionProvider) *Store) *Registry {
	return &Registry{
		build:   build,
		entries: make(map[string]*registryEntry),
	}
}

// For returns the customer's store, creating and loading it on first use.
// Callers racing the first load wait for it to finish.
func (r *Registry) For(ctx context.Context, session SessionProvider) (*Store, error) {
	id, err := session.Identity(ctx)
	if err != nil || id.CustomerCode == "" {
		return nil, ErrUserDataMissing
	}

	r.mu.Lock()
	entry, ok := r.entries[id.CustomerCode]
	if !ok {
		entry = &registryEntry{
			store: r.build(StaticSession{CustomerCode: id.CustomerCode}),
		}
		r.entries[id.CustomerCode] = entry
	}
	r.mu.Unlock()

	entry.loaded.Do(func() {
		entry.store.Load(ctx)
	})
	return entry.store, nil
}

// Forget drops the customer's store; the next For reloads from the backend
func (r *Registry) Forget(customerCode string) {
	r.mu.Lock()
	delete(r.entries, customerCode)
	r.mu.Unlock()
}

// Len returns the number of cached stores
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
