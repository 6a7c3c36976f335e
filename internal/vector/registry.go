package vector

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live collections by name. The persistent corpus and
// per-request scratch collections share one registry so name collisions
// are caught in one place.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{collections: make(map[string]*Collection)}
}

// Create registers a new collection. Fails with ErrDuplicateName if a
// live collection with the same name exists.
func (r *Registry) Create(name string, lifetime Lifetime) (*Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collections[name]; ok {
		return nil, fmt.Errorf("collection %q: %w", name, ErrDuplicateName)
	}
	c := newCollection(name, lifetime)
	r.collections[name] = c
	return c, nil
}

// Get returns the live collection with the given name.
func (r *Registry) Get(name string) (*Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	return c, nil
}

// Destroy releases the named collection. Idempotent: destroying an
// unknown or already-destroyed name is a no-op, so cleanup code can call
// it unconditionally.
func (r *Registry) Destroy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.collections, name)
}

// Len returns the number of live collections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.collections)
}

// AcquireEphemeral creates a request-scoped collection under a name that
// is unique to this call, so concurrent requests never share or destroy
// each other's scratch data. The returned release func destroys the
// collection and is safe to call more than once; callers should defer it
// immediately so the collection is released on every exit path.
func (r *Registry) AcquireEphemeral(prefix string) (*Collection, func()) {
	name := prefix + "-" + uuid.New().String()
	r.mu.Lock()
	// uuid collisions are not a practical concern, but the registry must
	// never silently overwrite a live collection.
	for {
		if _, ok := r.collections[name]; !ok {
			break
		}
		name = prefix + "-" + uuid.New().String()
	}
	c := newCollection(name, LifetimeEphemeral)
	r.collections[name] = c
	r.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() { r.Destroy(name) })
	}
	return c, release
}
