package specialist

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"

	"council-lab/domain/specialist"
	"council-lab/errors"
)

// Registry is the in-process pool of handlers, keyed by identifier.
type Registry struct {
	mu       sync.RWMutex
	handlers map[specialist.ID]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[specialist.ID]Handler),
	}
}

// Register integrates a handler into the pool, replacing any previous
// handler carrying the same identifier.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.ID()] = h
}

func (r *Registry) Has(id specialist.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[id]
	return ok
}

// HandlerFor resolves one identifier, failing fast on anything the
// pool doesn't know.
func (r *Registry) HandlerFor(id specialist.ID) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownSpecialist, id)
	}
	return h, nil
}

// IDs lists the registered identifiers in a stable order.
func (r *Registry) IDs() []specialist.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := lo.Keys(r.handlers)
	slices.Sort(ids)
	return ids
}
