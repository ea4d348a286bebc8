package transaction

import (
	"fmt"
	"sync"

	"heapstore/pkg/primitives"
)

// Registry holds the contexts of the transactions that have not ended yet.
type Registry struct {
	contexts map[*primitives.TransactionID]*Context
	mutex    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		contexts: make(map[*primitives.TransactionID]*Context),
	}
}

// Begin creates and registers a new transaction.
func (r *Registry) Begin() *Context {
	ctx := NewContext(primitives.NewTransactionID())

	r.mutex.Lock()
	r.contexts[ctx.ID] = ctx
	r.mutex.Unlock()

	return ctx
}

func (r *Registry) Get(tid *primitives.TransactionID) (*Context, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ctx, exists := r.contexts[tid]
	if !exists {
		return nil, fmt.Errorf("transaction %s not found", tid)
	}
	return ctx, nil
}

// GetOrCreate returns the context of tid, registering one for transaction
// ids created outside the registry.
func (r *Registry) GetOrCreate(tid *primitives.TransactionID) *Context {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if ctx, exists := r.contexts[tid]; exists {
		return ctx
	}
	ctx := NewContext(tid)
	r.contexts[tid] = ctx
	return ctx
}

// Finish sets the final status of tid and drops it from the registry. It
// returns the context, or nil when tid was not registered.
func (r *Registry) Finish(tid *primitives.TransactionID, status Status) *Context {
	r.mutex.Lock()
	ctx, exists := r.contexts[tid]
	delete(r.contexts, tid)
	r.mutex.Unlock()

	if !exists {
		return nil
	}
	ctx.SetStatus(status)
	return ctx
}

// Active returns the transactions still in the Active state.
func (r *Registry) Active() []*Context {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	active := make([]*Context, 0, len(r.contexts))
	for _, ctx := range r.contexts {
		if ctx.IsActive() {
			active = append(active, ctx)
		}
	}
	return active
}

func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.contexts)
}
