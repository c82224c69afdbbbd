package models

import (
	"errors"
	"iter"
	"sync/atomic"
)

// EntityID is an opaque handle issued by a Registry. Zero is never issued.
type EntityID uint64

var ErrUnknownEntity = errors.New("models: unknown entity")

// Detacher is implemented by every component store so Registry.Destroy can
// strip an entity from all of them.
type Detacher interface {
	Detach(EntityID) bool
}

// EntityRegistry is the narrow view of the entity store the physics core
// consumes: issue ids, destroy them, check liveness.
type EntityRegistry interface {
	Spawn() EntityID
	Destroy(EntityID) error
	Alive(EntityID) bool
	Entities() iter.Seq[EntityID]
}

var _ EntityRegistry = (*Registry)(nil)

// Registry issues entity ids and tracks the component stores attached to it.
// It is not safe for concurrent mutation; the frame loop is its single writer.
type Registry struct {
	next   atomic.Uint64
	alive  *Store[struct{}]
	stores []Detacher
}

func NewRegistry() *Registry {
	return &Registry{alive: NewStore[struct{}]()}
}

// Track registers a store to be cleaned up on Destroy.
func (r *Registry) Track(stores ...Detacher) {
	r.stores = append(r.stores, stores...)
}

func (r *Registry) Spawn() EntityID {
	id := EntityID(r.next.Add(1))
	r.alive.Attach(id, struct{}{})
	return id
}

func (r *Registry) Destroy(id EntityID) error {
	if !r.alive.Detach(id) {
		return ErrUnknownEntity
	}
	for _, s := range r.stores {
		s.Detach(id)
	}
	return nil
}

func (r *Registry) Alive(id EntityID) bool {
	return r.alive.Has(id)
}

func (r *Registry) Len() int {
	return r.alive.Len()
}

func (r *Registry) Entities() iter.Seq[EntityID] {
	return r.alive.IDs()
}
