package models

import "iter"

var _ Detacher = (*Store[struct{}])(nil)

// Store holds one component type densely, keyed by entity. Iteration follows
// the dense order, which is insertion order until a Detach swaps the last
// element into the freed slot.
//
// Pointers returned by Get are valid until the next Attach or Detach.
type Store[T any] struct {
	index map[EntityID]int
	ids   []EntityID
	items []T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{index: make(map[EntityID]int)}
}

// Attach sets the component for id, replacing any previous value.
func (s *Store[T]) Attach(id EntityID, value T) {
	if i, ok := s.index[id]; ok {
		s.items[i] = value
		return
	}
	s.index[id] = len(s.items)
	s.ids = append(s.ids, id)
	s.items = append(s.items, value)
}

// Detach removes the component for id and reports whether it was present.
func (s *Store[T]) Detach(id EntityID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	if i != last {
		s.items[i] = s.items[last]
		s.ids[i] = s.ids[last]
		s.index[s.ids[i]] = i
	}
	var zero T
	s.items[last] = zero
	s.items = s.items[:last]
	s.ids = s.ids[:last]
	delete(s.index, id)
	return true
}

// Get returns a mutable pointer to id's component, or nil.
func (s *Store[T]) Get(id EntityID) *T {
	if i, ok := s.index[id]; ok {
		return &s.items[i]
	}
	return nil
}

// Value returns a copy of id's component.
func (s *Store[T]) Value(id EntityID) (T, bool) {
	if i, ok := s.index[id]; ok {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.items)
}

// All yields every entity with a mutable pointer to its component. The store
// must not be resized while iterating.
func (s *Store[T]) All() iter.Seq2[EntityID, *T] {
	return func(yield func(EntityID, *T) bool) {
		for i := range s.items {
			if !yield(s.ids[i], &s.items[i]) {
				return
			}
		}
	}
}

func (s *Store[T]) IDs() iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		for _, id := range s.ids {
			if !yield(id) {
				return
			}
		}
	}
}

// With narrows ids to those that also have a component in s.
func With[T any](ids iter.Seq[EntityID], s *Store[T]) iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		for id := range ids {
			if s.Has(id) && !yield(id) {
				return
			}
		}
	}
}
