package generic

import (
	"sync"
	"sync/atomic"
)

// Pool hands out reusable values of type T. A reset hook, when present,
// scrubs each value as it comes back so the next Get sees it clean.
type Pool[T any] struct {
	inner     sync.Pool
	reset     func(T) T
	allocated atomic.Int64
}

func NewPool[T any](generate func() T) *Pool[T] {
	return NewResetPool(generate, nil)
}

// NewResetPool builds a Pool whose Put runs reset before storing the value.
func NewResetPool[T any](generate func() T, reset func(T) T) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.inner.New = func() any {
		p.allocated.Add(1)
		return generate()
	}
	return p
}

func (p *Pool[T]) Get() T {
	return p.inner.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	if p.reset != nil {
		value = p.reset(value)
	}
	p.inner.Put(value)
}

// Allocated counts values created because the pool was empty.
func (p *Pool[T]) Allocated() int64 {
	return p.allocated.Load()
}
