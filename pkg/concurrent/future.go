package concurrent

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Future holds the result of a single background computation. It is owned by
// whoever started it; the frame loop polls Ready and collects with Result,
// or blocks in Wait.
type Future[T any] struct {
	group  *errgroup.Group
	cancel context.CancelFunc
	ready  atomic.Bool

	once  sync.Once
	value T
	err   error
	done  chan struct{}
}

// Go starts build on a background goroutine. The context passed to build is
// canceled when ctx is canceled or Cancel is called.
func Go[T any](ctx context.Context, build func(context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	f := &Future[T]{
		group:  group,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	group.Go(func() error {
		value, err := build(gctx)
		if err == nil {
			f.value = value
		}
		return err
	})

	go func() {
		f.err = group.Wait()
		f.ready.Store(true)
		close(f.done)
		cancel()
	}()

	return f
}

// Resolved returns a Future that is already complete.
func Resolved[T any](value T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: value, cancel: func() {}}
	f.ready.Store(true)
	close(f.done)
	return f
}

// Ready reports whether the computation finished, successfully or not.
func (f *Future[T]) Ready() bool {
	return f.ready.Load()
}

// Done is closed once the computation finishes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the value and error. ok is false while the computation is
// still running.
func (f *Future[T]) Result() (value T, err error, ok bool) {
	if !f.Ready() {
		return value, nil, false
	}
	return f.value, f.err, true
}

// Wait blocks until the computation finishes or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel asks the computation to stop. Safe to call more than once.
func (f *Future[T]) Cancel() {
	f.once.Do(f.cancel)
}
