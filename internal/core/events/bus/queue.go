package bus

import "sync"

// Queue buffers typed messages between systems of a frame loop. Writers Send
// during a frame; the consuming system Drains them, usually on the next
// frame. A message is read by exactly one Drain.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	spare []T
	sent  uint64
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Send(items ...T) {
	q.mu.Lock()
	q.items = append(q.items, items...)
	q.sent += uint64(len(items))
	q.mu.Unlock()
}

// Drain returns everything sent since the last Drain and empties the queue.
// The returned slice is valid until the next Drain; copy it to keep it.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	clear(q.spare)
	q.items = q.spare[:0]
	q.spare = out
	return out
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Sent counts every message ever sent.
func (q *Queue[T]) Sent() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sent
}
