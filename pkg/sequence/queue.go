package sequence

import "sync"

// Queue is an unbounded FIFO safe for concurrent producers. Consumers take everything
// queued so far with Drain.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Push(values ...T) {
	q.mu.Lock()
	q.items = append(q.items, values...)
	q.mu.Unlock()
}

// Drain removes and returns every queued value in push order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
