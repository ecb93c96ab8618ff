// Package queue is a bounded in-memory job queue feeding the worker pool.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/motorgen/pkg/metrics"
)

const defaultCapacity = 1024

// Job is one unit of work. Index is the job's position in the batch so
// results can be written back in input order.
type Job[T any] struct {
	Index int
	Item  T
}

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue[T any] interface {
	// Enqueue adds a job. It fails with ErrFull or ErrClosed instead of
	// blocking.
	Enqueue(ctx context.Context, j Job[T]) error

	// Dequeue returns the channel jobs are delivered on. It is closed
	// after Close once drained.
	Dequeue(ctx context.Context) <-chan Job[T]

	// Len returns the number of queued jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	jobs   chan Job[T]
	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue holding at most the configured
// capacity (1024 by default).
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	st := settings{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&st)
	}
	metrics.UpdateQueueDepth(0)
	return &InMemoryQueue[T]{jobs: make(chan Job[T], st.capacity)}
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, j Job[T]) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue job %d: %w", j.Index, ctx.Err())
	default:
	}
	select {
	case q.jobs <- j:
		metrics.UpdateQueueDepth(len(q.jobs))
		return nil
	default:
		return fmt.Errorf("%w: job %d", ErrFull, j.Index)
	}
}

// Dequeue implements Queue.Dequeue.
func (q *InMemoryQueue[T]) Dequeue(ctx context.Context) <-chan Job[T] {
	return q.jobs
}

// Len implements Queue.Len.
func (q *InMemoryQueue[T]) Len(ctx context.Context) int {
	n := len(q.jobs)
	metrics.UpdateQueueDepth(n)
	return n
}

// Close implements Queue.Close. It is safe to call more than once.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
