// Package queue buffers pushed activity records between the HTTP handler
// and the normalizing workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Item is one pushed record tagged with the request batch it came from.
type Item struct {
	BatchID string
	Index   int
	Record  model.ActivityRecord
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds one item. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, it Item) bool

	// EnqueueAll adds every item or none of them.
	EnqueueAll(ctx context.Context, items []Item) error

	// Dequeue returns a channel that yields items until the queue is closed.
	Dequeue(ctx context.Context) <-chan Item

	Len(ctx context.Context) int
	Cap() int

	// Close stops intake; queued items are still delivered.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int

	mu     sync.Mutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, it Item) bool { //nolint:gocritic // hugeParam: Item is passed by value for channel semantics
	return q.EnqueueAll(ctx, []Item{it}) == nil
}

// EnqueueAll implements Queue.EnqueueAll.
func (q *InMemoryQueue) EnqueueAll(ctx context.Context, items []Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.closed:
		metrics.RecordQueueEnqueueError("closed")
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	case ctx.Err() != nil:
		metrics.RecordQueueEnqueueError("context_cancelled")
		return ctx.Err()
	case len(q.items)+len(items) > q.capacity:
		metrics.RecordQueueEnqueueError("capacity_exceeded")
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return ErrFull
	}

	// Only this method sends, under mu, so the capacity check holds.
	for _, it := range items {
		q.items <- it
		metrics.RecordQueueEnqueue()
	}
	metrics.UpdateQueueSize(len(q.items))
	return nil
}

// Dequeue implements Queue.Dequeue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Item {
	out := make(chan Item)
	go func() {
		defer close(out)
		for it := range q.items {
			select {
			case out <- it:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.items))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Cap implements Queue.Cap.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close implements Queue.Close.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed implements Queue.IsClosed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
