package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/savra/internal/domain/model"
)

func item(i int) Item {
	return Item{BatchID: "b", Index: i, Record: model.ActivityRecord{TeacherName: fmt.Sprintf("T%d", i)}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, item(1)) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Record.TeacherName != "T1" {
		t.Errorf("expected T1, got %v", got.Record.TeacherName)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, item(1)) || !q.Enqueue(ctx, item(2)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, item(3)) {
		t.Error("expected enqueue to fail when full")
	}
	if q.Cap() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Cap())
	}
}

func TestInMemoryQueue_EnqueueAllIsAtomic(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(3))
	ctx := context.Background()

	if err := q.EnqueueAll(ctx, []Item{item(1), item(2)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := q.EnqueueAll(ctx, []Item{item(3), item(4)})
	if !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("a refused batch must not be partially queued, length %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.EnqueueAll(ctx, []Item{item(1)}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	const producers, perProducer = 10, 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, item(p*perProducer+j)) {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}

	received := 0
	out := q.Dequeue(ctx)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		_ = q.Close()
		close(done)
	}()
	for range out {
		received++
	}
	<-done

	if received != producers*perProducer {
		t.Errorf("expected %d items, got %d", producers*perProducer, received)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if !q.Enqueue(ctx, item(1)) {
		t.Fatal("expected enqueue to succeed")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, item(2)) {
		t.Error("expected enqueue to fail after close")
	}

	n := 0
	for range q.Dequeue(ctx) {
		n++
	}
	if n != 1 {
		t.Errorf("queued items must drain after close, got %d", n)
	}
}
