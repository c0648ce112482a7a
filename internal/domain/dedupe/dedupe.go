// Package dedupe drops exact duplicate activity events by fingerprint.
package dedupe

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/savra/internal/domain/model"
)

// Deduper records seen fingerprints.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so it may be accepted again.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps fingerprints in a map. When maxSize > 0 the oldest
// fingerprint is evicted once the set is full; otherwise it grows unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int
}

// NewInMemoryDeduper creates an unbounded deduper unless WithMaxSize is given.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:  make(map[string]*list.Element),
		order: list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

// Unique returns events with exact duplicates removed, keeping the first
// occurrence, and the number dropped. Relative order is preserved.
func Unique(ctx context.Context, d Deduper, events []model.NormalizedEvent) ([]model.NormalizedEvent, int) {
	out := make([]model.NormalizedEvent, 0, len(events))
	for _, e := range events {
		if d.SeenAndRecord(ctx, e.Fingerprint()) {
			continue
		}
		out = append(out, e)
	}
	return out, len(events) - len(out)
}
