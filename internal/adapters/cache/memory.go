package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 1024

type memEntry struct {
	key     string
	val     []byte
	expires time.Time
}

// Memory is an in-process cache with TTL and oldest-first eviction.
type Memory struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List // front = oldest
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	closed     bool
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithMaxEntries bounds the number of entries.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an in-process cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		ttl:        DefaultTTL,
		maxEntries: defaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	el, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*memEntry)
	if !m.now().Before(e.expires) {
		m.order.Remove(el)
		delete(m.items, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if el, ok := m.items[key]; ok {
		m.order.Remove(el)
		delete(m.items, key)
	}
	for len(m.items) >= m.maxEntries {
		oldest := m.order.Front()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*memEntry).key)
	}
	m.items[key] = m.order.PushBack(&memEntry{key: key, val: val, expires: m.now().Add(m.ttl)})
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.items = map[string]*list.Element{}
	m.order.Init()
	return nil
}
