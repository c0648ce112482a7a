// Package cache memoizes rendered report views per snapshot.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by a cache after Close.
var ErrClosed = errors.New("cache closed")

// DefaultTTL bounds how long a view outlives its snapshot.
const DefaultTTL = 10 * time.Minute

// Cache stores encoded views. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Close() error
}

// Key builds the cache key of view in snapshot.
func Key(snapshotID, view string) string {
	return "savra:report:" + snapshotID + ":" + view
}
