package repository

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/okian/savra/internal/domain/types"
	"github.com/okian/savra/pkg/metrics"
)

// SnapshotStore publishes whole snapshots behind an atomic pointer.
// Readers load the pointer once per request and never see partial state.
type SnapshotStore struct {
	snapshot atomic.Pointer[Snapshot]

	initial *Snapshot
	emptyID string
}

// NewSnapshotStore creates a store holding an empty snapshot.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{emptyID: "empty"}
	for _, opt := range opts {
		opt(s)
	}
	if s.initial == nil {
		s.initial = NewSnapshot(s.emptyID, nil, nil, nil)
	}
	s.snapshot.Store(s.initial)
	s.initial = nil
	return s
}

// Current implements Store.Current.
func (s *SnapshotStore) Current(_ context.Context) *Snapshot {
	return s.snapshot.Load()
}

// Publish implements Store.Publish.
func (s *SnapshotStore) Publish(_ context.Context, snap *Snapshot) error {
	if snap == nil || snap.report == nil {
		return ErrNilSnapshot
	}
	s.snapshot.Store(snap)

	metrics.RecordSnapshot(
		float64(snap.BuildDuration.Microseconds())/1000,
		len(snap.Events), len(snap.Aggregates.Teachers), len(snap.Aggregates.Grades),
	)
	metrics.RecordSnapshotDuplicates(snap.Duplicates)
	return nil
}

// Rank implements Store.Rank.
func (s *SnapshotStore) Rank(ctx context.Context, teacherName string) (types.Entry, error) {
	for _, e := range s.Current(ctx).Report().Leaderboard().Entries {
		if e.TeacherName == teacherName {
			return e, nil
		}
	}
	return types.Entry{}, fmt.Errorf("%w: %q", ErrNotFound, teacherName)
}

// TopN implements Store.TopN. n must be positive.
func (s *SnapshotStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	entries := s.Current(ctx).Report().Leaderboard().Entries
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

// Count implements Store.Count.
func (s *SnapshotStore) Count(ctx context.Context) int {
	return len(s.Current(ctx).Aggregates.Teachers)
}
