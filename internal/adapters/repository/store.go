// Package repository holds the current immutable analytics snapshot.
package repository

import (
	"context"
	"time"

	"github.com/okian/savra/internal/domain/aggregate"
	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/internal/domain/report"
	"github.com/okian/savra/internal/domain/scoring"
	"github.com/okian/savra/internal/domain/types"
)

// Snapshot is one fully built, never mutated view of the event set.
type Snapshot struct {
	ID            string
	BuiltAt       time.Time
	BuildDuration time.Duration
	SourceVersion string

	Events      []model.NormalizedEvent
	Aggregates  *aggregate.Aggregates
	Leaderboard []scoring.Entry

	// Ingestion counters for the records that produced this snapshot.
	Rejected   int
	Duplicates int

	report *report.Builder
}

// NewSnapshot wires the report builder for agg and board.
func NewSnapshot(id string, events []model.NormalizedEvent, agg *aggregate.Aggregates, board []scoring.Entry) *Snapshot {
	if agg == nil {
		agg = aggregate.New(0)
	}
	if board == nil {
		board = []scoring.Entry{}
	}
	return &Snapshot{
		ID:          id,
		BuiltAt:     time.Now().UTC(),
		Events:      events,
		Aggregates:  agg,
		Leaderboard: board,
		report:      report.NewBuilder(agg, board),
	}
}

// Report returns the view builder over this snapshot.
func (s *Snapshot) Report() *report.Builder {
	return s.report
}

// Store provides read access to the current snapshot and atomic replacement.
type Store interface {
	// Current returns the latest published snapshot. It is never nil.
	Current(ctx context.Context) *Snapshot

	// Publish atomically replaces the current snapshot.
	Publish(ctx context.Context, s *Snapshot) error

	// Rank returns a teacher's leaderboard row.
	// Returns ErrNotFound if the teacher is unknown.
	Rank(ctx context.Context, teacherName string) (types.Entry, error)

	// TopN returns the first n leaderboard rows.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of teachers in the current snapshot.
	Count(ctx context.Context) int
}
