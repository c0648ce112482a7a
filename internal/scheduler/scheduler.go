// Package scheduler runs periodic jobs on cron specs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/savra/pkg/logger"
)

const defaultJobTimeout = 2 * time.Minute

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler wraps a cron engine. Overlapping runs of a job are skipped.
type Scheduler struct {
	engine     *cron.Cron
	logger     logger.Logger
	jobTimeout time.Duration
}

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithJobTimeout bounds each job run.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// New creates a stopped scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:     logger.Get().Named("scheduler"),
		jobTimeout: defaultJobTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger), cron.Recover(cron.DiscardLogger)),
	)
	return s
}

// Add registers job under name on spec. Specs accept five fields or
// descriptors like "@every 5m".
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.engine.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error(ctx, "scheduled job failed", logger.String("job", name), logger.Error(err))
			return
		}
		s.logger.Debug(ctx, "scheduled job done",
			logger.String("job", name),
			logger.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
		)
	})
	if err != nil {
		return fmt.Errorf("schedule %s on %q: %w", name, spec, err)
	}
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int { return len(s.engine.Entries()) }

// Start runs the engine in its own goroutine.
func (s *Scheduler) Start() { s.engine.Start() }

// Stop stops scheduling and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.engine.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
