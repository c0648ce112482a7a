// Package service wires the record store, the ingest pipeline and the
// snapshot store into the operations served by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/savra/internal/adapters/cache"
	eventqueue "github.com/okian/savra/internal/adapters/mq/queue"
	workerpool "github.com/okian/savra/internal/adapters/mq/worker"
	"github.com/okian/savra/internal/adapters/repository"
	"github.com/okian/savra/internal/adapters/source"
	"github.com/okian/savra/internal/domain/aggregate"
	"github.com/okian/savra/internal/domain/dedupe"
	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/internal/domain/normalize"
	"github.com/okian/savra/internal/domain/report"
	"github.com/okian/savra/internal/domain/scoring"
	"github.com/okian/savra/internal/domain/types"
	"github.com/okian/savra/pkg/logger"
	"github.com/okian/savra/pkg/metrics"
)

var (
	// ErrBusy is returned when the ingest queue cannot take a whole batch.
	ErrBusy = errors.New("ingest queue is full")
	// ErrNotRunning is returned by Ingest before Start or after Shutdown.
	ErrNotRunning = errors.New("service is not running")
)

const (
	defaultFlushInterval = 500 * time.Millisecond
	defaultDedupeSize    = 500_000
)

// Service owns the current snapshot and every path that replaces it.
type Service struct {
	mu sync.RWMutex

	source source.Source
	store  repository.Store
	cache  cache.Cache
	scorer *scoring.Scorer
	policy model.KindSet

	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool
	pushSeen   dedupe.Deduper

	workerCount   int
	queueSize     int
	dedupeSize    int
	flushInterval time.Duration

	// buildMu serializes snapshot builds and guards the event sets below.
	buildMu       sync.Mutex
	base          []model.NormalizedEvent
	baseRejected  int
	sourceVersion string
	loaded        bool
	pushed        []model.NormalizedEvent

	pendingMu sync.Mutex
	pending   []model.NormalizedEvent

	pushRejected   atomic.Int64
	pushDuplicates atomic.Int64

	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the record store. Defaults to source.Nop.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithStore sets the snapshot store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCache sets the report cache. Defaults to an in-process cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithScorer sets the scorer.
func WithScorer(sc *scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithAssessmentPolicy sets which kinds count as assessments.
func WithAssessmentPolicy(p model.KindSet) Option {
	return func(s *Service) {
		if p != 0 {
			s.policy = p
		}
	}
}

// WithWorkerCount sets the number of ingest workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the ingest queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the duplicate filter for pushed records.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithFlushInterval sets how often accepted pushed records are published.
func WithFlushInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.flushInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		source:        source.Nop{},
		policy:        model.DefaultAssessmentKinds,
		workerCount:   runtime.NumCPU(),
		queueSize:     10_000,
		dedupeSize:    defaultDedupeSize,
		flushInterval: defaultFlushInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	if s.cache == nil {
		s.cache = cache.NewMemory()
	}
	if s.scorer == nil {
		s.scorer = scoring.NewScorer()
	}
	return s
}

// Start loads the record store once and starts the ingest pipeline.
// A failing initial load is returned; the service is not started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if _, err := s.reload(ctx, true); err != nil {
		return err
	}

	s.pushSeen = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s)
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.flushLoop(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "teacher insights service started",
		logger.String("source", s.source.Name()),
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Shutdown drains the ingest queue, publishes what is left and stops.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping teacher insights service...")

	var errs []error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	close(s.stopCh)
	<-s.doneCh
	if _, err := s.Flush(ctx); err != nil {
		errs = append(errs, err)
	}

	s.started = false
	s.logger.Info(ctx, "teacher insights service stopped")
	return errors.Join(errs...)
}

func (s *Service) flushLoop(ctx context.Context) {
	defer close(s.doneCh)
	t := time.NewTicker(s.flushInterval)
	defer t.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-t.C:
			if _, err := s.Flush(ctx); err != nil {
				s.logger.Error(ctx, "flush failed", logger.Error(err))
			}
		}
	}
}

// Accept implements worker.Sink.
func (s *Service) Accept(ctx context.Context, it eventqueue.Item, e model.NormalizedEvent) { //nolint:gocritic // hugeParam: mirrors the queue item
	if s.pushSeen.SeenAndRecord(ctx, e.Fingerprint()) {
		s.pushDuplicates.Add(1)
		metrics.RecordsDuplicate(1)
		s.logger.Debug(ctx, "duplicate record dropped",
			logger.String("batch", it.BatchID), logger.Int("index", it.Index))
		return
	}
	s.pendingMu.Lock()
	s.pending = append(s.pending, e)
	s.pendingMu.Unlock()
}

// Reject implements worker.Sink.
func (s *Service) Reject(ctx context.Context, it eventqueue.Item, err *normalize.ValidationError) { //nolint:gocritic // hugeParam: mirrors the queue item
	s.pushRejected.Add(1)
	s.logger.Debug(ctx, "record rejected",
		logger.String("batch", it.BatchID),
		logger.Int("index", it.Index),
		logger.String("field", err.Field),
		logger.String("reason", err.Reason),
	)
}

// Ingest queues a batch of raw records. The batch is taken whole or not
// at all; ErrBusy means nothing was queued.
func (s *Service) Ingest(ctx context.Context, records []model.ActivityRecord) (types.IngestResponse, error) {
	s.mu.RLock()
	q, started := s.eventQueue, s.started
	s.mu.RUnlock()
	if !started {
		return types.IngestResponse{}, ErrNotRunning
	}

	batchID := uuid.NewString()
	items := make([]eventqueue.Item, len(records))
	for i, r := range records {
		items[i] = eventqueue.Item{BatchID: batchID, Index: i, Record: r}
	}
	if err := q.EnqueueAll(ctx, items); err != nil {
		switch {
		case errors.Is(err, eventqueue.ErrFull):
			return types.IngestResponse{}, fmt.Errorf("%w: %d records", ErrBusy, len(records))
		case errors.Is(err, eventqueue.ErrClosed):
			return types.IngestResponse{}, ErrNotRunning
		}
		return types.IngestResponse{}, fmt.Errorf("enqueue batch: %w", err)
	}
	metrics.RecordsReceived("push", len(records))
	s.logger.Debug(ctx, "batch queued", logger.String("batch", batchID), logger.Int("records", len(records)))
	return types.IngestResponse{BatchID: batchID, Queued: len(records)}, nil
}

// Flush publishes accepted pushed records. It returns false when there
// was nothing to publish.
func (s *Service) Flush(ctx context.Context) (bool, error) {
	s.pendingMu.Lock()
	batch := s.pending
	s.pending = nil
	s.pendingMu.Unlock()
	if len(batch) == 0 {
		return false, nil
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	s.pushed = append(s.pushed, batch...)
	snap, err := s.rebuild(ctx)
	if err != nil {
		return false, err
	}
	s.logger.Info(ctx, "pushed records applied",
		logger.Int("accepted", len(batch)),
		logger.String("snapshot", snap.ID),
	)
	return true, nil
}

// Reload pulls the record store when its version changed.
func (s *Service) Reload(ctx context.Context) (types.ReloadResult, error) {
	return s.reload(ctx, false)
}

// Refresh publishes pending pushed records and reloads the record store
// even when its version is unchanged.
func (s *Service) Refresh(ctx context.Context) (types.ReloadResult, error) {
	if _, err := s.Flush(ctx); err != nil {
		return types.ReloadResult{}, err
	}
	return s.reload(ctx, true)
}

func (s *Service) reload(ctx context.Context, force bool) (types.ReloadResult, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	version, err := s.source.Version(ctx)
	if err != nil {
		metrics.RecordReload("error")
		metrics.RecordErrorByComponent("service", "source_version")
		return types.ReloadResult{}, fmt.Errorf("%s version: %w", s.source.Name(), err)
	}
	if !force && s.loaded && version == s.sourceVersion {
		metrics.RecordReload("unchanged")
		return types.ReloadResult{
			SnapshotID: s.store.Current(ctx).ID,
			Records:    len(s.base),
			Rejected:   s.baseRejected,
			Version:    version,
		}, nil
	}

	records, err := s.source.Load(ctx)
	if err != nil {
		metrics.RecordReload("error")
		metrics.RecordErrorByComponent("service", "source_load")
		return types.ReloadResult{}, fmt.Errorf("%s load: %w", s.source.Name(), err)
	}
	metrics.RecordsReceived("reload", len(records))

	batch := normalize.NormalizeBatch(records)
	for _, r := range batch.Rejections {
		metrics.RecordRejected(r.Err.Field)
		s.logger.Debug(ctx, "record rejected",
			logger.String("source", s.source.Name()),
			logger.Int("index", r.Index),
			logger.String("field", r.Err.Field),
			logger.String("reason", r.Err.Reason),
		)
	}

	s.base, s.baseRejected = batch.Events, batch.Rejected()
	s.sourceVersion, s.loaded = version, true

	snap, err := s.rebuild(ctx)
	if err != nil {
		metrics.RecordReload("error")
		return types.ReloadResult{}, err
	}
	metrics.RecordReload("ok")
	s.logger.Info(ctx, "record store loaded",
		logger.String("source", s.source.Name()),
		logger.String("version", version),
		logger.Int("accepted", len(batch.Events)),
		logger.Int("rejected", batch.Rejected()),
		logger.Int("duplicates", snap.Duplicates),
		logger.String("snapshot", snap.ID),
	)
	return types.ReloadResult{
		Changed:    true,
		SnapshotID: snap.ID,
		Records:    len(records),
		Rejected:   batch.Rejected(),
		Version:    version,
	}, nil
}

// rebuild publishes a snapshot over the base and pushed events.
// Callers hold buildMu.
func (s *Service) rebuild(ctx context.Context) (*repository.Snapshot, error) {
	start := time.Now()

	all := make([]model.NormalizedEvent, 0, len(s.base)+len(s.pushed))
	all = append(all, s.base...)
	all = append(all, s.pushed...)
	events, dups := dedupe.Unique(ctx, dedupe.NewInMemoryDeduper(), all)

	agg := aggregate.Aggregate(events, s.policy)
	board := s.scorer.Leaderboard(agg.Profiles())

	snap := repository.NewSnapshot(uuid.NewString(), events, agg, board)
	snap.SourceVersion = s.sourceVersion
	snap.Rejected = s.baseRejected
	snap.Duplicates = dups
	snap.BuildDuration = time.Since(start)

	if err := s.store.Publish(ctx, snap); err != nil {
		metrics.RecordErrorByComponent("service", "publish")
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}
	return snap, nil
}

// cached serves a report view through the cache keyed by snapshot id.
// Cache failures are counted and the view is recomputed.
func cached[T any](ctx context.Context, s *Service, label, view string, build func(*report.Builder) (T, error)) (T, error) {
	snap := s.store.Current(ctx)
	key := cache.Key(snap.ID, view)

	raw, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.RecordCacheError()
		s.logger.Warn(ctx, "report cache read failed", logger.String("key", key), logger.Error(err))
	case ok:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.RecordCacheHit(label)
			return v, nil
		}
		metrics.RecordCacheError()
	}
	metrics.RecordCacheMiss(label)

	v, err := build(snap.Report())
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		if err := s.cache.Set(ctx, key, raw); err != nil {
			metrics.RecordCacheError()
			s.logger.Warn(ctx, "report cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	return v, nil
}

// Grades returns every grade label in natural order.
func (s *Service) Grades(ctx context.Context) (types.GradesResponse, error) {
	return cached(ctx, s, "grades", "grades", func(b *report.Builder) (types.GradesResponse, error) {
		return b.Grades(), nil
	})
}

// GradeDetail returns the assessment breakdown of one grade.
func (s *Service) GradeDetail(ctx context.Context, grade string) (types.GradeDetail, error) {
	return cached(ctx, s, "grade", "grade:"+grade, func(b *report.Builder) (types.GradeDetail, error) {
		return b.GradeDetail(grade)
	})
}

// Teachers lists every teacher by name.
func (s *Service) Teachers(ctx context.Context) (types.TeachersResponse, error) {
	return cached(ctx, s, "teachers", "teachers", func(b *report.Builder) (types.TeachersResponse, error) {
		return b.Teachers(), nil
	})
}

// TeacherDetail returns one teacher's profile and score.
func (s *Service) TeacherDetail(ctx context.Context, name string) (types.TeacherDetail, error) {
	return cached(ctx, s, "teacher", "teacher:"+name, func(b *report.Builder) (types.TeacherDetail, error) {
		return b.TeacherDetail(name)
	})
}

// Leaderboard returns the first limit ranked teachers, or all when limit <= 0.
func (s *Service) Leaderboard(ctx context.Context, limit int) (types.LeaderboardResponse, error) {
	lb, err := cached(ctx, s, "leaderboard", "leaderboard", func(b *report.Builder) (types.LeaderboardResponse, error) {
		return types.LeaderboardResponse{Leaderboard: b.Leaderboard().Entries}, nil
	})
	if err != nil {
		return lb, err
	}
	if limit > 0 && limit < len(lb.Leaderboard) {
		lb.Leaderboard = lb.Leaderboard[:limit]
	}
	return lb, nil
}

// Overall returns the whole-school summary.
func (s *Service) Overall(ctx context.Context) (types.OverallReport, error) {
	return cached(ctx, s, "overall", "overall", func(b *report.Builder) (types.OverallReport, error) {
		return b.Overall(), nil
	})
}

// Rank returns one teacher's leaderboard entry. Names are trimmed the
// same way as for TeacherDetail.
func (s *Service) Rank(ctx context.Context, name string) (types.Entry, error) {
	return s.store.Rank(ctx, strings.TrimSpace(name))
}

// GetStats returns snapshot and ingestion counters for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	snap := s.store.Current(ctx)

	kinds := s.policy.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}

	st := types.Stats{
		SnapshotID:  snap.ID,
		BuiltAt:     snap.BuiltAt.Format(time.RFC3339),
		Events:      len(snap.Events),
		Teachers:    len(snap.Aggregates.Teachers),
		Grades:      len(snap.Aggregates.Grades),
		Rejected:    snap.Rejected + int(s.pushRejected.Load()),
		Duplicates:  snap.Duplicates + int(s.pushDuplicates.Load()),
		Source:      s.source.Name(),
		SourceVer:   snap.SourceVersion,
		Assessments: names,
	}

	s.buildMu.Lock()
	st.Pushed = len(s.pushed)
	s.buildMu.Unlock()

	s.mu.RLock()
	if s.started {
		st.QueueSize = s.eventQueue.Len(ctx)
		st.QueueCap = s.eventQueue.Cap()
	}
	s.mu.RUnlock()
	return st
}
