// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/savra/internal/adapters/repository"
	service "github.com/okian/savra/internal/app"
	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/internal/domain/report"
	"github.com/okian/savra/internal/domain/types"
	"github.com/okian/savra/pkg/logger"
)

const (
	defaultPrefix   = "/api"
	defaultMaxLimit = 100
)

// Reports serves the read-only views of the current snapshot.
type Reports interface {
	Grades(ctx context.Context) (types.GradesResponse, error)
	GradeDetail(ctx context.Context, grade string) (types.GradeDetail, error)
	Teachers(ctx context.Context) (types.TeachersResponse, error)
	TeacherDetail(ctx context.Context, name string) (types.TeacherDetail, error)
	Leaderboard(ctx context.Context, limit int) (types.LeaderboardResponse, error)
	Overall(ctx context.Context) (types.OverallReport, error)
	Rank(ctx context.Context, name string) (types.Entry, error)
}

// Ingestor accepts pushed records and record store refreshes.
type Ingestor interface {
	Ingest(ctx context.Context, records []model.ActivityRecord) (types.IngestResponse, error)
	Refresh(ctx context.Context) (types.ReloadResult, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) types.Stats
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Reports
	Ingestor
	StatsProvider
}

// Option configures a Server.
type Option func(*Server)

// WithPrefix mounts the data routes under prefix.
func WithPrefix(prefix string) Option {
	return func(s *Server) {
		s.prefix = prefix
	}
}

// WithMaxLimit caps ?limit on the leaderboard.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	prefix   string
	maxLimit int
	logger   logger.Logger

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	recordsHandler     *RecordsHandler
	reportsHandler     *ReportsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{prefix: defaultPrefix, maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.recordsHandler = NewRecordsHandler(deps, s.logger)
	s.reportsHandler = NewReportsHandler(deps)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.rankHandler = NewRankHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	p := s.prefix
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))

	mux.HandleFunc("GET "+p+"/grades", MetricsMiddleware(s.reportsHandler.HandleGrades, "grades"))
	mux.HandleFunc("GET "+p+"/grade/{grade}", MetricsMiddleware(s.reportsHandler.HandleGrade, "grade"))
	mux.HandleFunc("GET "+p+"/teachers", MetricsMiddleware(s.reportsHandler.HandleTeachers, "teachers"))
	mux.HandleFunc("GET "+p+"/teacher/{name}", MetricsMiddleware(s.reportsHandler.HandleTeacher, "teacher"))
	mux.HandleFunc("GET "+p+"/overall", MetricsMiddleware(s.reportsHandler.HandleOverall, "overall"))
	mux.HandleFunc("GET "+p+"/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET "+p+"/rank/{name}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("GET "+p+"/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST "+p+"/records", MetricsMiddleware(s.recordsHandler.HandlePostRecords, "records"))
	mux.HandleFunc("POST "+p+"/refresh", MetricsMiddleware(s.recordsHandler.HandleRefresh, "refresh"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps upstream errors onto status codes.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrBusy):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotRunning):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, report.ErrGradeNotFound) ||
		errors.Is(err, report.ErrTeacherNotFound) ||
		errors.Is(err, repository.ErrNotFound)
}
