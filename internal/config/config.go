// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/savra/internal/domain/model"
)

// Source kinds.
const (
	SourceNone     = "none"
	SourceCSV      = "csv"
	SourceXLSX     = "xlsx"
	SourcePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`
	// APIPrefix is prepended to every report route.
	APIPrefix string `koanf:"api_prefix"`

	// EventQueueSize bounds the in-memory queue of pushed records.
	EventQueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of normalizing workers.
	WorkerCount int `koanf:"worker_count"`
	// FlushIntervalMS is how often accepted pushed events are folded into a new snapshot.
	FlushIntervalMS int `koanf:"flush_interval_ms"`
	// DedupeSize bounds the fingerprints remembered for pushed records.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// SourceKind selects the record store: none, csv, xlsx or postgres.
	SourceKind  string `koanf:"source_kind"`
	SourcePath  string `koanf:"source_path"`
	SourceSheet string `koanf:"source_sheet"`
	DatabaseURL string `koanf:"database_url"`
	SourceTable string `koanf:"source_table"`
	// RefreshCron schedules source reloads. Empty disables them.
	RefreshCron string `koanf:"refresh_cron"`

	// RedisAddr enables the shared report cache when set.
	RedisAddr       string `koanf:"redis_addr"`
	RedisPassword   string `koanf:"redis_password"`
	RedisDB         int    `koanf:"redis_db"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`

	// AssessmentKinds names the kinds counted as assessments.
	AssessmentKinds  []string `koanf:"assessment_kinds"`
	AssessmentWeight float64  `koanf:"assessment_weight"`
	LessonWeight     float64  `koanf:"lesson_weight"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":8000",
		APIPrefix:           "/api",
		EventQueueSize:      10_000,
		WorkerCount:         runtime.NumCPU(),
		FlushIntervalMS:     500,
		DedupeSize:          500_000,
		MaxLeaderboardLimit: 100,
		SourceKind:          SourceNone,
		SourceTable:         "teacher_activities",
		RefreshCron:         "@every 5m",
		CacheTTLSeconds:     600,
		AssessmentKinds:     []string{"assessment"},
		AssessmentWeight:    0.7,
		LessonWeight:        0.3,
	}
}

// FlushInterval returns FlushIntervalMS as a duration.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMS) * time.Millisecond
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// AssessmentPolicy parses AssessmentKinds.
func (c *Config) AssessmentPolicy() (model.KindSet, error) {
	var kinds []model.ActivityKind
	for _, name := range c.AssessmentKinds {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		k, ok := model.ParseKind(name)
		if !ok {
			return 0, fmt.Errorf("%w: unknown assessment kind %q", ErrInvalidConfig, name)
		}
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return 0, fmt.Errorf("%w: assessment_kinds must name at least one kind", ErrInvalidConfig)
	}
	return model.NewKindSet(kinds...), nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("%w: api_prefix must start with /", ErrInvalidConfig)
	}
	switch c.SourceKind {
	case SourceNone:
	case SourceCSV, SourceXLSX:
		if c.SourcePath == "" {
			return fmt.Errorf("%w: source_path is required for %s", ErrInvalidConfig, c.SourceKind)
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source_kind %q", ErrInvalidConfig, c.SourceKind)
	}
	if c.AssessmentWeight < 0 || c.LessonWeight < 0 || c.AssessmentWeight+c.LessonWeight <= 0 {
		return fmt.Errorf("%w: weights must be non-negative with a positive sum", ErrInvalidConfig)
	}
	if c.EventQueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.FlushIntervalMS <= 0 {
		return fmt.Errorf("%w: flush_interval_ms must be positive", ErrInvalidConfig)
	}
	if c.MaxLeaderboardLimit <= 0 {
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	_, err := c.AssessmentPolicy()
	return err
}
