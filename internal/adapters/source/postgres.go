package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/savra/internal/domain/model"
)

const defaultTable = "teacher_activities"

// Postgres reads records from a table with columns teacher_id, teacher_name,
// grade, subject, activity_type and created_at.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// PostgresOption configures a Postgres source.
type PostgresOption func(*Postgres)

// WithTable sets the activity table name. It may be schema qualified.
func WithTable(table string) PostgresOption {
	return func(p *Postgres) {
		if table != "" {
			p.table = table
		}
	}
}

// NewPostgres connects a pool to databaseURL and verifies it.
func NewPostgres(ctx context.Context, databaseURL string, opts ...PostgresOption) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse database URL: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 4
	}
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}
	return NewPostgresFromPool(pool, opts...), nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool *pgxpool.Pool, opts ...PostgresOption) *Postgres {
	p := &Postgres{pool: pool, table: defaultTable}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Postgres) Name() string { return "postgres" }

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) ident() string {
	return pgx.Identifier(splitQualified(p.table)).Sanitize()
}

// Version changes when rows are added or removed.
func (p *Postgres) Version(ctx context.Context) (string, error) {
	q := fmt.Sprintf(`SELECT count(*)::text || ':' || coalesce(max(created_at)::text, '') FROM %s`, p.ident())
	var v string
	if err := p.pool.QueryRow(ctx, q).Scan(&v); err != nil {
		return "", fmt.Errorf("postgres: version: %w", err)
	}
	return v, nil
}

// Load reads every row as text so validation stays in one place.
func (p *Postgres) Load(ctx context.Context) ([]model.ActivityRecord, error) {
	q := fmt.Sprintf(`SELECT
		coalesce(teacher_id::text, ''),
		coalesce(teacher_name::text, ''),
		coalesce(grade::text, ''),
		coalesce(subject::text, ''),
		coalesce(activity_type::text, ''),
		coalesce(created_at::text, '')
	FROM %s`, p.ident())

	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres: load: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ActivityRecord, error) {
		var r model.ActivityRecord
		err := row.Scan(&r.TeacherID, &r.TeacherName, &r.Grade, &r.Subject, &r.ActivityType, &r.OccurredOn)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan: %w", err)
	}
	return out, nil
}

func splitQualified(name string) []string {
	return strings.SplitN(name, ".", 2)
}
