package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/savra/internal/adapters/cache"
	"github.com/okian/savra/internal/adapters/http/api"
	"github.com/okian/savra/internal/adapters/http/site"
	"github.com/okian/savra/internal/adapters/http/swagger"
	"github.com/okian/savra/internal/adapters/source"
	"github.com/okian/savra/internal/config"
	"github.com/okian/savra/internal/domain/scoring"
	"github.com/okian/savra/pkg/logger"
)

// newSource builds the configured record store. The returned func
// releases its resources.
func newSource(ctx context.Context, cfg *config.Config) (source.Source, func(), error) {
	noop := func() {}
	switch cfg.SourceKind {
	case config.SourceNone, "":
		return source.Nop{}, noop, nil
	case config.SourceCSV:
		return source.NewCSV(cfg.SourcePath), noop, nil
	case config.SourceXLSX:
		return source.NewXLSX(cfg.SourcePath, source.WithSheet(cfg.SourceSheet)), noop, nil
	case config.SourcePostgres:
		pg, err := source.NewPostgres(ctx, cfg.DatabaseURL, source.WithTable(cfg.SourceTable))
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		return pg, pg.Close, nil
	}
	return nil, noop, fmt.Errorf("%w: unknown source_kind %q", config.ErrInvalidConfig, cfg.SourceKind)
}

// newCache returns Redis when redis_addr is set, otherwise an in-process cache.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cache.WithTTL(cfg.CacheTTL())), nil
	}
	r, err := cache.NewRedis(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.CacheTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Get().Info(ctx, "using redis report cache", logger.String("addr", cfg.RedisAddr))
	return r, nil
}

func newScorer(cfg *config.Config) *scoring.Scorer {
	return scoring.NewScorer(scoring.WithWeights(cfg.AssessmentWeight, cfg.LessonWeight))
}

// newHandler registers every route and wraps the mux with CORS.
func newHandler(ctx context.Context, cfg *config.Config, deps api.Dependencies) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	api.NewServer(deps,
		api.WithPrefix(cfg.APIPrefix),
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithLogger(logger.Get().Named("api")),
	).Register(ctx, mux)
	return api.CORS(mux)
}
