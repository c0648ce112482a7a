package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	service "github.com/okian/savra/internal/app"
	"github.com/okian/savra/internal/config"
	"github.com/okian/savra/internal/scheduler"
	"github.com/okian/savra/pkg/logger"
	"github.com/okian/savra/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	reloadJobTimeout          = 2 * time.Minute
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "savra exited", logger.Error(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then shuts everything down in reverse order.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	policy, err := cfg.AssessmentPolicy()
	if err != nil {
		return err
	}
	src, closeSource, err := newSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	reportCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = reportCache.Close() }()

	svc := service.New(
		service.WithLogger(log.Named("service")),
		service.WithSource(src),
		service.WithCache(reportCache),
		service.WithScorer(newScorer(cfg)),
		service.WithAssessmentPolicy(policy),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.EventQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithFlushInterval(cfg.FlushInterval()),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	sched := scheduler.New(scheduler.WithLogger(log.Named("scheduler")), scheduler.WithJobTimeout(reloadJobTimeout))
	if cfg.RefreshCron != "" {
		if err := sched.Add("reload", cfg.RefreshCron, func(ctx context.Context) error {
			_, err := svc.Reload(ctx)
			return err
		}); err != nil {
			_ = svc.Shutdown(context.WithoutCancel(ctx))
			return err
		}
	}
	sched.Start()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	log.Info(ctx, "server stopped")
	return errors.Join(append([]error{runErr}, errs...)...)
}

func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.SystemRefresh())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
