package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/savra/pkg/logger"
)

// Run generates records and, when BaseURL is set, replays them against
// the service and verifies the reports it serves.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}

	records, err := Generate(ctx, cfg)
	if err != nil {
		return fmt.Errorf("record generation failed: %w", err)
	}
	stats.RecordsGenerated = len(records)

	if cfg.OutputCSV != "" {
		if err := WriteCSV(cfg.OutputCSV, records); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		logger.Get().Info(ctx, "records written", logger.String("path", cfg.OutputCSV), logger.Int("records", len(records)))
	}
	if cfg.BaseURL == "" {
		return nil
	}

	logger.Get().Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("prefix", cfg.Prefix),
		logger.Int("records", cfg.Records),
		logger.Int("teachers", cfg.Teachers),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()))

	client := newHTTPClient(cfg)
	if err := client.get(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	before, err := getOverall(ctx, cfg, client)
	if err != nil {
		return err
	}
	if err := submitRecords(ctx, cfg, client, records, stats); err != nil {
		return fmt.Errorf("record submission failed: %w", err)
	}

	exp := Expect(records)
	after, err := awaitDelta(ctx, cfg, client, before, exp)
	if err != nil {
		return fmt.Errorf("records never settled: %w", err)
	}
	if err := verifyTotals(before, after, exp); err != nil {
		return fmt.Errorf("totals disagree: %w", err)
	}

	board, err := getLeaderboard(ctx, cfg, client)
	if err != nil {
		return err
	}
	if err := VerifyLeaderboard(board); err != nil {
		return fmt.Errorf("leaderboard out of order: %w", err)
	}
	if err := checkRanks(ctx, cfg, client, records, board, stats); err != nil {
		return err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats, board)
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats, board []Entry) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.RecordsQueued) / stats.Duration.Seconds()
	}
	fields := []logger.Field{
		logger.Int("recordsGenerated", stats.RecordsGenerated),
		logger.Int("recordsQueued", stats.RecordsQueued),
		logger.Int("batchesSent", stats.BatchesSent),
		logger.Int("batchesRetried", stats.BatchesRetried),
		logger.Int("ranksChecked", stats.RanksChecked),
		logger.Int("leaderboardEntries", len(board)),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("recordsPerSecond", perSecond),
	}
	if len(board) > 0 {
		fields = append(fields, logger.String("topTeacher", board[0].TeacherName), logger.Float64("topScore", board[0].Score))
	}
	logger.Get().Info(ctx, "seed run completed", fields...)
}
