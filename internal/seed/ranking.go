package seed

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/internal/domain/types"
	"github.com/okian/savra/pkg/logger"
)

// getLeaderboard retrieves the whole ranked cohort.
func getLeaderboard(ctx context.Context, cfg *Config, client *HTTPClient) ([]Entry, error) {
	var lb types.LeaderboardResponse
	if err := client.get(ctx, cfg.Prefix+"/leaderboard", &lb); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return lb.Leaderboard, nil
}

// checkRanks fetches GET /rank/{name} for every generated teacher and
// compares it with the leaderboard row of the same teacher.
func checkRanks(ctx context.Context, cfg *Config, client *HTTPClient, records []model.ActivityRecord, board []Entry, stats *Stats) error {
	names := teacherNames(records)
	byName := make(map[string]Entry, len(board))
	for _, e := range board {
		byName[e.TeacherName] = e
	}
	logger.Get().Info(ctx, "checking ranks", logger.Int("teachers", len(names)), logger.Int("workers", cfg.Workers))

	var checked, mismatched int64
	work := make(chan string, cfg.Workers*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range work {
				var got Entry
				err := client.get(ctx, cfg.Prefix+"/rank/"+url.PathEscape(name), &got)
				atomic.AddInt64(&checked, 1)
				want, ok := byName[name]
				if err != nil || !ok || got.Rank != want.Rank || got.Score != want.Score {
					atomic.AddInt64(&mismatched, 1)
					logger.Get().Warn(ctx, "rank mismatch",
						logger.String("teacher", name),
						logger.Int("rank", got.Rank),
						logger.Int("leaderboard_rank", want.Rank),
						logger.Error(err))
				}
			}
		}()
	}
	for _, n := range names {
		work <- n
	}
	close(work)
	wg.Wait()

	stats.RanksChecked = int(checked)
	stats.RankMismatches = int(mismatched)
	if mismatched > 0 {
		return fmt.Errorf("%d of %d ranks disagree with the leaderboard", mismatched, checked)
	}
	return nil
}

func teacherNames(records []model.ActivityRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.TeacherName] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
