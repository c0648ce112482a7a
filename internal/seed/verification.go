package seed

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/internal/domain/normalize"
	"github.com/okian/savra/internal/domain/types"
	"github.com/okian/savra/pkg/logger"
)

const pollInterval = 250 * time.Millisecond

// Expectation is what a seed run should add to the overall report.
type Expectation struct {
	Activities  int
	Lessons     int
	Quizzes     int
	Papers      int
	Assessments int
	Rejected    int
}

// Expect normalizes records locally and counts what the service should
// add. Assessments count only the assessment kind, matching the default
// assessment policy.
func Expect(records []model.ActivityRecord) Expectation {
	res := normalize.NormalizeBatch(records)
	exp := Expectation{Activities: len(res.Events), Rejected: res.Rejected()}
	for _, e := range res.Events {
		switch e.Kind {
		case model.KindLesson:
			exp.Lessons++
		case model.KindQuiz:
			exp.Quizzes++
		case model.KindQuestionPaper:
			exp.Papers++
		case model.KindAssessment:
			exp.Assessments++
		}
	}
	return exp
}

func getOverall(ctx context.Context, cfg *Config, client *HTTPClient) (types.OverallReport, error) {
	var o types.OverallReport
	if err := client.get(ctx, cfg.Prefix+"/overall", &o); err != nil {
		return o, fmt.Errorf("overall: %w", err)
	}
	return o, nil
}

// awaitDelta triggers a refresh and polls /overall until the activity
// total has grown by exp.Activities. Records already present from an
// earlier run with the same seed are duplicates and never arrive.
func awaitDelta(ctx context.Context, cfg *Config, client *HTTPClient, before types.OverallReport, exp Expectation) (types.OverallReport, error) {
	want := before.TotalActivities + exp.Activities
	for {
		if err := client.do(ctx, http.MethodPost, cfg.Prefix+"/refresh", nil, nil); err != nil {
			return types.OverallReport{}, fmt.Errorf("refresh: %w", err)
		}
		after, err := getOverall(ctx, cfg, client)
		if err != nil {
			return after, err
		}
		if after.TotalActivities >= want {
			if got := after.TotalActivities - before.TotalActivities; got != exp.Activities {
				return after, fmt.Errorf("activities grew by %d, expected %d", got, exp.Activities)
			}
			return after, nil
		}
		if cfg.Verbose {
			logger.Get().Debug(ctx, "waiting for records",
				logger.Int("have", after.TotalActivities-before.TotalActivities),
				logger.Int("want", exp.Activities))
		}
		select {
		case <-ctx.Done():
			return after, fmt.Errorf("activities grew by %d of %d before giving up (reused seed?): %w",
				after.TotalActivities-before.TotalActivities, exp.Activities, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// verifyTotals compares per-kind growth with the local expectation.
func verifyTotals(before, after types.OverallReport, exp Expectation) error {
	checks := []struct {
		name      string
		got, want int
	}{
		{"lessons", after.TotalLessons - before.TotalLessons, exp.Lessons},
		{"quizzes", after.TotalQuizzes - before.TotalQuizzes, exp.Quizzes},
		{"question papers", after.TotalQuestionPapers - before.TotalQuestionPapers, exp.Papers},
	}
	for _, c := range checks {
		if c.got != c.want {
			return fmt.Errorf("%s grew by %d, expected %d", c.name, c.got, c.want)
		}
	}
	return nil
}

// VerifyLeaderboard checks ordering and rank numbering: score
// descending, then name ascending, ranks 1..n.
func VerifyLeaderboard(board []Entry) error {
	for i, e := range board {
		if e.Rank != i+1 {
			return fmt.Errorf("entry %d (%s) has rank %d", i, e.TeacherName, e.Rank)
		}
		if e.Score < 0 || e.Score > 10 {
			return fmt.Errorf("%s scored %.2f, outside [0, 10]", e.TeacherName, e.Score)
		}
		if i == 0 {
			continue
		}
		prev := board[i-1]
		if c := cmp.Compare(e.Score, prev.Score); c > 0 || (c == 0 && e.TeacherName < prev.TeacherName) {
			return fmt.Errorf("%s (%.2f) is ranked below %s (%.2f)", e.TeacherName, e.Score, prev.TeacherName, prev.Score)
		}
	}
	return nil
}
