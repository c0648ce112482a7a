package scoring_test

import (
	"fmt"
	"testing"

	"github.com/okian/savra/internal/domain/aggregate"
	"github.com/okian/savra/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"
)

func profile(name string, assessments, lessons int) *aggregate.TeacherProfile {
	return &aggregate.TeacherProfile{
		TeacherName: name,
		Assessments: assessments,
		Lessons:     lessons,
		Grades:      aggregate.Set{"7": {}},
	}
}

func TestScorer(t *testing.T) {
	Convey("Given the default scorer", t, func() {
		s := scoring.NewScorer()

		Convey("When two teachers split the axes", func() {
			t1 := profile("T1", 10, 0)
			t2 := profile("T2", 5, 10)
			board := s.Leaderboard([]*aggregate.TeacherProfile{t2, t1})

			Convey("Then scores follow the weighted ratios", func() {
				So(board, ShouldHaveLength, 2)
				So(board[0].TeacherName, ShouldEqual, "T1")
				So(board[0].Score, ShouldEqual, 7.0)
				So(board[1].TeacherName, ShouldEqual, "T2")
				So(board[1].Score, ShouldEqual, 6.5)
				So(board[1].GradesTaught, ShouldResemble, []string{"7"})
			})

			Convey("Then Score agrees with the leaderboard", func() {
				So(s.Score(t2, []*aggregate.TeacherProfile{t1, t2}), ShouldEqual, 6.5)
			})
		})

		Convey("When the cohort has one teacher", func() {
			Convey("Then any activity scores 10", func() {
				So(s.Leaderboard([]*aggregate.TeacherProfile{profile("T1", 3, 0)})[0].Score, ShouldEqual, 10.0)
				So(s.Leaderboard([]*aggregate.TeacherProfile{profile("T1", 0, 4)})[0].Score, ShouldEqual, 10.0)
			})

			Convey("Then no scored activity scores 0", func() {
				So(s.Leaderboard([]*aggregate.TeacherProfile{profile("T1", 0, 0)})[0].Score, ShouldEqual, 0.0)
			})
		})

		Convey("When the cohort is empty", func() {
			board := s.Leaderboard(nil)

			Convey("Then the leaderboard is empty but not nil", func() {
				So(board, ShouldNotBeNil)
				So(board, ShouldBeEmpty)
			})
		})

		Convey("When scores tie", func() {
			board := s.Leaderboard([]*aggregate.TeacherProfile{
				profile("Zed", 2, 2), profile("Amy", 2, 2), profile("Kim", 1, 0),
			})

			Convey("Then names break the tie ascending", func() {
				So(board[0].TeacherName, ShouldEqual, "Amy")
				So(board[1].TeacherName, ShouldEqual, "Zed")
				So(board[2].TeacherName, ShouldEqual, "Kim")
				So(board[2].Score, ShouldEqual, 3.5)
			})
		})
	})

	Convey("Given custom weights", t, func() {
		s := scoring.NewScorer(scoring.WithWeights(1, 1))
		board := s.Leaderboard([]*aggregate.TeacherProfile{profile("A", 10, 0), profile("B", 0, 10)})

		Convey("Then weights are normalized by their sum", func() {
			So(board[0].Score, ShouldEqual, 5.0)
			So(board[1].Score, ShouldEqual, 5.0)
		})

		Convey("Then invalid weights are ignored", func() {
			a, l := scoring.NewScorer(scoring.WithWeights(-1, 2)).Weights()
			So(a, ShouldEqual, scoring.DefaultAssessmentWeight)
			So(l, ShouldEqual, scoring.DefaultLessonWeight)
			a, l = scoring.NewScorer(scoring.WithWeights(0, 0)).Weights()
			So(a, ShouldEqual, scoring.DefaultAssessmentWeight)
			So(l, ShouldEqual, scoring.DefaultLessonWeight)
		})
	})
}

func cohort() []*aggregate.TeacherProfile {
	var out []*aggregate.TeacherProfile
	for i := 0; i < 25; i++ {
		out = append(out, profile(fmt.Sprintf("T%02d", i), (i*7)%13, (i*5)%11))
	}
	return out
}

func TestScoreBoundsAndOrder(t *testing.T) {
	board := scoring.NewScorer().Leaderboard(cohort())
	require.Len(t, board, 25)
	for i, e := range board {
		require.GreaterOrEqual(t, e.Score, 0.0)
		require.LessOrEqual(t, e.Score, 10.0)
		if i > 0 {
			require.Negative(t, scoring.Compare(board[i-1], e), "entries %d and %d", i-1, i)
		}
	}
}

func TestScoreScaleInvariance(t *testing.T) {
	s := scoring.NewScorer()
	base := s.Leaderboard(cohort())

	scaled := cohort()
	for _, p := range scaled {
		p.Assessments *= 3
		p.Lessons *= 3
	}
	require.Equal(t, scores(base), scores(s.Leaderboard(scaled)))

	doubled := cohort()
	for _, p := range cohort() {
		p.TeacherName += "-copy"
		doubled = append(doubled, p)
	}
	for _, e := range s.Leaderboard(doubled) {
		require.Equal(t, scores(base)[trimCopy(e.TeacherName)], e.Score, e.TeacherName)
	}
}

func scores(board []scoring.Entry) map[string]float64 {
	out := make(map[string]float64, len(board))
	for _, e := range board {
		out[e.TeacherName] = e.Score
	}
	return out
}

func trimCopy(name string) string {
	if len(name) > 5 && name[len(name)-5:] == "-copy" {
		return name[:len(name)-5]
	}
	return name
}
