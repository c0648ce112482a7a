// Package scoring computes relative 0-10 teacher scores and leaderboard order.
package scoring

import (
	"cmp"
	"math"
	"slices"

	"github.com/okian/savra/internal/domain/aggregate"
)

// Default weights. Assessments dominate, lessons contribute a smaller share.
const (
	DefaultAssessmentWeight = 0.7
	DefaultLessonWeight     = 0.3

	MaxScore = 10.0
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights sets the assessment and lesson weights. Negative weights and
// a zero sum are ignored. Weights are normalized by their sum.
func WithWeights(assessment, lesson float64) Option {
	return func(s *Scorer) {
		if assessment < 0 || lesson < 0 || assessment+lesson <= 0 {
			return
		}
		s.assessmentWeight = assessment
		s.lessonWeight = lesson
	}
}

// Scorer scores teachers against their cohort. It holds no state between calls.
type Scorer struct {
	assessmentWeight float64
	lessonWeight     float64
}

// NewScorer creates a scorer with the default 0.7 / 0.3 weighting.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		assessmentWeight: DefaultAssessmentWeight,
		lessonWeight:     DefaultLessonWeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the configured assessment and lesson weights.
func (s *Scorer) Weights() (assessment, lesson float64) {
	return s.assessmentWeight, s.lessonWeight
}

type cohortMax struct {
	assessments int
	lessons     int
	size        int
}

func maxima(cohort []*aggregate.TeacherProfile) cohortMax {
	m := cohortMax{size: len(cohort)}
	for _, p := range cohort {
		m.assessments = max(m.assessments, p.Assessments)
		m.lessons = max(m.lessons, p.Lessons)
	}
	return m
}

// Score returns p's score within cohort, which should include p.
func (s *Scorer) Score(p *aggregate.TeacherProfile, cohort []*aggregate.TeacherProfile) float64 {
	return s.score(p, maxima(cohort))
}

func (s *Scorer) score(p *aggregate.TeacherProfile, m cohortMax) float64 {
	if m.size == 1 {
		if (s.assessmentWeight > 0 && p.Assessments > 0) || (s.lessonWeight > 0 && p.Lessons > 0) {
			return MaxScore
		}
		return 0
	}

	raw := s.assessmentWeight*ratio(p.Assessments, m.assessments) + s.lessonWeight*ratio(p.Lessons, m.lessons)
	raw /= s.assessmentWeight + s.lessonWeight
	return clamp(round2(raw * MaxScore))
}

func ratio(n, maxN int) float64 {
	if maxN == 0 {
		return 0
	}
	return float64(n) / float64(maxN)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(MaxScore, v))
}

// Entry is one scored leaderboard row.
type Entry struct {
	TeacherID    string
	TeacherName  string
	Score        float64
	Assessments  int
	Lessons      int
	GradesTaught []string
}

// Leaderboard scores every profile and orders them by score descending,
// then name ascending. An empty cohort yields an empty, non-nil slice.
func (s *Scorer) Leaderboard(cohort []*aggregate.TeacherProfile) []Entry {
	m := maxima(cohort)
	out := make([]Entry, 0, len(cohort))
	for _, p := range cohort {
		out = append(out, Entry{
			TeacherID:    p.TeacherID,
			TeacherName:  p.TeacherName,
			Score:        s.score(p, m),
			Assessments:  p.Assessments,
			Lessons:      p.Lessons,
			GradesTaught: p.SortedGrades(),
		})
	}
	slices.SortFunc(out, Compare)
	return out
}

// Compare is the leaderboard total order.
func Compare(a, b Entry) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.TeacherName, b.TeacherName)
}
