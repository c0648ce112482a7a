// Package report projects aggregates and scores into the dashboard views.
// Every method is a pure read of the Builder's inputs; results are copies.
package report

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/okian/savra/internal/domain/aggregate"
	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/internal/domain/scoring"
	"github.com/okian/savra/internal/domain/types"
)

// NoSubject is reported when a teacher has no assessed subject.
const NoSubject = "N/A"

// Builder assembles report views over one immutable snapshot.
type Builder struct {
	agg    *aggregate.Aggregates
	board  []scoring.Entry
	scores map[string]float64
}

// NewBuilder wraps aggregates and their leaderboard. A nil agg is treated
// as an empty event set.
func NewBuilder(agg *aggregate.Aggregates, board []scoring.Entry) *Builder {
	if agg == nil {
		agg = aggregate.New(0)
	}
	scores := make(map[string]float64, len(board))
	for _, e := range board {
		scores[e.TeacherName] = e.Score
	}
	return &Builder{agg: agg, board: board, scores: scores}
}

// Grades lists every grade label in natural order.
func (b *Builder) Grades() types.GradesResponse {
	return types.GradesResponse{Grades: b.agg.GradeLabels()}
}

// GradeDetail projects one grade. teacher_data is ordered by count
// descending, then name ascending.
func (b *Builder) GradeDetail(grade string) (types.GradeDetail, error) {
	g, ok := b.agg.Grades[strings.TrimSpace(grade)]
	if !ok {
		return types.GradeDetail{}, fmt.Errorf("%w: %q", ErrGradeNotFound, grade)
	}

	data := make([]types.TeacherCount, 0, len(g.TeacherBreakdown))
	for name, n := range g.TeacherBreakdown {
		data = append(data, types.TeacherCount{Teacher: name, Count: n})
	}
	slices.SortFunc(data, func(a, b types.TeacherCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Teacher, b.Teacher)
	})

	return types.GradeDetail{
		Grade:            g.Grade,
		TotalAssessments: g.TotalAssessments,
		TeacherData:      data,
		Teachers:         g.Teachers.Sorted(),
	}, nil
}

// Teachers lists every teacher by name.
func (b *Builder) Teachers() types.TeachersResponse {
	profiles := b.agg.Profiles()
	out := make([]types.TeacherRef, len(profiles))
	for i, p := range profiles {
		out[i] = types.TeacherRef{TeacherID: p.TeacherID, TeacherName: p.TeacherName}
	}
	return types.TeachersResponse{Teachers: out}
}

// TeacherDetail projects one teacher by exact name.
func (b *Builder) TeacherDetail(name string) (types.TeacherDetail, error) {
	p, ok := b.agg.Teachers[strings.TrimSpace(name)]
	if !ok {
		return types.TeacherDetail{}, fmt.Errorf("%w: %q", ErrTeacherNotFound, name)
	}

	assessed := make(aggregate.Set)
	for _, row := range p.GradeSubjectMatrix {
		for s := range row {
			assessed[s] = struct{}{}
		}
	}

	return types.TeacherDetail{
		TeacherID:           p.TeacherID,
		TeacherName:         p.TeacherName,
		Score:               b.scores[p.TeacherName],
		Grades:              p.SortedGrades(),
		Subjects:            assessed.Sorted(),
		AllSubjects:         p.Subjects.Sorted(),
		GradeSubjectData:    copyNested(p.GradeSubjectMatrix),
		TimelineByMonth:     copyNested(p.TimelineByMonth),
		Months:              p.Months(),
		MostTaughtSubject:   mostTaught(p.GradeSubjectMatrix),
		TotalLessons:        p.Lessons,
		TotalQuizzes:        p.Quizzes,
		TotalQuestionPapers: p.QuestionPapers,
		TotalAssessments:    p.Assessments,
	}, nil
}

// mostTaught sums the matrix over grades; ties go to the first subject
// alphabetically.
func mostTaught(matrix map[string]map[string]int) string {
	totals := make(map[string]int)
	for _, row := range matrix {
		for s, n := range row {
			totals[s] += n
		}
	}
	best, bestN := NoSubject, 0
	for _, s := range slices.Sorted(maps.Keys(totals)) {
		if totals[s] > bestN {
			best, bestN = s, totals[s]
		}
	}
	return best
}

// Leaderboard is the fully ordered scored cohort.
type Leaderboard struct {
	Entries []types.Entry
}

// Best returns the first entry.
func (l Leaderboard) Best() (types.Entry, bool) {
	if len(l.Entries) == 0 {
		return types.Entry{}, false
	}
	return l.Entries[0], true
}

// Worst returns the last entry under the same ordering.
func (l Leaderboard) Worst() (types.Entry, bool) {
	if len(l.Entries) == 0 {
		return types.Entry{}, false
	}
	return l.Entries[len(l.Entries)-1], true
}

// Leaderboard returns every teacher ranked from 1.
func (b *Builder) Leaderboard() Leaderboard {
	out := make([]types.Entry, len(b.board))
	for i, e := range b.board {
		out[i] = types.Entry{
			Rank:         i + 1,
			TeacherID:    e.TeacherID,
			TeacherName:  e.TeacherName,
			Score:        e.Score,
			Assessments:  e.Assessments,
			Lessons:      e.Lessons,
			GradesTaught: slices.Clone(e.GradesTaught),
		}
	}
	return Leaderboard{Entries: out}
}

// ChartLabel prefixes a grade with "Grade" unless the label already
// carries the word.
func ChartLabel(grade string) string {
	if len(grade) >= 5 && strings.EqualFold(grade[:5], "grade") {
		return grade
	}
	return "Grade " + grade
}

// Overall summarizes the snapshot. An empty snapshot yields zero counts,
// empty charts and a nil top teacher.
func (b *Builder) Overall() types.OverallReport {
	lb := b.Leaderboard()
	grades := b.agg.GradeLabels()

	gradeChart := types.Chart{Labels: make([]string, len(grades)), Data: make([]int, len(grades))}
	for i, g := range grades {
		gradeChart.Labels[i] = ChartLabel(g)
		gradeChart.Data[i] = b.agg.Grades[g].TotalAssessments
	}

	activityChart := types.Chart{
		Labels: make([]string, len(model.CanonicalKinds)),
		Data:   make([]int, len(model.CanonicalKinds)),
	}
	for i, k := range model.CanonicalKinds {
		activityChart.Labels[i] = k.Label()
		activityChart.Data[i] = b.agg.Kinds[k]
	}

	r := types.OverallReport{
		TotalTeachers:       len(b.agg.Teachers),
		TotalAssessments:    b.agg.Assessments,
		TotalLessons:        b.agg.Kinds[model.KindLesson],
		TotalQuizzes:        b.agg.Kinds[model.KindQuiz],
		TotalQuestionPapers: b.agg.Kinds[model.KindQuestionPaper],
		TotalActivities:     b.agg.Events,
		Grades:              grades,
		Subjects:            b.agg.Subjects.Sorted(),
		Leaderboard:         lb.Entries,
		GradeChart:          gradeChart,
		ActivityChart:       activityChart,
		MonthlyChart:        MonthlyChart(b.agg.Months),
	}
	if top, ok := lb.Best(); ok {
		r.TopTeacher = &top
	}
	return r
}

// MonthlyChart renders per-month counts with one point per calendar month
// between the earliest and latest key inclusive, zero where absent.
func MonthlyChart(months map[string]int) types.Chart {
	c := types.Chart{Labels: []string{}, Data: []int{}}
	if len(months) == 0 {
		return c
	}
	keys := slices.Sorted(maps.Keys(months))
	first, err1 := time.Parse(model.MonthKeyLayout, keys[0])
	last, err2 := time.Parse(model.MonthKeyLayout, keys[len(keys)-1])
	if err1 != nil || err2 != nil {
		for _, k := range keys {
			c.Labels = append(c.Labels, k)
			c.Data = append(c.Data, months[k])
		}
		return c
	}
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		k := m.Format(model.MonthKeyLayout)
		c.Labels = append(c.Labels, k)
		c.Data = append(c.Data, months[k])
	}
	return c
}

func copyNested(in map[string]map[string]int) map[string]map[string]int {
	out := make(map[string]map[string]int, len(in))
	for k, row := range in {
		out[k] = maps.Clone(row)
	}
	return out
}
