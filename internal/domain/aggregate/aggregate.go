// Package aggregate folds normalized activity events into per-grade,
// per-teacher and per-month counts.
//
// The fold is order-independent: any permutation of the same event multiset
// produces equal Aggregates. Keys with no matching events are absent; zero
// filling is left to the report layer.
package aggregate

import (
	"slices"

	"github.com/okian/savra/internal/domain/model"
)

// Set is an unordered set of labels.
type Set map[string]struct{}

func (s Set) add(v string) { s[v] = struct{}{} }

// Sorted returns the members in ascending order, never nil.
func (s Set) Sorted() []string {
	return sortedKeys(s)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// GradeSummary aggregates one grade.
// TotalAssessments always equals the sum of TeacherBreakdown.
type GradeSummary struct {
	Grade            string
	TotalAssessments int
	TeacherBreakdown map[string]int // assessment events per teacher
	Teachers         Set            // teachers with any activity in the grade
}

// TeacherProfile aggregates one teacher, keyed by name.
type TeacherProfile struct {
	// TeacherID is the smallest non-empty id seen for the name.
	TeacherID      string
	TeacherName    string
	Grades         Set
	Subjects       Set
	Lessons        int
	Quizzes        int
	QuestionPapers int
	AssessmentKind int // events whose kind is literally "assessment"
	// Assessments counts events whose kind is in the assessment policy.
	Assessments int
	// GradeSubjectMatrix[grade][subject] counts assessment events only.
	GradeSubjectMatrix map[string]map[string]int
	// TimelineByMonth[month][date] counts events of every kind.
	TimelineByMonth map[string]map[string]int
}

// SortedGrades returns the grades taught in natural grade order.
func (p *TeacherProfile) SortedGrades() []string {
	return SortGrades(p.Grades.Sorted())
}

// Months returns the timeline month keys ascending.
func (p *TeacherProfile) Months() []string {
	return sortedKeys(p.TimelineByMonth)
}

// Aggregates is the result of one fold.
type Aggregates struct {
	Policy   model.KindSet
	Grades   map[string]*GradeSummary
	Teachers map[string]*TeacherProfile
	Subjects Set
	Months   map[string]int // all kinds per month key
	Kinds    map[model.ActivityKind]int
	Events   int
	// Assessments counts events whose kind is in Policy.
	Assessments int
}

// New returns an empty Aggregates counting policy kinds as assessments.
// An empty policy falls back to model.DefaultAssessmentKinds.
func New(policy model.KindSet) *Aggregates {
	if policy == 0 {
		policy = model.DefaultAssessmentKinds
	}
	return &Aggregates{
		Policy:   policy,
		Grades:   make(map[string]*GradeSummary),
		Teachers: make(map[string]*TeacherProfile),
		Subjects: make(Set),
		Months:   make(map[string]int),
		Kinds:    make(map[model.ActivityKind]int),
	}
}

// Aggregate folds events in a single pass.
func Aggregate(events []model.NormalizedEvent, policy model.KindSet) *Aggregates {
	a := New(policy)
	for i := range events {
		a.Add(events[i])
	}
	return a
}

// Add folds one event.
func (a *Aggregates) Add(e model.NormalizedEvent) {
	assessed := a.Policy.Has(e.Kind)

	a.Events++
	a.Kinds[e.Kind]++
	a.Months[e.MonthKey]++
	a.Subjects.add(e.Subject)
	if assessed {
		a.Assessments++
	}

	g := a.grade(e.Grade)
	g.Teachers.add(e.TeacherName)
	if assessed {
		g.TotalAssessments++
		g.TeacherBreakdown[e.TeacherName]++
	}

	p := a.teacher(e.TeacherName)
	if e.TeacherID != "" && (p.TeacherID == "" || e.TeacherID < p.TeacherID) {
		p.TeacherID = e.TeacherID
	}
	p.Grades.add(e.Grade)
	p.Subjects.add(e.Subject)
	switch e.Kind {
	case model.KindLesson:
		p.Lessons++
	case model.KindQuiz:
		p.Quizzes++
	case model.KindQuestionPaper:
		p.QuestionPapers++
	case model.KindAssessment:
		p.AssessmentKind++
	}
	if assessed {
		p.Assessments++
		row := p.GradeSubjectMatrix[e.Grade]
		if row == nil {
			row = make(map[string]int)
			p.GradeSubjectMatrix[e.Grade] = row
		}
		row[e.Subject]++
	}
	days := p.TimelineByMonth[e.MonthKey]
	if days == nil {
		days = make(map[string]int)
		p.TimelineByMonth[e.MonthKey] = days
	}
	days[e.DateKey()]++
}

func (a *Aggregates) grade(label string) *GradeSummary {
	g, ok := a.Grades[label]
	if !ok {
		g = &GradeSummary{
			Grade:            label,
			TeacherBreakdown: make(map[string]int),
			Teachers:         make(Set),
		}
		a.Grades[label] = g
	}
	return g
}

func (a *Aggregates) teacher(name string) *TeacherProfile {
	p, ok := a.Teachers[name]
	if !ok {
		p = &TeacherProfile{
			TeacherName:        name,
			Grades:             make(Set),
			Subjects:           make(Set),
			GradeSubjectMatrix: make(map[string]map[string]int),
			TimelineByMonth:    make(map[string]map[string]int),
		}
		a.Teachers[name] = p
	}
	return p
}

// GradeLabels returns every grade in natural order.
func (a *Aggregates) GradeLabels() []string {
	return SortGrades(sortedKeys(a.Grades))
}

// TeacherNames returns every teacher name ascending.
func (a *Aggregates) TeacherNames() []string {
	return sortedKeys(a.Teachers)
}

// MonthKeys returns every month key ascending.
func (a *Aggregates) MonthKeys() []string {
	return sortedKeys(a.Months)
}

// Profiles returns the teacher profiles ordered by name.
func (a *Aggregates) Profiles() []*TeacherProfile {
	names := a.TeacherNames()
	out := make([]*TeacherProfile, len(names))
	for i, n := range names {
		out[i] = a.Teachers[n]
	}
	return out
}

// SortGrades sorts grade labels in place with model.CompareGrades.
func SortGrades(grades []string) []string {
	slices.SortFunc(grades, model.CompareGrades)
	return grades
}
