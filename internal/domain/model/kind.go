package model

import "strings"

// ActivityKind is the unit of instructional or evaluative work.
type ActivityKind uint8

// Known kinds. The zero value is invalid.
const (
	KindLesson ActivityKind = iota + 1
	KindQuiz
	KindQuestionPaper
	KindAssessment
)

// CanonicalKinds is the fixed presentation order of kinds.
var CanonicalKinds = []ActivityKind{KindLesson, KindQuiz, KindQuestionPaper, KindAssessment}

var kindNames = map[ActivityKind]string{
	KindLesson:        "lesson",
	KindQuiz:          "quiz",
	KindQuestionPaper: "question_paper",
	KindAssessment:    "assessment",
}

var kindLabels = map[ActivityKind]string{
	KindLesson:        "Lesson Plan",
	KindQuiz:          "Quiz",
	KindQuestionPaper: "Question Paper",
	KindAssessment:    "Assessment",
}

var kindAliases = map[string]ActivityKind{
	"lesson":         KindLesson,
	"lesson plan":    KindLesson,
	"lesson_plan":    KindLesson,
	"quiz":           KindQuiz,
	"question paper": KindQuestionPaper,
	"question_paper": KindQuestionPaper,
	"assessment":     KindAssessment,
}

// String returns the wire name, e.g. "question_paper".
func (k ActivityKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Label returns the human readable chart label.
func (k ActivityKind) Label() string {
	if s, ok := kindLabels[k]; ok {
		return s
	}
	return "Unknown"
}

// Valid reports whether k is one of the known kinds.
func (k ActivityKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind resolves wire names and spreadsheet spellings, case-insensitively.
func ParseKind(s string) (ActivityKind, bool) {
	k, ok := kindAliases[strings.Join(strings.Fields(strings.ToLower(s)), " ")]
	return k, ok
}

// KindSet is a small set of kinds, used for the assessment policy.
type KindSet uint8

// NewKindSet builds a set from kinds.
func NewKindSet(kinds ...ActivityKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		if k.Valid() {
			s |= 1 << k
		}
	}
	return s
}

// Has reports membership.
func (s KindSet) Has(k ActivityKind) bool {
	return k.Valid() && s&(1<<k) != 0
}

// Kinds lists members in canonical order.
func (s KindSet) Kinds() []ActivityKind {
	out := make([]ActivityKind, 0, len(CanonicalKinds))
	for _, k := range CanonicalKinds {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// DefaultAssessmentKinds counts only assessment-kind events as assessments.
var DefaultAssessmentKinds = NewKindSet(KindAssessment)
