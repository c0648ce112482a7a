// Package model contains domain models passed between layers.
package model

import (
	"cmp"
	"strconv"
	"strings"
	"time"
)

// Key layouts for calendar buckets.
const (
	MonthKeyLayout = "2006-01"
	DateKeyLayout  = "2006-01-02"
)

// ActivityRecord is a raw row as the record store hands it over.
// Fields are kept as strings so every source shares one validation path,
// the Normalizer, which rejects bad records one at a time.
type ActivityRecord struct {
	TeacherID    string `json:"teacher_id"`
	TeacherName  string `json:"teacher_name"`
	Grade        string `json:"grade"`
	Subject      string `json:"subject"`
	ActivityType string `json:"activity_type"`
	OccurredOn   string `json:"occurred_on"`
}

// NormalizedEvent is the validated form of one ActivityRecord.
// MonthKey and the date are always derived from OccurredAt.
type NormalizedEvent struct {
	TeacherID   string
	TeacherName string
	Grade       string
	Subject     string
	Kind        ActivityKind
	OccurredAt  time.Time
	Date        time.Time // OccurredAt truncated to midnight UTC
	MonthKey    string
}

// DateKey renders the event date as YYYY-MM-DD.
func (e NormalizedEvent) DateKey() string {
	return e.Date.Format(DateKeyLayout)
}

// Fingerprint identifies an event by every field it was derived from.
// Two records with the same fingerprint are exact duplicates.
func (e NormalizedEvent) Fingerprint() string {
	var b strings.Builder
	for _, part := range []string{
		e.TeacherID, e.TeacherName, e.Grade, e.Subject, e.Kind.String(),
		e.OccurredAt.UTC().Format(time.RFC3339Nano),
	} {
		b.WriteString(strconv.Itoa(len(part)))
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// CompareGrades orders grade labels naturally: labels are split into
// digit and text runs, digit runs compare by value and sort before text,
// so "Grade 2" precedes "Grade 10" and "9" precedes "KG". Labels that
// only differ in leading zeros fall back to byte order.
func CompareGrades(a, b string) int {
	ra, rb := a, b
	for ra != "" && rb != "" {
		var ca, cb string
		ca, ra = leadingRun(ra)
		cb, rb = leadingRun(rb)
		da, db := isDigit(ca[0]), isDigit(cb[0])
		switch {
		case da && db:
			if c := compareDigits(ca, cb); c != 0 {
				return c
			}
		case da:
			return -1
		case db:
			return 1
		default:
			if c := strings.Compare(ca, cb); c != 0 {
				return c
			}
		}
	}
	switch {
	case ra == "" && rb != "":
		return -1
	case ra != "" && rb == "":
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// leadingRun splits s after its first run of digits or non-digits.
func leadingRun(s string) (run, rest string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

// compareDigits compares two digit runs by value without overflow.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return cmp.Compare(len(a), len(b))
	}
	return strings.Compare(a, b)
}
