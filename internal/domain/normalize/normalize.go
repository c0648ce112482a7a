// Package normalize turns raw activity records into validated events.
package normalize

import (
	"errors"
	"strings"
	"time"

	"github.com/okian/savra/internal/domain/model"
)

// Accepted timestamp layouts, tried in order.
var dateLayouts = []string{
	model.DateKeyLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// Normalize validates r and derives its event. It has no side effects.
func Normalize(r model.ActivityRecord) (model.NormalizedEvent, error) {
	name := strings.TrimSpace(r.TeacherName)
	if name == "" {
		return model.NormalizedEvent{}, invalid("teacher_name", "empty")
	}
	grade := strings.TrimSpace(r.Grade)
	if grade == "" {
		return model.NormalizedEvent{}, invalid("grade", "empty")
	}
	subject := strings.TrimSpace(r.Subject)
	if subject == "" {
		return model.NormalizedEvent{}, invalid("subject", "empty")
	}
	kind, ok := model.ParseKind(r.ActivityType)
	if !ok {
		return model.NormalizedEvent{}, invalid("activity_type", "unknown kind "+quote(r.ActivityType))
	}
	at, err := parseDate(r.OccurredOn)
	if err != nil {
		return model.NormalizedEvent{}, invalid("occurred_on", "unparseable date "+quote(r.OccurredOn))
	}

	date := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	return model.NormalizedEvent{
		TeacherID:   strings.TrimSpace(r.TeacherID),
		TeacherName: name,
		Grade:       grade,
		Subject:     subject,
		Kind:        kind,
		OccurredAt:  at,
		Date:        date,
		MonthKey:    date.Format(model.MonthKeyLayout),
	}, nil
}

// parseDate keeps the wall-clock calendar date of the input; zone offsets
// never move an event into a neighbouring day.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func quote(s string) string {
	if len(s) > 64 {
		s = s[:64] + "..."
	}
	return "\"" + s + "\""
}

// Rejection describes a record dropped by NormalizeBatch.
type Rejection struct {
	Index int
	Err   *ValidationError
}

// BatchResult is the fail-soft outcome of normalizing many records.
type BatchResult struct {
	Events     []model.NormalizedEvent
	Rejections []Rejection
}

// Rejected returns the number of dropped records.
func (b BatchResult) Rejected() int { return len(b.Rejections) }

// NormalizeBatch normalizes every record, isolating failures per record.
func NormalizeBatch(records []model.ActivityRecord) BatchResult {
	out := BatchResult{Events: make([]model.NormalizedEvent, 0, len(records))}
	for i, r := range records {
		e, err := Normalize(r)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				out.Rejections = append(out.Rejections, Rejection{Index: i, Err: verr})
			}
			continue
		}
		out.Events = append(out.Events, e)
	}
	return out
}
