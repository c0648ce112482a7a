// Package source reads raw activity records from the record store.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/savra/internal/domain/model"
)

// Source is a read-only record store.
type Source interface {
	// Load returns every record currently held by the store.
	Load(ctx context.Context) ([]model.ActivityRecord, error)

	// Version returns a token that changes whenever the records change.
	Version(ctx context.Context) (string, error)

	// Name identifies the source kind in logs and stats.
	Name() string
}

// Source errors.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptySheet    = errors.New("no header row")
	ErrUnknownKind   = errors.New("unknown source kind")
)

type column int

const (
	colTeacherID column = iota
	colTeacherName
	colGrade
	colSubject
	colActivityType
	colOccurredOn
	numColumns
)

var columnNames = [numColumns]string{
	"teacher_id", "teacher_name", "grade", "subject", "activity_type", "occurred_on",
}

// headerAliases maps normalized header cells to columns. Spreadsheet
// exports use Teacher_id, Teacher_name, Grade, Subject, Activity_type, Created_at.
var headerAliases = map[string]column{
	"teacher_id":    colTeacherID,
	"teacher_name":  colTeacherName,
	"teacher":       colTeacherName,
	"grade":         colGrade,
	"subject":       colSubject,
	"activity_type": colActivityType,
	"activity":      colActivityType,
	"occurred_on":   colOccurredOn,
	"created_at":    colOccurredOn,
	"date":          colOccurredOn,
}

// layout holds the cell index of each column, -1 when absent.
type layout [numColumns]int

func headerKey(cell string) string {
	return strings.Join(strings.Fields(strings.ToLower(cell)), "_")
}

// parseHeader maps a header row. Every column except teacher_id is required.
func parseHeader(header []string) (layout, error) {
	var l layout
	for i := range l {
		l[i] = -1
	}
	for i, cell := range header {
		c, ok := headerAliases[headerKey(cell)]
		if ok && l[c] < 0 {
			l[c] = i
		}
	}
	for c := colTeacherName; c < numColumns; c++ {
		if l[c] < 0 {
			return l, fmt.Errorf("%w: %s", ErrMissingColumn, columnNames[c])
		}
	}
	return l, nil
}

func (l layout) record(row []string) model.ActivityRecord {
	cell := func(c column) string {
		if i := l[c]; i >= 0 && i < len(row) {
			return row[i]
		}
		return ""
	}
	return model.ActivityRecord{
		TeacherID:    cell(colTeacherID),
		TeacherName:  cell(colTeacherName),
		Grade:        cell(colGrade),
		Subject:      cell(colSubject),
		ActivityType: cell(colActivityType),
		OccurredOn:   cell(colOccurredOn),
	}
}

// records converts a header plus data rows. Blank rows are skipped.
func records(rows [][]string) ([]model.ActivityRecord, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	l, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]model.ActivityRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, l.record(row))
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Nop is an empty record store for push-only deployments.
type Nop struct{}

func (Nop) Load(context.Context) ([]model.ActivityRecord, error) { return nil, nil }
func (Nop) Version(context.Context) (string, error)              { return "none", nil }
func (Nop) Name() string                                         { return "none" }
