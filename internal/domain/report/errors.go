package report

import "errors"

// Not-found conditions. Callers must surface them, never render zeros.
var (
	ErrGradeNotFound   = errors.New("grade not found")
	ErrTeacherNotFound = errors.New("teacher not found")
)
