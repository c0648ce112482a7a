package api

import (
	"context"
	"net/http"

	"github.com/okian/savra/internal/domain/types"
)

// ReportsHandler serves the snapshot views.
type ReportsHandler struct {
	deps Reports
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Reports) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleGrades handles GET /grades.
func (h *ReportsHandler) HandleGrades(w http.ResponseWriter, r *http.Request) {
	serve(w, r, "api.get_grades", h.deps.Grades)
}

// HandleGrade handles GET /grade/{grade}.
func (h *ReportsHandler) HandleGrade(w http.ResponseWriter, r *http.Request) {
	grade := r.PathValue("grade")
	serve(w, r, "api.get_grade", func(ctx context.Context) (types.GradeDetail, error) {
		return h.deps.GradeDetail(ctx, grade)
	})
}

// HandleTeachers handles GET /teachers.
func (h *ReportsHandler) HandleTeachers(w http.ResponseWriter, r *http.Request) {
	serve(w, r, "api.get_teachers", h.deps.Teachers)
}

// HandleTeacher handles GET /teacher/{name}.
func (h *ReportsHandler) HandleTeacher(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	serve(w, r, "api.get_teacher", func(ctx context.Context) (types.TeacherDetail, error) {
		return h.deps.TeacherDetail(ctx, name)
	})
}

// HandleOverall handles GET /overall.
func (h *ReportsHandler) HandleOverall(w http.ResponseWriter, r *http.Request) {
	serve(w, r, "api.get_overall", h.deps.Overall)
}

func serve[T any](w http.ResponseWriter, r *http.Request, op string, view func(context.Context) (T, error)) {
	v, err := view(r.Context())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
