// Package types contains the report shapes served to the dashboard.
// Field names and nesting are part of the client contract.
package types

import "github.com/okian/savra/internal/domain/model"

// GradesResponse lists every grade label.
type GradesResponse struct {
	Grades []string `json:"grades"`
}

// TeacherCount is one row of a grade's assessment breakdown.
type TeacherCount struct {
	Teacher string `json:"teacher"`
	Count   int    `json:"count"`
}

// GradeDetail describes one grade.
type GradeDetail struct {
	Grade            string         `json:"grade"`
	TotalAssessments int            `json:"total_assessments"`
	TeacherData      []TeacherCount `json:"teacher_data"`
	Teachers         []string       `json:"teachers"`
}

// TeacherRef identifies a teacher.
type TeacherRef struct {
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
}

// TeachersResponse lists every teacher.
type TeachersResponse struct {
	Teachers []TeacherRef `json:"teachers"`
}

// TeacherDetail describes one teacher.
type TeacherDetail struct {
	TeacherID           string                    `json:"teacher_id"`
	TeacherName         string                    `json:"teacher_name"`
	Score               float64                   `json:"score"`
	Grades              []string                  `json:"grades"`
	Subjects            []string                  `json:"subjects"`
	AllSubjects         []string                  `json:"all_subjects"`
	GradeSubjectData    map[string]map[string]int `json:"grade_subject_data"`
	TimelineByMonth     map[string]map[string]int `json:"timeline_by_month"`
	Months              []string                  `json:"months"`
	MostTaughtSubject   string                    `json:"most_taught_subject"`
	TotalLessons        int                       `json:"total_lessons"`
	TotalQuizzes        int                       `json:"total_quizzes"`
	TotalQuestionPapers int                       `json:"total_question_papers"`
	TotalAssessments    int                       `json:"total_assessments"`
}

// Entry is one leaderboard row.
type Entry struct {
	Rank         int      `json:"rank"`
	TeacherID    string   `json:"teacher_id"`
	TeacherName  string   `json:"teacher_name"`
	Score        float64  `json:"score"`
	Assessments  int      `json:"assessments"`
	Lessons      int      `json:"lessons"`
	GradesTaught []string `json:"grades_taught"`
}

// LeaderboardResponse wraps the ordered leaderboard.
type LeaderboardResponse struct {
	Leaderboard []Entry `json:"leaderboard"`
}

// Chart is a chart-ready histogram. Labels and Data have equal length.
type Chart struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// OverallReport summarizes the whole snapshot.
type OverallReport struct {
	TotalTeachers       int      `json:"total_teachers"`
	TotalAssessments    int      `json:"total_assessments"`
	TotalLessons        int      `json:"total_lessons"`
	TotalQuizzes        int      `json:"total_quizzes"`
	TotalQuestionPapers int      `json:"total_question_papers"`
	TotalActivities     int      `json:"total_activities"`
	Grades              []string `json:"grades"`
	Subjects            []string `json:"subjects"`
	Leaderboard         []Entry  `json:"leaderboard"`
	GradeChart          Chart    `json:"grade_chart"`
	ActivityChart       Chart    `json:"activity_chart"`
	MonthlyChart        Chart    `json:"monthly_chart"`
	TopTeacher          *Entry   `json:"top_teacher"`
}

// Stats describes the current snapshot and ingestion counters.
type Stats struct {
	SnapshotID  string   `json:"snapshot_id"`
	BuiltAt     string   `json:"built_at"`
	Events      int      `json:"events"`
	Teachers    int      `json:"teachers"`
	Grades      int      `json:"grades"`
	Rejected    int      `json:"rejected"`
	Duplicates  int      `json:"duplicates"`
	Pushed      int      `json:"pushed"`
	QueueSize   int      `json:"queue_size"`
	QueueCap    int      `json:"queue_capacity"`
	Source      string   `json:"source"`
	SourceVer   string   `json:"source_version"`
	Assessments []string `json:"assessment_kinds"`
}

// MaxIngestBatch caps the records accepted by one POST /records.
const MaxIngestBatch = 10_000

// IngestRequest is the POST /records body. Only its shape is validated
// here; individual records are normalized after queueing.
type IngestRequest struct {
	Records []model.ActivityRecord `json:"records" validate:"required,min=1,max=10000"`
}

// IngestResponse acknowledges a queued batch. Records are normalized
// asynchronously; rejections show up in Stats.
type IngestResponse struct {
	BatchID string `json:"batch_id"`
	Queued  int    `json:"queued"`
}

// ReloadResult reports one pass over the record store.
type ReloadResult struct {
	Changed    bool   `json:"changed"`
	SnapshotID string `json:"snapshot_id"`
	Records    int    `json:"records"`
	Rejected   int    `json:"rejected"`
	Version    string `json:"source_version"`
}
