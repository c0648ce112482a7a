package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func rec(name, grade, subject, kind, date string) model.ActivityRecord {
	return model.ActivityRecord{
		TeacherID:    "id-" + name,
		TeacherName:  name,
		Grade:        grade,
		Subject:      subject,
		ActivityType: kind,
		OccurredOn:   date,
	}
}

// schoolRecords: Alice 2 assessments + 1 lesson, Bob 1 assessment + 2 lessons,
// one exact duplicate and one record without a teacher.
func schoolRecords() []model.ActivityRecord {
	return []model.ActivityRecord{
		rec("Alice", "7", "Math", "Assessment", "2024-01-10"),
		rec("Alice", "7", "Math", "assessment", "2024-02-11"),
		rec("Alice", "7", "Math", "Lesson Plan", "2024-02-12"),
		rec("Bob", "8", "Science", "assessment", "2024-01-15"),
		rec("Bob", "8", "Science", "lesson", "2024-03-01"),
		rec("Bob", "8", "Science", "lesson", "2024-03-02"),
		rec("Bob", "8", "Science", "lesson", "2024-03-02"),
		rec("", "8", "Science", "quiz", "2024-03-03"),
	}
}

type fakeSource struct {
	mu      sync.Mutex
	records []model.ActivityRecord
	version string
	loads   int
	err     error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Version(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, f.err
}

func (f *fakeSource) Load(context.Context) ([]model.ActivityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.records, f.err
}

func (f *fakeSource) set(version string, records []model.ActivityRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version, f.records = version, records
}

func (f *fakeSource) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

var errBackend = errors.New("backend down")

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errBackend }
func (brokenCache) Set(context.Context, string, []byte) error         { return errBackend }
func (brokenCache) Close() error                                      { return nil }
