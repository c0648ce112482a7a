package seed

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/savra/internal/domain/model"
)

const directoryPermission = 0o750

var csvHeader = []string{"Teacher_id", "Teacher_name", "Grade", "Subject", "Activity_type", "Created_at"}

// WriteCSV writes records in the spreadsheet export layout.
func WriteCSV(path string, records []model.ActivityRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	_ = w.Write(csvHeader)
	for _, r := range records {
		_ = w.Write([]string{r.TeacherID, r.TeacherName, r.Grade, r.Subject, r.ActivityType, r.OccurredOn})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
