package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/pkg/logger"
)

var (
	firstNames = []string{"Anita", "Bilal", "Chen", "Divya", "Emeka", "Farah", "Gopal", "Hana", "Ivan", "Jaya", "Kofi", "Leela", "Mateo", "Nisha", "Omar", "Priya"}
	grades     = []string{"6", "7", "8", "9", "10"}
	subjects   = []string{"Mathematics", "Science", "English", "Social Studies", "Hindi", "Computer Science"}
	// Spreadsheet spellings, weighted towards lessons.
	activityTypes = []string{"Lesson Plan", "Lesson Plan", "Lesson Plan", "Quiz", "Quiz", "Question Paper", "Assessment"}
)

type teacher struct {
	id       string
	name     string
	grades   []string
	subjects []string
}

// Generate builds cfg.Records records for cfg.Teachers teachers. Every
// record is distinct, so none is dropped as a duplicate.
func Generate(ctx context.Context, cfg *Config) ([]model.ActivityRecord, error) {
	if cfg.Teachers < 1 || cfg.Records < 1 {
		return nil, fmt.Errorf("need at least one teacher and one record, got %d and %d", cfg.Teachers, cfg.Records)
	}
	logger.Get().Info(ctx, "generating activity records",
		logger.Int("teachers", cfg.Teachers), logger.Int("records", cfg.Records))

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5a17))
	staff := make([]teacher, cfg.Teachers)
	names := make(map[string]struct{}, cfg.Teachers)
	for i := range staff {
		// Teachers are keyed by name, so names must not collide.
		for {
			staff[i] = newTeacher(rng, i)
			if _, taken := names[staff[i].name]; !taken {
				names[staff[i].name] = struct{}{}
				break
			}
		}
	}

	end := cfg.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	days := max(cfg.Months, 1) * 30
	start := time.Date(end.Year(), end.Month(), end.Day(), 8, 0, 0, 0, time.UTC).AddDate(0, 0, -days)

	out := make([]model.ActivityRecord, cfg.Records)
	used := make(map[string]struct{}, cfg.Records)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
		t := staff[i%len(staff)]
		at := start.AddDate(0, 0, rng.IntN(days+1)).Add(time.Duration(rng.IntN(600)) * time.Minute)
		// One record per teacher per minute.
		for {
			key := t.id + at.Format(time.DateTime)
			if _, dup := used[key]; !dup {
				used[key] = struct{}{}
				break
			}
			at = at.Add(time.Minute)
		}
		out[i] = model.ActivityRecord{
			TeacherID:    t.id,
			TeacherName:  t.name,
			Grade:        t.grades[rng.IntN(len(t.grades))],
			Subject:      t.subjects[rng.IntN(len(t.subjects))],
			ActivityType: activityTypes[rng.IntN(len(activityTypes))],
			OccurredOn:   at.Format(time.DateTime),
		}
	}
	return out, nil
}

func newTeacher(rng *rand.Rand, i int) teacher {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("savra-seed-%d-%d", rng.Uint64(), i)))
	short := strings.ToUpper(id.String()[:4])
	return teacher{
		id:       id.String(),
		name:     firstNames[i%len(firstNames)] + " " + short,
		grades:   pick(rng, grades, 1+rng.IntN(2)),
		subjects: pick(rng, subjects, 1+rng.IntN(2)),
	}
}

func pick(rng *rand.Rand, from []string, n int) []string {
	idx := rng.Perm(len(from))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = from[j]
	}
	return out
}
