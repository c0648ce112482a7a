package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/okian/savra/internal/domain/model"
)

// CSV reads records from a comma separated file with a header row.
type CSV struct {
	path  string
	comma rune
}

// CSVOption configures a CSV source.
type CSVOption func(*CSV)

// WithComma sets the field delimiter.
func WithComma(r rune) CSVOption {
	return func(c *CSV) {
		if r != 0 {
			c.comma = r
		}
	}
}

// NewCSV creates a CSV source for path.
func NewCSV(path string, opts ...CSVOption) *CSV {
	c := &CSV{path: path, comma: ','}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CSV) Name() string { return "csv" }

func (c *CSV) Version(_ context.Context) (string, error) {
	return fileVersion(c.path)
}

func (c *CSV) Load(ctx context.Context) ([]model.ActivityRecord, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = c.comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", c.path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := records(rows)
	if err != nil {
		return nil, fmt.Errorf("csv %s: %w", c.path, err)
	}
	return out, nil
}
