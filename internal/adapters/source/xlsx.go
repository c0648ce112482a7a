package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/savra/internal/domain/model"
)

// XLSX reads records from one sheet of a spreadsheet workbook.
type XLSX struct {
	path  string
	sheet string
}

// XLSXOption configures an XLSX source.
type XLSXOption func(*XLSX)

// WithSheet selects a sheet by name instead of the first one.
func WithSheet(name string) XLSXOption {
	return func(x *XLSX) {
		x.sheet = name
	}
}

// NewXLSX creates a workbook source for path.
func NewXLSX(path string, opts ...XLSXOption) *XLSX {
	x := &XLSX{path: path}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *XLSX) Name() string { return "xlsx" }

func (x *XLSX) Version(_ context.Context) (string, error) {
	return fileVersion(x.path)
}

func (x *XLSX) Load(ctx context.Context) ([]model.ActivityRecord, error) {
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := x.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx %s: %w", x.path, ErrEmptySheet)
		}
		sheet = sheets[f.GetActiveSheetIndex()%len(sheets)]
	}

	// Raw values keep date cells as serial numbers instead of the
	// locale display text ("1/5/24 10:15").
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := records(rows)
	if err != nil {
		return nil, fmt.Errorf("xlsx %s: %w", x.path, err)
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	for i := range out {
		out[i].OccurredOn = serialDate(out[i].OccurredOn, date1904)
	}
	return out, nil
}

// serialDate renders an Excel date serial as "2006-01-02 15:04:05".
// Text cells pass through unchanged for the Normalizer to parse.
func serialDate(cell string, date1904 bool) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || v <= 0 {
		return cell
	}
	t, err := excelize.ExcelDateToTime(v, date1904)
	if err != nil {
		return cell
	}
	return t.Round(time.Second).Format(time.DateTime)
}
