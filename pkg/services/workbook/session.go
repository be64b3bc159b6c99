package workbook

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/de-tools/hub-export/pkg/models/domain"
)

// SchemaError reports a workbook layout or column-shape violation: a missing
// sheet, an injected column whose value count disagrees with the batch, or a
// trailing column absent from the row set.
type SchemaError struct {
	msg string
}

func (e *SchemaError) Error() string { return e.msg }

func schemaErrorf(format string, args ...any) *SchemaError {
	return &SchemaError{msg: fmt.Sprintf(format, args...)}
}

// Session is a single open-merge-close pass over one workbook file. A run
// opens the session once, merges every row batch through it and closes it;
// closing commits the file. There is no cross-process lock on the file:
// overlapping runs against the same artifact must be serialized by the
// caller.
type Session struct {
	path     string
	file     *excelize.File
	existing bool // file was present on disk when the session opened
	dirty    bool
	closed   bool
	nextRow  map[string]int // per sheet, 1-based index of the first free row
}

// Open loads the workbook at path, or prepares a new in-memory workbook when
// no file exists yet. The new file only reaches disk on Close, and only if
// something was merged.
func Open(path string) (*Session, error) {
	s := &Session{path: path, nextRow: map[string]int{}}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
		}
		s.file = f
		s.existing = true
	case os.IsNotExist(err):
		s.file = excelize.NewFile()
	default:
		return nil, fmt.Errorf("failed to stat workbook %s: %w", path, err)
	}
	return s, nil
}

// Merge shapes the batch under policy and writes it into the named sheet.
// On a new workbook the first merge for a sheet creates it with a header row
// taken from the first shaped row's column order. On an existing workbook
// the sheet must already be present; rows are appended below the last
// occupied row as string cells (nil renders as the empty string). Column
// order against an existing header is not re-validated here: that is the
// caller's contract, and a mismatch misaligns columns silently.
func (s *Session) Merge(sheet string, rows []domain.Row, policy domain.ShapePolicy) error {
	if s.closed {
		return fmt.Errorf("workbook session for %s is closed", s.path)
	}
	if len(rows) == 0 {
		return nil
	}

	shaped, err := shapeBatch(rows, policy)
	if err != nil {
		return err
	}

	next, ok := s.nextRow[sheet]
	if !ok {
		next, err = s.locateSheet(sheet, shaped[0])
		if err != nil {
			return err
		}
	}

	for _, row := range shaped {
		cells := make([]any, len(row.Columns))
		for i, col := range row.Columns {
			cells[i] = cellString(row.Values[col])
		}
		anchor, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return fmt.Errorf("failed to anchor row %d: %w", next, err)
		}
		if err := s.file.SetSheetRow(sheet, anchor, &cells); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %s: %w", next, sheet, err)
		}
		next++
	}

	s.nextRow[sheet] = next
	s.dirty = true
	return nil
}

// Close saves the workbook to its path if any batch was merged, then
// releases the handle. Calling Close again is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.dirty {
		if err := s.file.SaveAs(s.path); err != nil {
			_ = s.file.Close()
			return fmt.Errorf("failed to save workbook %s: %w", s.path, err)
		}
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close workbook %s: %w", s.path, err)
	}
	return nil
}

// locateSheet returns the first free row of the sheet. On a workbook that
// existed on disk the sheet must be present already; on a new workbook the
// sheet is created along with its header row.
func (s *Session) locateSheet(sheet string, first domain.Row) (int, error) {
	if s.existing {
		idx, err := s.file.GetSheetIndex(sheet)
		if err != nil {
			return 0, fmt.Errorf("failed to look up sheet %s: %w", sheet, err)
		}
		if idx < 0 {
			return 0, schemaErrorf("sheet %q does not exist in workbook %s", sheet, s.path)
		}
		occupied, err := s.file.GetRows(sheet)
		if err != nil {
			return 0, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		return len(occupied) + 1, nil
	}

	if _, err := s.file.NewSheet(sheet); err != nil {
		return 0, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	header := make([]any, len(first.Columns))
	for i, col := range first.Columns {
		header[i] = col
	}
	if err := s.file.SetSheetRow(sheet, "A1", &header); err != nil {
		return 0, fmt.Errorf("failed to write header of sheet %s: %w", sheet, err)
	}
	// excelize seeds new workbooks with a default sheet
	if sheet != "Sheet1" {
		if err := s.file.DeleteSheet("Sheet1"); err != nil {
			return 0, fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}
	return 2, nil
}

func cellString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
