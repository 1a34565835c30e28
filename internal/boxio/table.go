package boxio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/boxcoder/internal/boxcoder"
)

// ErrUnsupportedFormat is returned for file extensions other than .csv and .jsonl.
var ErrUnsupportedFormat = errors.New("unsupported box table format")

// FixedColumns names the channels every box carries.
var FixedColumns = []string{"x", "y", "z", "dx", "dy", "dz", "r"}

// Table is a batch of boxes plus the column names it was read with.
// Header is nil when the source had none.
type Table struct {
	Header []string
	Boxes  boxcoder.Boxes
}

// Header returns column names for a table of the given width. Extra
// channels take names from extraNames in order, then c1, c2, ...
func Header(width int, extraNames []string) []string {
	if width < len(FixedColumns) {
		width = len(FixedColumns)
	}
	h := make([]string, 0, width)
	h = append(h, FixedColumns...)
	for i := 0; len(h) < width; i++ {
		if i < len(extraNames) && extraNames[i] != "" {
			h = append(h, extraNames[i])
		} else {
			h = append(h, fmt.Sprintf("c%d", i+1))
		}
	}
	return h
}

// LineError reports a malformed row with its 1-based line number.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Read loads a table, choosing the format by file extension.
func Read(path string) (*Table, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open box table: %w", err)
	}
	defer f.Close()

	var tbl *Table
	switch format {
	case "csv":
		tbl, err = ReadCSV(f)
	default:
		tbl, err = ReadJSONL(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tbl, nil
}

// Write stores a table, choosing the format by file extension. JSON Lines
// output has no header.
func Write(path string, tbl *Table) (err error) {
	format, err := formatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create box table: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close box table: %w", cerr)
		}
	}()

	switch format {
	case "csv":
		return WriteCSV(f, tbl)
	default:
		return WriteJSONL(f, tbl.Boxes)
	}
}

func formatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return "csv", nil
	case ".jsonl", ".ndjson":
		return "jsonl", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
