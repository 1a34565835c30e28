package boxio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/boxcoder/internal/boxcoder"
)

// ReadCSV parses a CSV box table. A first record whose leading field is
// not a number is taken as the header. Every record must have the same
// number of fields.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	tbl := &Table{}
	first := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if first {
			first = false
			if _, perr := parseField(record[0]); perr != nil {
				tbl.Header = make([]string, len(record))
				for i, name := range record {
					tbl.Header[i] = strings.TrimSpace(name)
				}
				continue
			}
		}

		row := make([]float64, len(record))
		for i, field := range record {
			v, perr := parseField(field)
			if perr != nil {
				fieldLine, col := cr.FieldPos(i)
				return nil, &LineError{Line: fieldLine, Err: fmt.Errorf("column %d: %w", col, perr)}
			}
			row[i] = v
		}
		b, err := boxcoder.BoxFromRow(row)
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		tbl.Boxes = append(tbl.Boxes, b)
	}
	return tbl, nil
}

// WriteCSV writes tbl as CSV. When tbl.Header is nil a default header is
// generated from the row width.
func WriteCSV(w io.Writer, tbl *Table) error {
	cw := csv.NewWriter(w)

	header := tbl.Header
	if header == nil {
		header = Header(tbl.Boxes.Shape().Cols, nil)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, 0, len(header))
	for i, b := range tbl.Boxes {
		record = record[:0]
		for _, v := range b.Row() {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func parseField(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
