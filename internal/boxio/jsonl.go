package boxio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/banshee-data/boxcoder/internal/boxcoder"
)

const maxJSONLLine = 1 << 20

// jsonFloat marshals non-finite values as strings since JSON numbers
// cannot hold them.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch s {
		case "NaN":
			*f = jsonFloat(math.NaN())
		case "+Inf", "Inf":
			*f = jsonFloat(math.Inf(1))
		case "-Inf":
			*f = jsonFloat(math.Inf(-1))
		default:
			return fmt.Errorf("invalid number string %q", s)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

// MarshalRow encodes a row as a JSON array, writing non-finite values as
// strings.
func MarshalRow(row []float64) ([]byte, error) {
	vals := make([]jsonFloat, len(row))
	for i, v := range row {
		vals[i] = jsonFloat(v)
	}
	return json.Marshal(vals)
}

// UnmarshalRow is the inverse of MarshalRow.
func UnmarshalRow(data []byte) ([]float64, error) {
	var vals []jsonFloat
	if err := json.Unmarshal(data, &vals); err != nil {
		return nil, err
	}
	row := make([]float64, len(vals))
	for i, v := range vals {
		row[i] = float64(v)
	}
	return row, nil
}

// ReadJSONL parses one JSON array per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxJSONLLine)

	tbl := &Table{}
	width := -1
	for line := 1; sc.Scan(); line++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		row, err := UnmarshalRow(raw)
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		if width >= 0 && len(row) != width {
			return nil, &LineError{Line: line, Err: fmt.Errorf("%w: expected %d values, got %d",
				boxcoder.ErrShapeMismatch, width, len(row))}
		}
		width = len(row)

		b, err := boxcoder.BoxFromRow(row)
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		tbl.Boxes = append(tbl.Boxes, b)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL: %w", err)
	}
	return tbl, nil
}

// WriteJSONL writes one JSON array per box.
func WriteJSONL(w io.Writer, boxes boxcoder.Boxes) error {
	bw := bufio.NewWriter(w)
	for i, b := range boxes {
		data, err := MarshalRow(b.Row())
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		bw.Write(data)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush JSONL: %w", err)
	}
	return nil
}
