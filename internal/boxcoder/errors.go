package boxcoder

import (
	"errors"
	"fmt"
)

// MinChannels is the number of fixed channels every box carries.
const MinChannels = 7

var (
	// ErrShapeMismatch is returned when two operands differ in row or column count.
	ErrShapeMismatch = errors.New("box shape mismatch")
	// ErrTooFewChannels is returned when a box has fewer than MinChannels values.
	ErrTooFewChannels = errors.New("too few box channels")
	// ErrNonPositiveSize is returned in strict mode for dx, dy or dz <= 0.
	ErrNonPositiveSize = errors.New("non-positive box size")
)

// Shape is the (rows, columns) extent of a batch.
type Shape struct {
	Rows int
	Cols int
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d)", s.Rows, s.Cols)
}

// ShapeError reports malformed input shapes.
type ShapeError struct {
	Op       string // "encode" or "decode"
	Operand  string // which operand failed, e.g. "dst" or "deltas"
	Row      int    // offending row, or -1 when the whole batch is at fault
	Expected Shape
	Actual   Shape
	Err      error
}

func (e *ShapeError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("%s: %s row %d: %v: expected %d columns, got %d",
			e.Op, e.Operand, e.Row, e.Err, e.Expected.Cols, e.Actual.Cols)
	}
	return fmt.Sprintf("%s: %s: %v: expected %s, got %s",
		e.Op, e.Operand, e.Err, e.Expected, e.Actual)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// SizeError reports a non-positive extent found under ValidationStrict.
type SizeError struct {
	Op      string
	Operand string
	Row     int
	Channel string // "dx", "dy" or "dz"
	Value   float64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s: %s row %d: %v: %s=%g",
		e.Op, e.Operand, e.Row, ErrNonPositiveSize, e.Channel, e.Value)
}

func (e *SizeError) Unwrap() error { return ErrNonPositiveSize }
