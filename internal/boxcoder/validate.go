package boxcoder

// validateRows checks that every row of bs has at least MinChannels values
// and that all rows share one width. It returns that width.
func validateRows(op, operand string, bs Boxes) (int, error) {
	shape := bs.Shape()
	if shape.Rows == 0 {
		return 0, nil
	}
	if shape.Cols < MinChannels {
		return 0, &ShapeError{
			Op: op, Operand: operand, Row: 0,
			Expected: Shape{Rows: shape.Rows, Cols: MinChannels},
			Actual:   shape,
			Err:      ErrTooFewChannels,
		}
	}
	for i, b := range bs {
		if b.Channels() != shape.Cols {
			return 0, &ShapeError{
				Op: op, Operand: operand, Row: i,
				Expected: shape,
				Actual:   Shape{Rows: shape.Rows, Cols: b.Channels()},
				Err:      ErrShapeMismatch,
			}
		}
	}
	return shape.Cols, nil
}

// checkPair validates both operands and that their shapes agree.
func checkPair(op, lhsName, rhsName string, lhs, rhs Boxes) error {
	lc, err := validateRows(op, lhsName, lhs)
	if err != nil {
		return err
	}
	rc, err := validateRows(op, rhsName, rhs)
	if err != nil {
		return err
	}
	want := Shape{Rows: len(lhs), Cols: lc}
	got := Shape{Rows: len(rhs), Cols: rc}
	if want != got {
		return &ShapeError{
			Op: op, Operand: rhsName, Row: -1,
			Expected: want, Actual: got,
			Err: ErrShapeMismatch,
		}
	}
	return nil
}

// checkShapes is the dense counterpart of checkPair.
func checkShapes(op, lhsName, rhsName string, lhs, rhs Shape) error {
	if lhs.Rows > 0 && lhs.Cols < MinChannels {
		return &ShapeError{
			Op: op, Operand: lhsName, Row: -1,
			Expected: Shape{Rows: lhs.Rows, Cols: MinChannels}, Actual: lhs,
			Err: ErrTooFewChannels,
		}
	}
	if lhs != rhs {
		return &ShapeError{
			Op: op, Operand: rhsName, Row: -1,
			Expected: lhs, Actual: rhs,
			Err: ErrShapeMismatch,
		}
	}
	return nil
}

// checkSizes rejects any row with a non-positive extent. NaN sizes are
// rejected too since they fail the > 0 comparison.
func checkSizes(op, operand string, bs Boxes) error {
	for i, b := range bs {
		for _, ch := range [...]struct {
			name string
			v    float64
		}{{"dx", b.DX}, {"dy", b.DY}, {"dz", b.DZ}} {
			if !(ch.v > 0) {
				return &SizeError{Op: op, Operand: operand, Row: i, Channel: ch.name, Value: ch.v}
			}
		}
	}
	return nil
}
