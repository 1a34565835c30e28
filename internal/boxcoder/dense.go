package boxcoder

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Column indices of the fixed channels.
const (
	colX = iota
	colY
	colZ
	colDX
	colDY
	colDZ
	colR
)

var sizeColumns = [...]struct {
	idx  int
	name string
}{{colDX, "dx"}, {colDY, "dy"}, {colDZ, "dz"}}

// EncodeDense is Encode over (N, C) matrices. The computation runs
// column-wise: inputs are split into one vector per channel, combined with
// vector kernels and concatenated back into a fresh matrix.
func (c *DeltaXYZWLHRCoder) EncodeDense(src, dst mat.Matrix) (*mat.Dense, error) {
	ss, ds := denseShape(src), denseShape(dst)
	if err := checkShapes("encode", "src", "dst", ss, ds); err != nil {
		return nil, err
	}
	if ss.Rows == 0 {
		return &mat.Dense{}, nil
	}
	a, g := splitCols(src), splitCols(dst)
	if c.Mode == ValidationStrict {
		if err := checkSizeCols("encode", "src", a); err != nil {
			return nil, err
		}
		if err := checkSizeCols("encode", "dst", g); err != nil {
			return nil, err
		}
	}

	n := ss.Rows
	za := centroidCol(a)
	zg := centroidCol(g)
	diagonal := diagonalCol(a)

	out := make([][]float64, ss.Cols)
	out[colX] = floats.SubTo(make([]float64, n), g[colX], a[colX])
	floats.Div(out[colX], diagonal)
	out[colY] = floats.SubTo(make([]float64, n), g[colY], a[colY])
	floats.Div(out[colY], diagonal)
	out[colZ] = floats.SubTo(make([]float64, n), zg, za)
	floats.Div(out[colZ], a[colDZ])
	for _, sc := range sizeColumns {
		out[sc.idx] = apply(floats.DivTo(make([]float64, n), g[sc.idx], a[sc.idx]), math.Log)
	}
	out[colR] = floats.SubTo(make([]float64, n), g[colR], a[colR])
	for j := MinChannels; j < ss.Cols; j++ {
		out[j] = floats.SubTo(make([]float64, n), g[j], a[j])
	}
	return catCols(n, out), nil
}

// DecodeDense is Decode over (N, C) matrices.
func (c *DeltaXYZWLHRCoder) DecodeDense(anchors, deltas mat.Matrix) (*mat.Dense, error) {
	as, ts := denseShape(anchors), denseShape(deltas)
	if err := checkShapes("decode", "anchors", "deltas", as, ts); err != nil {
		return nil, err
	}
	if as.Rows == 0 {
		return &mat.Dense{}, nil
	}
	a, t := splitCols(anchors), splitCols(deltas)
	if c.Mode == ValidationStrict {
		if err := checkSizeCols("decode", "anchors", a); err != nil {
			return nil, err
		}
	}

	n := as.Rows
	za := centroidCol(a)
	diagonal := diagonalCol(a)

	out := make([][]float64, as.Cols)
	out[colX] = floats.MulTo(make([]float64, n), t[colX], diagonal)
	floats.Add(out[colX], a[colX])
	out[colY] = floats.MulTo(make([]float64, n), t[colY], diagonal)
	floats.Add(out[colY], a[colY])
	for _, sc := range sizeColumns {
		out[sc.idx] = apply(append([]float64(nil), t[sc.idx]...), math.Exp)
		floats.Mul(out[sc.idx], a[sc.idx])
	}
	out[colZ] = floats.MulTo(make([]float64, n), t[colZ], a[colDZ])
	floats.Add(out[colZ], za)
	floats.AddScaled(out[colZ], -0.5, out[colDZ])
	out[colR] = floats.AddTo(make([]float64, n), t[colR], a[colR])
	for j := MinChannels; j < as.Cols; j++ {
		out[j] = floats.AddTo(make([]float64, n), t[j], a[j])
	}
	return catCols(n, out), nil
}

func denseShape(m mat.Matrix) Shape {
	r, c := m.Dims()
	return Shape{Rows: r, Cols: c}
}

// splitCols copies every column of m into its own slice.
func splitCols(m mat.Matrix) [][]float64 {
	_, c := m.Dims()
	cols := make([][]float64, c)
	for j := range cols {
		cols[j] = mat.Col(nil, j, m)
	}
	return cols
}

// catCols assembles column vectors into an (n, len(cols)) matrix.
func catCols(n int, cols [][]float64) *mat.Dense {
	out := mat.NewDense(n, len(cols), nil)
	for j, col := range cols {
		out.SetCol(j, col)
	}
	return out
}

// centroidCol returns z + dz/2.
func centroidCol(cols [][]float64) []float64 {
	return floats.AddScaledTo(make([]float64, len(cols[colZ])), cols[colZ], 0.5, cols[colDZ])
}

// diagonalCol returns sqrt(dy² + dx²).
func diagonalCol(cols [][]float64) []float64 {
	n := len(cols[colDX])
	d := floats.MulTo(make([]float64, n), cols[colDY], cols[colDY])
	floats.Add(d, floats.MulTo(make([]float64, n), cols[colDX], cols[colDX]))
	return apply(d, math.Sqrt)
}

// apply replaces each element of s with fn(s[i]) and returns s.
func apply(s []float64, fn func(float64) float64) []float64 {
	for i, v := range s {
		s[i] = fn(v)
	}
	return s
}

func checkSizeCols(op, operand string, cols [][]float64) error {
	for _, sc := range sizeColumns {
		for i, v := range cols[sc.idx] {
			if !(v > 0) {
				return &SizeError{Op: op, Operand: operand, Row: i, Channel: sc.name, Value: v}
			}
		}
	}
	return nil
}
