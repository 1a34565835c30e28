package boxcoder

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Box is one row of a box batch.
//
// Fields:
//   - X, Y: centre position (metres)
//   - Z: bottom face height (metres), not the centroid
//   - DX, DY, DZ: extents along each axis (metres, > 0)
//   - R: heading (radians, unbounded)
//   - Extras: trailing channels paired positionally between operands
//
// The same struct carries encoded deltas, in which case each field holds the
// corresponding normalised offset or log ratio.
type Box struct {
	X, Y, Z    float64
	DX, DY, DZ float64
	R          float64
	Extras     []float64
}

// Channels returns the row width, MinChannels plus the extra count.
func (b Box) Channels() int {
	return MinChannels + len(b.Extras)
}

// Row flattens the box to [x, y, z, dx, dy, dz, r, extras...].
func (b Box) Row() []float64 {
	row := make([]float64, 0, b.Channels())
	row = append(row, b.X, b.Y, b.Z, b.DX, b.DY, b.DZ, b.R)
	return append(row, b.Extras...)
}

// Clone returns a copy that shares no memory with b.
func (b Box) Clone() Box {
	out := b
	if b.Extras != nil {
		out.Extras = append([]float64(nil), b.Extras...)
	}
	return out
}

// centroidZ is the vertical centre of the box.
func (b Box) centroidZ() float64 {
	return b.Z + b.DZ/2
}

// BoxFromRow builds a Box from a flat row. The row is copied.
func BoxFromRow(row []float64) (Box, error) {
	if len(row) < MinChannels {
		return Box{}, fmt.Errorf("%w: row has %d values, need at least %d",
			ErrTooFewChannels, len(row), MinChannels)
	}
	b := Box{
		X: row[0], Y: row[1], Z: row[2],
		DX: row[3], DY: row[4], DZ: row[5],
		R: row[6],
	}
	if len(row) > MinChannels {
		b.Extras = append([]float64(nil), row[MinChannels:]...)
	}
	return b, nil
}

// Boxes is an ordered batch of box rows, the (N, C) array of the codec.
type Boxes []Box

// Shape reports the batch extent. Cols is taken from the first row; use
// validateRows to confirm every row agrees.
func (bs Boxes) Shape() Shape {
	if len(bs) == 0 {
		return Shape{}
	}
	return Shape{Rows: len(bs), Cols: bs[0].Channels()}
}

// Rows flattens the batch into one slice per box.
func (bs Boxes) Rows() [][]float64 {
	out := make([][]float64, len(bs))
	for i, b := range bs {
		out[i] = b.Row()
	}
	return out
}

// Dense packs the batch into an (N, C) matrix. It returns an empty matrix
// for an empty batch and panics if rows differ in width.
func (bs Boxes) Dense() *mat.Dense {
	shape := bs.Shape()
	if shape.Rows == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, 0, shape.Rows*shape.Cols)
	for i, b := range bs {
		if b.Channels() != shape.Cols {
			panic(fmt.Sprintf("boxcoder: row %d has %d channels, want %d", i, b.Channels(), shape.Cols))
		}
		data = append(data, b.Row()...)
	}
	return mat.NewDense(shape.Rows, shape.Cols, data)
}

// BoxesFromDense unpacks an (N, C) matrix into rows.
func BoxesFromDense(m mat.Matrix) (Boxes, error) {
	r, c := m.Dims()
	if r == 0 {
		return Boxes{}, nil
	}
	if c < MinChannels {
		return nil, fmt.Errorf("%w: matrix has %d columns, need at least %d",
			ErrTooFewChannels, c, MinChannels)
	}
	out := make(Boxes, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		b, err := BoxFromRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
