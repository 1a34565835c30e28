package boxcoder

import "math"

// DeltaXYZWLHRName is the registry name of the 3D delta coder.
const DeltaXYZWLHRName = "DeltaXYZWLHRBBoxCoder"

// DefaultCodeSize is the channel count of a box without extras.
const DefaultCodeSize = MinChannels

// ValidationMode selects how non-positive sizes are handled. Shape checks
// are applied in every mode.
type ValidationMode int

const (
	// ValidationPermissive performs no size checks; degenerate anchors
	// yield Inf/NaN deltas.
	ValidationPermissive ValidationMode = iota
	// ValidationStrict rejects dx, dy or dz <= 0 with a *SizeError.
	ValidationStrict
)

func (m ValidationMode) String() string {
	switch m {
	case ValidationPermissive:
		return "permissive"
	case ValidationStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// DeltaXYZWLHRCoder encodes 3D boxes as deltas against anchors and decodes
// them back. A coder is immutable once built and safe for concurrent use.
type DeltaXYZWLHRCoder struct {
	// CodeSize documents the expected channel count. It is not enforced
	// against input width.
	CodeSize int
	Mode     ValidationMode
}

// Option configures a DeltaXYZWLHRCoder.
type Option func(*DeltaXYZWLHRCoder)

// WithCodeSize sets the documented channel count.
func WithCodeSize(n int) Option {
	return func(c *DeltaXYZWLHRCoder) { c.CodeSize = n }
}

// WithValidation sets the size validation mode.
func WithValidation(mode ValidationMode) Option {
	return func(c *DeltaXYZWLHRCoder) { c.Mode = mode }
}

// NewDeltaXYZWLHRCoder returns a coder with CodeSize 7 and permissive
// validation unless overridden.
func NewDeltaXYZWLHRCoder(opts ...Option) *DeltaXYZWLHRCoder {
	c := &DeltaXYZWLHRCoder{CodeSize: DefaultCodeSize, Mode: ValidationPermissive}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns CodeSize.
func (c *DeltaXYZWLHRCoder) Size() int {
	return c.CodeSize
}

// Encode computes the deltas that transform each src box into the matching
// dst box. src is typically anchors or proposals, dst ground truth.
//
// Per row, with z moved to the centroid for both boxes:
//
//	diagonal = sqrt(dx_src² + dy_src²)
//	xt, yt   = (x_dst - x_src)/diagonal, (y_dst - y_src)/diagonal
//	zt       = (z_dst - z_src)/dz_src
//	d*t      = ln(d*_dst / d*_src)
//	rt       = r_dst - r_src
//	ct_i     = c_dst_i - c_src_i
func (c *DeltaXYZWLHRCoder) Encode(src, dst Boxes) (Boxes, error) {
	if err := checkPair("encode", "src", "dst", src, dst); err != nil {
		return nil, err
	}
	if c.Mode == ValidationStrict {
		if err := checkSizes("encode", "src", src); err != nil {
			return nil, err
		}
		if err := checkSizes("encode", "dst", dst); err != nil {
			return nil, err
		}
	}

	out := make(Boxes, len(src))
	for i := range src {
		out[i] = encodeBox(src[i], dst[i])
	}
	return out, nil
}

// Decode applies deltas to anchors, the inverse of Encode for the same
// anchors. The result uses the bottom-face z convention.
func (c *DeltaXYZWLHRCoder) Decode(anchors, deltas Boxes) (Boxes, error) {
	if err := checkPair("decode", "anchors", "deltas", anchors, deltas); err != nil {
		return nil, err
	}
	if c.Mode == ValidationStrict {
		if err := checkSizes("decode", "anchors", anchors); err != nil {
			return nil, err
		}
	}

	out := make(Boxes, len(anchors))
	for i := range anchors {
		out[i] = decodeBox(anchors[i], deltas[i])
	}
	return out, nil
}

func encodeBox(a, g Box) Box {
	diagonal := math.Sqrt(a.DY*a.DY + a.DX*a.DX)
	t := Box{
		X:  (g.X - a.X) / diagonal,
		Y:  (g.Y - a.Y) / diagonal,
		Z:  (g.centroidZ() - a.centroidZ()) / a.DZ,
		DX: math.Log(g.DX / a.DX),
		DY: math.Log(g.DY / a.DY),
		DZ: math.Log(g.DZ / a.DZ),
		R:  g.R - a.R,
	}
	t.Extras = zipExtras(g.Extras, a.Extras, func(gv, av float64) float64 { return gv - av })
	return t
}

func decodeBox(a, t Box) Box {
	diagonal := math.Sqrt(a.DY*a.DY + a.DX*a.DX)
	g := Box{
		X:  t.X*diagonal + a.X,
		Y:  t.Y*diagonal + a.Y,
		DX: math.Exp(t.DX) * a.DX,
		DY: math.Exp(t.DY) * a.DY,
		DZ: math.Exp(t.DZ) * a.DZ,
		R:  t.R + a.R,
	}
	zc := t.Z*a.DZ + a.centroidZ()
	g.Z = zc - g.DZ/2
	g.Extras = zipExtras(t.Extras, a.Extras, func(tv, av float64) float64 { return tv + av })
	return g
}

// zipExtras pairs two equal-length channel tails. Callers have already
// checked the lengths.
func zipExtras(lhs, rhs []float64, fn func(l, r float64) float64) []float64 {
	if len(lhs) == 0 {
		return nil
	}
	out := make([]float64, len(lhs))
	for i := range lhs {
		out[i] = fn(lhs[i], rhs[i])
	}
	return out
}
