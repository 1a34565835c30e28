package boxcoder

// OrientedBoundingBox is the 7-DOF box emitted by perception layers
// (float32, centre-based naming).
//
//   - CenterX/Y/Z: position (metres, world frame)
//   - Length: extent along heading
//   - Width: extent perpendicular to heading
//   - Height: extent along Z
//   - HeadingRad: yaw around Z (radians)
type OrientedBoundingBox struct {
	CenterX    float32
	CenterY    float32
	CenterZ    float32
	Length     float32
	Width      float32
	Height     float32
	HeadingRad float32
}

// ZReference says what CenterZ of an OrientedBoundingBox measures. Cluster
// estimators that sit boxes on the lowest point report ZBottom.
type ZReference int

const (
	// ZCentroid means CenterZ is the vertical centre of the box.
	ZCentroid ZReference = iota
	// ZBottom means CenterZ is the bottom face height.
	ZBottom
)

// BoxFromOBB converts an oriented box to the codec layout. Length maps to
// dx, Width to dy and Height to dz; extras (e.g. vx, vy) are appended.
func BoxFromOBB(o OrientedBoundingBox, ref ZReference, extras ...float64) Box {
	z := float64(o.CenterZ)
	if ref == ZCentroid {
		z -= float64(o.Height) / 2
	}
	b := Box{
		X:  float64(o.CenterX),
		Y:  float64(o.CenterY),
		Z:  z,
		DX: float64(o.Length),
		DY: float64(o.Width),
		DZ: float64(o.Height),
		R:  float64(o.HeadingRad),
	}
	if len(extras) > 0 {
		b.Extras = append([]float64(nil), extras...)
	}
	return b
}

// OBB converts b back to an oriented box. Extras are dropped.
func (b Box) OBB(ref ZReference) OrientedBoundingBox {
	z := b.Z
	if ref == ZCentroid {
		z = b.centroidZ()
	}
	return OrientedBoundingBox{
		CenterX:    float32(b.X),
		CenterY:    float32(b.Y),
		CenterZ:    float32(z),
		Length:     float32(b.DX),
		Width:      float32(b.DY),
		Height:     float32(b.DZ),
		HeadingRad: float32(b.R),
	}
}

// BoxesFromOBBs converts a batch with no extras.
func BoxesFromOBBs(obbs []OrientedBoundingBox, ref ZReference) Boxes {
	out := make(Boxes, len(obbs))
	for i, o := range obbs {
		out[i] = BoxFromOBB(o, ref)
	}
	return out
}
