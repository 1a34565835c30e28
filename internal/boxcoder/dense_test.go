package boxcoder

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"
)

func sampleBatch() (Boxes, Boxes) {
	anchors := Boxes{
		{X: 0, Y: 0, Z: -1.7, DX: 3.9, DY: 1.6, DZ: 1.56, R: 0, Extras: []float64{0, 0}},
		{X: 10, Y: -5, Z: -1.2, DX: 0.8, DY: 0.6, DZ: 1.73, R: math.Pi / 2, Extras: []float64{1, -1}},
		{X: -20, Y: 30, Z: -0.5, DX: 1.76, DY: 0.6, DZ: 1.73, R: -math.Pi, Extras: []float64{0.5, 0.5}},
	}
	targets := Boxes{
		{X: 0.4, Y: -0.2, Z: -1.6, DX: 4.1, DY: 1.7, DZ: 1.5, R: 0.1, Extras: []float64{3.2, 0.1}},
		{X: 10.3, Y: -4.6, Z: -1.1, DX: 0.7, DY: 0.65, DZ: 1.8, R: 1.4, Extras: []float64{0.8, -1.5}},
		{X: -19.1, Y: 31, Z: -0.6, DX: 1.9, DY: 0.5, DZ: 1.7, R: 3.0, Extras: []float64{-2, 4}},
	}
	return anchors, targets
}

func TestEncodeDense_MatchesRowForm(t *testing.T) {
	c := NewDeltaXYZWLHRCoder()
	anchors, targets := sampleBatch()

	rowDeltas, err := c.Encode(anchors, targets)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	dense, err := c.EncodeDense(anchors.Dense(), targets.Dense())
	if err != nil {
		t.Fatalf("EncodeDense failed: %v", err)
	}
	if r, cols := dense.Dims(); r != 3 || cols != 9 {
		t.Fatalf("EncodeDense dims = (%d, %d), want (3, 9)", r, cols)
	}
	if !mat.EqualApprox(dense, rowDeltas.Dense(), 1e-12) {
		t.Errorf("dense deltas differ from row deltas:\n%v\n%v",
			mat.Formatted(dense), mat.Formatted(rowDeltas.Dense()))
	}

	decoded, err := c.DecodeDense(anchors.Dense(), dense)
	if err != nil {
		t.Fatalf("DecodeDense failed: %v", err)
	}
	got, err := BoxesFromDense(decoded)
	if err != nil {
		t.Fatalf("BoxesFromDense failed: %v", err)
	}
	if diff := cmp.Diff(targets, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("dense round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDense_InputsUntouched(t *testing.T) {
	c := NewDeltaXYZWLHRCoder()
	anchors, targets := sampleBatch()
	a, g := anchors.Dense(), targets.Dense()
	aCopy, gCopy := mat.DenseCopyOf(a), mat.DenseCopyOf(g)

	if _, err := c.EncodeDense(a, g); err != nil {
		t.Fatalf("EncodeDense failed: %v", err)
	}
	if !mat.Equal(a, aCopy) || !mat.Equal(g, gCopy) {
		t.Error("EncodeDense modified its inputs")
	}
}

func TestEncodeDense_ShapeErrors(t *testing.T) {
	c := NewDeltaXYZWLHRCoder()

	_, err := c.EncodeDense(mat.NewDense(2, 7, nil), mat.NewDense(3, 7, nil))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("row mismatch error = %v, want ErrShapeMismatch", err)
	}
	_, err = c.DecodeDense(mat.NewDense(2, 7, nil), mat.NewDense(2, 8, nil))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("column mismatch error = %v, want ErrShapeMismatch", err)
	}
	_, err = c.EncodeDense(mat.NewDense(2, 6, nil), mat.NewDense(2, 6, nil))
	if !errors.Is(err, ErrTooFewChannels) {
		t.Errorf("narrow input error = %v, want ErrTooFewChannels", err)
	}
}

func TestEncodeDense_Empty(t *testing.T) {
	c := NewDeltaXYZWLHRCoder()
	out, err := c.EncodeDense(&mat.Dense{}, &mat.Dense{})
	if err != nil {
		t.Fatalf("EncodeDense of empty input failed: %v", err)
	}
	if !out.IsEmpty() {
		t.Errorf("Expected empty output")
	}
	boxes, err := BoxesFromDense(out)
	if err != nil || len(boxes) != 0 {
		t.Errorf("BoxesFromDense(empty) = %v, %v", boxes, err)
	}
}

func TestEncodeDense_Strict(t *testing.T) {
	c := NewDeltaXYZWLHRCoder(WithValidation(ValidationStrict))
	a := mat.NewDense(1, 7, []float64{0, 0, 0, 1, 1, 0, 0})
	g := mat.NewDense(1, 7, []float64{0, 0, 0, 1, 1, 1, 0})

	_, err := c.EncodeDense(a, g)
	var se *SizeError
	if !errors.As(err, &se) {
		t.Fatalf("Expected *SizeError, got %v", err)
	}
	if se.Channel != "dz" || se.Operand != "src" {
		t.Errorf("SizeError = %s %s, want src dz", se.Operand, se.Channel)
	}

	_, err = c.DecodeDense(a, g)
	if !errors.Is(err, ErrNonPositiveSize) {
		t.Errorf("DecodeDense error = %v, want ErrNonPositiveSize", err)
	}
}

func TestBoxes_DensePanicsOnRaggedRows(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for ragged rows")
		}
	}()
	_ = Boxes{{DX: 1}, {DX: 1, Extras: []float64{1}}}.Dense()
}
