// Package testutil provides shared test fixtures for box tables.
package testutil

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/boxcoder/internal/boxcoder"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// RandomBoxes returns n boxes with strictly positive sizes and the given
// number of extra channels. Equal seeds give equal batches.
func RandomBoxes(seed int64, n, extras int) boxcoder.Boxes {
	rng := rand.New(rand.NewSource(seed))
	out := make(boxcoder.Boxes, n)
	for i := range out {
		b := boxcoder.Box{
			X:  rng.Float64()*100 - 50,
			Y:  rng.Float64()*100 - 50,
			Z:  rng.Float64()*4 - 2,
			DX: 0.2 + rng.Float64()*10,
			DY: 0.2 + rng.Float64()*5,
			DZ: 0.2 + rng.Float64()*3,
			R:  rng.Float64()*2*math.Pi - math.Pi,
		}
		for j := 0; j < extras; j++ {
			b.Extras = append(b.Extras, rng.Float64()*20-10)
		}
		out[i] = b
	}
	return out
}

// AssertBoxesNear fails the test if want and got differ by more than tol
// in any channel. NaNs compare equal to NaNs.
func AssertBoxesNear(t testing.TB, want, got boxcoder.Boxes, tol float64) {
	t.Helper()
	opts := []cmp.Option{cmpopts.EquateApprox(0, tol), cmpopts.EquateNaNs(), cmpopts.EquateEmpty()}
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Errorf("boxes mismatch (-want +got):\n%s", diff)
	}
}

// WriteFile writes body to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
