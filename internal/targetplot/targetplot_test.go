package targetplot

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/boxcoder/internal/boxcoder"
)

func TestChannelNames(t *testing.T) {
	got := ChannelNames(10, []string{"vx", "vy"})
	want := []string{"xt", "yt", "zt", "dxt", "dyt", "dzt", "rt", "vxt", "vyt", "ct3"}
	if len(got) != len(want) {
		t.Fatalf("ChannelNames length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ChannelNames[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHistograms_Stats(t *testing.T) {
	deltas := boxcoder.Boxes{
		{X: 0.1, Y: -0.2, DX: 0.05, R: 0.1},
		{X: 0.3, Y: math.NaN(), DX: math.Inf(1), R: -0.1},
		{X: -0.5, Y: 0.2, DX: 0, R: 0},
	}

	plots, stats, err := Histograms(deltas, nil, 10)
	if err != nil {
		t.Fatalf("Histograms failed: %v", err)
	}
	if len(plots) != 7 || len(stats) != 7 {
		t.Fatalf("Expected 7 plots and stats, got %d and %d", len(plots), len(stats))
	}

	x := stats[0]
	if x.Name != "xt" || x.Finite != 3 || x.NonFinite != 0 {
		t.Errorf("xt stats = %+v", x)
	}
	if x.Min != -0.5 || x.Max != 0.3 {
		t.Errorf("xt range = [%g, %g], want [-0.5, 0.3]", x.Min, x.Max)
	}
	if stats[1].NonFinite != 1 || stats[3].NonFinite != 1 {
		t.Errorf("Expected one non-finite yt and dxt, got %d and %d", stats[1].NonFinite, stats[3].NonFinite)
	}
	if plots[1].Title.Text != "yt (n=2, non-finite=1)" {
		t.Errorf("yt title = %q", plots[1].Title.Text)
	}
}

func TestHistograms_Errors(t *testing.T) {
	if _, _, err := Histograms(nil, nil, 10); !errors.Is(err, ErrNoData) {
		t.Errorf("Histograms(nil) error = %v, want ErrNoData", err)
	}
	ragged := boxcoder.Boxes{{}, {Extras: []float64{1}}}
	if _, _, err := Histograms(ragged, nil, 10); !errors.Is(err, boxcoder.ErrShapeMismatch) {
		t.Errorf("Histograms(ragged) error = %v, want ErrShapeMismatch", err)
	}
}

func TestSaveHistograms(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	deltas := boxcoder.Boxes{
		{X: 0.1, Y: 0.2, Z: 0.3, DX: 0.01, DY: -0.02, DZ: 0.03, R: 0.5, Extras: []float64{1}},
		{X: -0.1, Y: 0.0, Z: 0.1, DX: 0.02, DY: 0.01, DZ: -0.01, R: -0.5, Extras: []float64{-1}},
	}

	paths, err := SaveHistograms(dir, "run", deltas, ChannelNames(8, []string{"vx"}), 0)
	if err != nil {
		t.Fatalf("SaveHistograms failed: %v", err)
	}
	if len(paths) != 8 {
		t.Fatalf("Expected 8 files, got %d", len(paths))
	}
	if want := filepath.Join(dir, "run_vxt.png"); paths[7] != want {
		t.Errorf("last path = %q, want %q", paths[7], want)
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			t.Errorf("Expected plot file %s: %v", p, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("plot file %s is empty", p)
		}
	}
}
