// Package targetplot renders histograms of encoded regression targets, one
// plot per channel, to spot badly scaled or degenerate deltas.
package targetplot

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/boxcoder/internal/boxcoder"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultBins is used when a non-positive bin count is requested.
const DefaultBins = 40

// ErrNoData is returned when there are no delta rows to plot.
var ErrNoData = errors.New("no deltas to plot")

// DeltaNames labels the fixed delta channels.
var DeltaNames = []string{"xt", "yt", "zt", "dxt", "dyt", "dzt", "rt"}

// ChannelNames returns labels for a delta table of the given width. Extra
// channels use extraNames (suffixed "t") then ct1, ct2, ...
func ChannelNames(width int, extraNames []string) []string {
	names := append([]string(nil), DeltaNames...)
	for i := 0; len(names) < width; i++ {
		if i < len(extraNames) && extraNames[i] != "" {
			names = append(names, extraNames[i]+"t")
		} else {
			names = append(names, fmt.Sprintf("ct%d", i+1))
		}
	}
	return names
}

// ChannelStats summarises one channel. NonFinite counts NaN and ±Inf
// values, which are left out of the histogram.
type ChannelStats struct {
	Name      string
	Finite    int
	NonFinite int
	Min, Max  float64
}

// Histograms builds one histogram plot per delta channel.
func Histograms(deltas boxcoder.Boxes, names []string, bins int) ([]*plot.Plot, []ChannelStats, error) {
	shape := deltas.Shape()
	if shape.Rows == 0 {
		return nil, nil, ErrNoData
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	if len(names) < shape.Cols {
		names = ChannelNames(shape.Cols, nil)
	}

	plots := make([]*plot.Plot, 0, shape.Cols)
	stats := make([]ChannelStats, 0, shape.Cols)
	for j := 0; j < shape.Cols; j++ {
		st := ChannelStats{Name: names[j], Min: math.Inf(1), Max: math.Inf(-1)}
		values := make(plotter.Values, 0, shape.Rows)
		for i, b := range deltas {
			if b.Channels() != shape.Cols {
				return nil, nil, fmt.Errorf("row %d: %w", i, boxcoder.ErrShapeMismatch)
			}
			v := b.Row()[j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				st.NonFinite++
				continue
			}
			st.Finite++
			st.Min = math.Min(st.Min, v)
			st.Max = math.Max(st.Max, v)
			values = append(values, v)
		}
		stats = append(stats, st)

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s (n=%d, non-finite=%d)", st.Name, st.Finite, st.NonFinite)
		p.X.Label.Text = st.Name
		p.Y.Label.Text = "Count"
		if len(values) > 0 {
			h, err := plotter.NewHist(values, bins)
			if err != nil {
				return nil, nil, fmt.Errorf("channel %s: %w", st.Name, err)
			}
			p.Add(h)
		}
		plots = append(plots, p)
	}
	return plots, stats, nil
}

// SaveHistograms writes one PNG per delta channel into dir as
// <prefix>_<channel>.png and returns the paths written.
func SaveHistograms(dir, prefix string, deltas boxcoder.Boxes, names []string, bins int) ([]string, error) {
	plots, stats, err := Histograms(deltas, names, bins)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}

	paths := make([]string, 0, len(plots))
	for i, p := range plots {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", prefix, stats[i].Name))
		if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
