package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/banshee-data/boxcoder/internal/boxcoder"
	"github.com/banshee-data/boxcoder/internal/boxio"
	"github.com/banshee-data/boxcoder/internal/config"
	"github.com/banshee-data/boxcoder/internal/targetplot"
	"github.com/banshee-data/boxcoder/internal/targetstore"
	"gonum.org/v1/gonum/floats"
)

// errRoundTrip is returned by verify when the error exceeds the tolerance.
var errRoundTrip = errors.New("round-trip error exceeds tolerance")

func loadConfig(path string) (*config.CoderConfig, error) {
	if path == "" {
		return config.DefaultCoderConfig(), nil
	}
	return config.LoadCoderConfig(path)
}

func readPair(lhsPath, rhsPath string) (boxcoder.Boxes, boxcoder.Boxes, error) {
	lhs, err := boxio.Read(lhsPath)
	if err != nil {
		return nil, nil, err
	}
	rhs, err := boxio.Read(rhsPath)
	if err != nil {
		return nil, nil, err
	}
	return lhs.Boxes, rhs.Boxes, nil
}

func requireFlags(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		if fs.Lookup(name).Value.String() == "" {
			return fmt.Errorf("-%s is required", name)
		}
	}
	return nil
}

func runEncode(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	anchorsPath := fs.String("anchors", "", "anchor/source box table (required)")
	boxesPath := fs.String("boxes", "", "target box table (required)")
	outPath := fs.String("out", "", "output delta table (required)")
	configPath := fs.String("config", "", "coder config JSON")
	dbPath := fs.String("db", "", "sqlite target store to record the run in")
	plotDir := fs.String("plot", "", "directory for per-channel delta histograms")
	bins := fs.Int("bins", targetplot.DefaultBins, "histogram bin count")
	notes := fs.String("notes", "", "notes stored with the run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "anchors", "boxes", "out"); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	coder, err := cfg.NewCoder()
	if err != nil {
		return err
	}

	anchors, boxes, err := readPair(*anchorsPath, *boxesPath)
	if err != nil {
		return err
	}
	deltas, err := coder.Encode(anchors, boxes)
	if err != nil {
		return err
	}

	names := targetplot.ChannelNames(deltas.Shape().Cols, cfg.GetExtraChannels())
	if err := boxio.Write(*outPath, &boxio.Table{Header: headerFor(deltas, names), Boxes: deltas}); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "encoded %d boxes -> %s\n", len(deltas), *outPath)

	prefix := "deltas"
	if *dbPath != "" {
		runID, err := recordRun(*dbPath, cfg, coder, *notes, anchors, boxes, deltas)
		if err != nil {
			return err
		}
		prefix = runID
		fmt.Fprintf(stdout, "recorded run %s in %s\n", runID, *dbPath)
	}

	if *plotDir != "" && len(deltas) > 0 {
		paths, err := targetplot.SaveHistograms(*plotDir, prefix, deltas, names, *bins)
		if err != nil {
			return err
		}
		log.Printf("wrote %d histograms to %s", len(paths), *plotDir)
	}
	return nil
}

func recordRun(dbPath string, cfg *config.CoderConfig, coder boxcoder.Coder, notes string, anchors, boxes, deltas boxcoder.Boxes) (string, error) {
	store, err := targetstore.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	ctx := context.Background()
	runID, err := store.CreateRun(ctx, targetstore.RunMeta{
		Coder:    cfg.GetCoder(),
		CodeSize: coder.Size(),
		Notes:    notes,
	})
	if err != nil {
		return "", err
	}
	if err := store.InsertTargets(ctx, runID, anchors, boxes, deltas); err != nil {
		return "", err
	}
	return runID, nil
}

func runDecode(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	anchorsPath := fs.String("anchors", "", "anchor box table (required)")
	deltasPath := fs.String("deltas", "", "delta table (required)")
	outPath := fs.String("out", "", "output box table (required)")
	configPath := fs.String("config", "", "coder config JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "anchors", "deltas", "out"); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	coder, err := cfg.NewCoder()
	if err != nil {
		return err
	}

	anchors, deltas, err := readPair(*anchorsPath, *deltasPath)
	if err != nil {
		return err
	}
	boxes, err := coder.Decode(anchors, deltas)
	if err != nil {
		return err
	}

	names := boxio.Header(boxes.Shape().Cols, cfg.GetExtraChannels())
	if err := boxio.Write(*outPath, &boxio.Table{Header: headerFor(boxes, names), Boxes: boxes}); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "decoded %d boxes -> %s\n", len(boxes), *outPath)
	return nil
}

func runVerify(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	anchorsPath := fs.String("anchors", "", "anchor box table (required)")
	boxesPath := fs.String("boxes", "", "target box table (required)")
	configPath := fs.String("config", "", "coder config JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "anchors", "boxes"); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	coder, err := cfg.NewCoder()
	if err != nil {
		return err
	}

	anchors, boxes, err := readPair(*anchorsPath, *boxesPath)
	if err != nil {
		return err
	}
	deltas, err := coder.Encode(anchors, boxes)
	if err != nil {
		return err
	}
	decoded, err := coder.Decode(anchors, deltas)
	if err != nil {
		return err
	}

	worst, worstRow := maxRoundTripError(boxes, decoded)
	tol := cfg.GetRoundTripTolerance()
	fmt.Fprintf(stdout, "rows=%d max_abs_error=%g worst_row=%d tolerance=%g\n", len(boxes), worst, worstRow, tol)
	if !(worst <= tol) {
		return fmt.Errorf("%w: %g > %g at row %d", errRoundTrip, worst, tol, worstRow)
	}
	return nil
}

// maxRoundTripError returns the largest L-infinity distance between
// matching rows, or NaN if any row differs by NaN.
func maxRoundTripError(want, got boxcoder.Boxes) (float64, int) {
	worst, worstRow := 0.0, -1
	for i := range want {
		w := want[i].Row()
		diff := floats.SubTo(make([]float64, len(w)), w, got[i].Row())
		if floats.HasNaN(diff) {
			return math.NaN(), i
		}
		if d := floats.Norm(diff, math.Inf(1)); d > worst || worstRow < 0 {
			worst, worstRow = d, i
		}
	}
	return worst, worstRow
}

func runCoders(stdout io.Writer) error {
	for _, name := range boxcoder.Names() {
		c, err := boxcoder.New(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\tcode_size=%d\n", name, c.Size())
	}
	return nil
}

// headerFor drops the header when the batch is empty so the CSV writer
// falls back to the fixed columns.
func headerFor(bs boxcoder.Boxes, names []string) []string {
	if len(bs) == 0 {
		return nil
	}
	return names[:bs.Shape().Cols]
}
