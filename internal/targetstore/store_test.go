package targetstore

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/banshee-data/boxcoder/internal/boxcoder"
	"github.com/banshee-data/boxcoder/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "targets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func encodedBatch(t *testing.T) (anchors, targets, deltas boxcoder.Boxes) {
	t.Helper()
	anchors = boxcoder.Boxes{
		{X: 0, Y: 0, Z: 0, DX: 2, DY: 2, DZ: 2, R: 0, Extras: []float64{0, 0}},
		{X: 5, Y: 5, Z: -1, DX: 4, DY: 1.8, DZ: 1.5, R: 1, Extras: []float64{1, 1}},
	}
	targets = boxcoder.Boxes{
		{X: 1, Y: 0, Z: 1, DX: 2, DY: 2, DZ: 2, R: 0, Extras: []float64{0.5, -0.5}},
		{X: 5.5, Y: 4.5, Z: -0.9, DX: 4.4, DY: 1.7, DZ: 1.6, R: 1.2, Extras: []float64{2, 0}},
	}
	var err error
	deltas, err = boxcoder.NewDeltaXYZWLHRCoder().Encode(anchors, targets)
	require.NoError(t, err)
	return anchors, targets, deltas
}

func TestOpen_MigratesToLatest(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp())

	require.NoError(t, s.MigrateDown())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, s.MigrateUp())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	anchors, targets, deltas := encodedBatch(t)

	runID, err := s.CreateRun(ctx, RunMeta{Coder: boxcoder.DeltaXYZWLHRName, CodeSize: 9, Notes: "unit"})
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	require.NoError(t, err, "run ID should be a UUID")

	require.NoError(t, s.InsertTargets(ctx, runID, anchors, targets, deltas))

	rows, err := s.Targets(ctx, runID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for i, row := range rows {
		assert.Equal(t, i, row.Index)
		if diff := cmp.Diff(anchors[i], row.Anchor); diff != "" {
			t.Errorf("row %d anchor mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(targets[i], row.Target); diff != "" {
			t.Errorf("row %d target mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(deltas[i], row.Delta); diff != "" {
			t.Errorf("row %d delta mismatch (-want +got):\n%s", i, diff)
		}
	}

	// A second insert continues the row numbering.
	require.NoError(t, s.InsertTargets(ctx, runID, anchors[:1], targets[:1], deltas[:1]))
	rows, err = s.Targets(ctx, runID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 2, rows[2].Index)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, boxcoder.DeltaXYZWLHRName, runs[0].Coder)
	assert.Equal(t, 9, runs[0].CodeSize)
	assert.Equal(t, "unit", runs[0].Notes)
	assert.Equal(t, 3, runs[0].TargetCount)
	assert.False(t, runs[0].CreatedAt.IsZero())

	require.NoError(t, s.DeleteRun(ctx, runID))
	runs, err = s.Runs(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
	_, err = s.Targets(ctx, runID)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_RunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.CreateRun(ctx, RunMeta{Coder: "a", CodeSize: 7})
	require.NoError(t, err)
	second, err := s.CreateRun(ctx, RunMeta{Coder: "b", CodeSize: 7})
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
	assert.Zero(t, runs[0].TargetCount)
}

func TestStore_NonFiniteDeltas(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	anchors := boxcoder.Boxes{{DX: 0, DY: 0, DZ: 1}}
	targets := boxcoder.Boxes{{X: 1, DX: 1, DY: 1, DZ: 1}}
	deltas, err := boxcoder.NewDeltaXYZWLHRCoder().Encode(anchors, targets)
	require.NoError(t, err)
	require.True(t, math.IsInf(deltas[0].X, 1))

	runID, err := s.CreateRun(ctx, RunMeta{Coder: boxcoder.DeltaXYZWLHRName, CodeSize: 7})
	require.NoError(t, err)
	require.NoError(t, s.InsertTargets(ctx, runID, anchors, targets, deltas))

	rows, err := s.Targets(ctx, runID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	if diff := cmp.Diff(deltas[0], rows[0].Delta, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("non-finite delta mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_RandomBatch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	anchors := testutil.RandomBoxes(1, 200, 2)
	targets := testutil.RandomBoxes(2, 200, 2)
	deltas, err := boxcoder.NewDeltaXYZWLHRCoder().Encode(anchors, targets)
	require.NoError(t, err)

	runID, err := s.CreateRun(ctx, RunMeta{Coder: boxcoder.DeltaXYZWLHRName, CodeSize: 9})
	require.NoError(t, err)
	require.NoError(t, s.InsertTargets(ctx, runID, anchors, targets, deltas))

	rows, err := s.Targets(ctx, runID)
	require.NoError(t, err)
	require.Len(t, rows, 200)
	gotDeltas := make(boxcoder.Boxes, len(rows))
	for i, row := range rows {
		gotDeltas[i] = row.Delta
	}
	testutil.AssertBoxesNear(t, deltas, gotDeltas, 0)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	anchors, targets, deltas := encodedBatch(t)

	t.Run("unknown run", func(t *testing.T) {
		missing := uuid.NewString()
		assert.ErrorIs(t, s.InsertTargets(ctx, missing, anchors, targets, deltas), ErrRunNotFound)
		_, err := s.Targets(ctx, missing)
		assert.ErrorIs(t, err, ErrRunNotFound)
		assert.ErrorIs(t, s.DeleteRun(ctx, missing), ErrRunNotFound)
	})

	t.Run("length mismatch", func(t *testing.T) {
		runID, err := s.CreateRun(ctx, RunMeta{Coder: "x", CodeSize: 7})
		require.NoError(t, err)
		err = s.InsertTargets(ctx, runID, anchors, targets[:1], deltas)
		assert.ErrorIs(t, err, ErrLengthMismatch)

		rows, err := s.Targets(ctx, runID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.CreateRun(cctx, RunMeta{Coder: "x", CodeSize: 7})
		assert.Error(t, err)
	})
}
