package targetstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/banshee-data/boxcoder/internal/boxcoder"
	"github.com/banshee-data/boxcoder/internal/boxio"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrRunNotFound is returned for a run ID with no stored run.
	ErrRunNotFound = errors.New("encode run not found")
	// ErrLengthMismatch is returned when anchors, targets and deltas differ in length.
	ErrLengthMismatch = errors.New("anchor, target and delta counts differ")
)

// Store is a SQLite-backed target store.
type Store struct {
	db *sql.DB
}

// RunMeta describes a new encode run.
type RunMeta struct {
	Coder    string
	CodeSize int
	Notes    string
}

// Run is a stored encode run.
type Run struct {
	ID          string
	Coder       string
	CodeSize    int
	Notes       string
	CreatedAt   time.Time
	TargetCount int
}

// TargetRow is one encoded row of a run.
type TargetRow struct {
	Index  int
	Anchor boxcoder.Box
	Target boxcoder.Box
	Delta  boxcoder.Box
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string) (*Store, error) {
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open target store: %w", err)
	}
	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("initialized target store schema at %s", path)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records a new run and returns its ID.
func (s *Store) CreateRun(ctx context.Context, meta RunMeta) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO encode_runs (run_id, coder, code_size, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, meta.Coder, meta.CodeSize, meta.Notes, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to insert encode run: %w", err)
	}
	return id, nil
}

// InsertTargets appends rows to a run in a single transaction. Row indices
// continue from the rows already stored for the run.
func (s *Store) InsertTargets(ctx context.Context, runID string, anchors, targets, deltas boxcoder.Boxes) (err error) {
	if len(anchors) != len(targets) || len(anchors) != len(deltas) {
		return fmt.Errorf("%w: %d anchors, %d targets, %d deltas",
			ErrLengthMismatch, len(anchors), len(targets), len(deltas))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err := runExists(ctx, tx, runID); err != nil {
		return err
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_index) + 1, 0) FROM encode_targets WHERE run_id = ?`, runID,
	).Scan(&next); err != nil {
		return fmt.Errorf("failed to read row index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO encode_targets (run_id, row_index, anchor_json, target_json, delta_json)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range anchors {
		a, err := boxio.MarshalRow(anchors[i].Row())
		if err != nil {
			return fmt.Errorf("row %d anchor: %w", i, err)
		}
		g, err := boxio.MarshalRow(targets[i].Row())
		if err != nil {
			return fmt.Errorf("row %d target: %w", i, err)
		}
		d, err := boxio.MarshalRow(deltas[i].Row())
		if err != nil {
			return fmt.Errorf("row %d delta: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, next+i, string(a), string(g), string(d)); err != nil {
			return fmt.Errorf("failed to insert target row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit targets: %w", err)
	}
	return nil
}

// Targets returns every row of a run in insertion order.
func (s *Store) Targets(ctx context.Context, runID string) ([]TargetRow, error) {
	if err := runExists(ctx, s.db, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_index, anchor_json, target_json, delta_json
		FROM encode_targets
		WHERE run_id = ?
		ORDER BY row_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	var out []TargetRow
	for rows.Next() {
		var tr TargetRow
		var a, g, d string
		if err := rows.Scan(&tr.Index, &a, &g, &d); err != nil {
			return nil, fmt.Errorf("failed to scan target row: %w", err)
		}
		if tr.Anchor, err = decodeBox(a); err != nil {
			return nil, fmt.Errorf("row %d anchor: %w", tr.Index, err)
		}
		if tr.Target, err = decodeBox(g); err != nil {
			return nil, fmt.Errorf("row %d target: %w", tr.Index, err)
		}
		if tr.Delta, err = decodeBox(d); err != nil {
			return nil, fmt.Errorf("row %d delta: %w", tr.Index, err)
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate targets: %w", err)
	}
	return out, nil
}

// Runs lists all runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.coder, r.code_size, r.notes, r.created_at,
		       (SELECT COUNT(*) FROM encode_targets t WHERE t.run_id = r.run_id)
		FROM encode_runs r
		ORDER BY r.created_at DESC, r.rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var createdNanos int64
		if err := rows.Scan(&r.ID, &r.Coder, &r.CodeSize, &r.Notes, &createdNanos, &r.TargetCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, createdNanos)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return out, nil
}

// DeleteRun removes a run and all its rows.
func (s *Store) DeleteRun(ctx context.Context, runID string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM encode_targets WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to delete targets: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM encode_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return tx.Commit()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func runExists(ctx context.Context, q queryRower, runID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM encode_runs WHERE run_id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	return nil
}

func decodeBox(data string) (boxcoder.Box, error) {
	row, err := boxio.UnmarshalRow([]byte(data))
	if err != nil {
		return boxcoder.Box{}, err
	}
	return boxcoder.BoxFromRow(row)
}
