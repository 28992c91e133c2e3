// SQLite-backed Store. Pure Go driver, so run archives work without cgo.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/cobubbles/cobubbles/sim"
)

// schema holds every run in three tables: the run row, its flat parameter
// view, and one count row per (iteration, size) pair. Empty snapshots are
// kept as a sentinel count row (size 1, n 0) so iteration indices stay
// dense.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    variant TEXT NOT NULL,
    created_at TEXT NOT NULL,
    steps INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS params (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    value REAL NOT NULL,
    PRIMARY KEY (run_id, name)
);

CREATE TABLE IF NOT EXISTS counts (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    iter INTEGER NOT NULL,
    size INTEGER NOT NULL,
    n INTEGER NOT NULL,
    PRIMARY KEY (run_id, iter, size)
);
CREATE INDEX IF NOT EXISTS idx_counts_iter ON counts(run_id, iter);
`

// SQLiteStore implements Store on a single SQLite file (or :memory:).
type SQLiteStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore creates a store over the given database path. Init
// opens it.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the schema. Calling Init twice is
// a no-op.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("store not initialized")
	}
	return s.db, nil
}

// SaveRun writes the run row, parameters and the full count history in
// one transaction, replacing any previous state under the same ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if run.ID == "" {
		return errors.New("run ID is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, variant, created_at, steps)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			variant = excluded.variant,
			created_at = excluded.created_at,
			steps = excluded.steps
	`, run.ID, run.Variant, run.CreatedAt.UTC().Format(time.RFC3339), len(run.History))
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM params WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear params for %s: %w", run.ID, err)
	}
	for name, value := range run.Params {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO params (run_id, name, value) VALUES (?, ?, ?)`,
			run.ID, name, value)
		if err != nil {
			return fmt.Errorf("save param %s: %w", name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM counts WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear counts for %s: %w", run.ID, err)
	}
	if err := insertSteps(ctx, tx, run.ID, 0, run.History); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// AppendSteps writes the count rows for steps startIter onward and bumps
// the run's step total.
func (s *SQLiteStore) AppendSteps(ctx context.Context, id string, startIter int, steps []sim.Snapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var have int
	err = tx.QueryRowContext(ctx, `SELECT steps FROM runs WHERE id = ?`, id).Scan(&have)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("append to %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read step count for %s: %w", id, err)
	}
	if startIter != have {
		return fmt.Errorf("append to %s: start %d does not follow stored step %d", id, startIter, have-1)
	}

	if err := insertSteps(ctx, tx, id, startIter, steps); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE runs SET steps = ? WHERE id = ?`, startIter+len(steps), id)
	if err != nil {
		return fmt.Errorf("update step count for %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// insertSteps writes one count row per (iter, size), with the sentinel
// row standing in for empty snapshots.
func insertSteps(ctx context.Context, tx *sql.Tx, id string, startIter int, steps []sim.Snapshot) error {
	for i, snap := range steps {
		iter := startIter + i
		if len(snap) == 0 {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO counts (run_id, iter, size, n) VALUES (?, ?, 1, 0)
				ON CONFLICT(run_id, iter, size) DO UPDATE SET n = excluded.n
			`, id, iter)
			if err != nil {
				return fmt.Errorf("save empty step %d: %w", iter, err)
			}
			continue
		}
		for _, size := range snap.Keys() {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO counts (run_id, iter, size, n) VALUES (?, ?, ?, ?)
				ON CONFLICT(run_id, iter, size) DO UPDATE SET n = excluded.n
			`, id, iter, size, snap[size])
			if err != nil {
				return fmt.Errorf("save step %d size %d: %w", iter, size, err)
			}
		}
	}
	return nil
}

// LoadRun reads one run back, validating the history shape before
// returning it.
func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (*Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var variant, createdAt string
	var steps int
	err = db.QueryRowContext(ctx,
		`SELECT variant, created_at, steps FROM runs WHERE id = ?`, id).
		Scan(&variant, &createdAt, &steps)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load run %s: %w", id, err)
	}
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, false, fmt.Errorf("load run %s: bad created_at %q: %w", id, createdAt, err)
	}

	params, err := s.loadParams(ctx, db, id)
	if err != nil {
		return nil, false, err
	}
	history, err := s.loadHistory(ctx, db, id, steps)
	if err != nil {
		return nil, false, err
	}

	return &Run{
		ID:        id,
		Variant:   variant,
		CreatedAt: created,
		Params:    params,
		History:   history,
	}, true, nil
}

func (s *SQLiteStore) loadParams(ctx context.Context, db *sql.DB, id string) (map[string]float64, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, value FROM params WHERE run_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("load params for %s: %w", id, err)
	}
	defer rows.Close()

	params := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan param for %s: %w", id, err)
		}
		params[name] = value
	}
	return params, rows.Err()
}

func (s *SQLiteStore) loadHistory(ctx context.Context, db *sql.DB, id string, steps int) ([]sim.Snapshot, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT iter, size, n FROM counts WHERE run_id = ? ORDER BY iter, size`, id)
	if err != nil {
		return nil, fmt.Errorf("load counts for %s: %w", id, err)
	}
	defer rows.Close()

	history := make([]sim.Snapshot, steps)
	seen := make([]bool, steps)
	for i := range history {
		history[i] = sim.Snapshot{}
	}
	for rows.Next() {
		var iter, size, n int
		if err := rows.Scan(&iter, &size, &n); err != nil {
			return nil, fmt.Errorf("scan count for %s: %w", id, err)
		}
		if iter < 0 || iter >= steps {
			return nil, fmt.Errorf("run %s: count row at step %d outside 0..%d", id, iter, steps-1)
		}
		if size < 1 || n < 0 {
			return nil, fmt.Errorf("run %s step %d: malformed count %d x size %d", id, iter, n, size)
		}
		seen[iter] = true
		if n == 0 {
			// Sentinel row for an empty snapshot
			continue
		}
		history[iter][size] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load counts for %s: %w", id, err)
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("run %s: history has a gap at step %d", id, i)
		}
	}
	return history, nil
}

// ListRuns returns the stored runs, oldest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, variant, created_at, steps FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var infos []RunInfo
	for rows.Next() {
		var info RunInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &info.Variant, &createdAt, &info.Steps); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		created, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad created_at %q: %w", info.ID, createdAt, err)
		}
		info.CreatedAt = created
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
