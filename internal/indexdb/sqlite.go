// Package indexdb keeps a queryable SQLite index of batch studies: one row
// per batch, one per run, and the evacuation curve of every run.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"evacsim/internal/evac"
)

type SQLiteIndex struct {
	db   *sql.DB
	once sync.Once
}

type Batch struct {
	ID        string
	Scenario  string
	BaseSeed  int64
	Runs      int
	Params    evac.Params
	CreatedAt time.Time
}

type Run struct {
	ID        string
	BatchID   string
	Index     int
	Seed      int64
	Steps     int
	Evacuated int
	Remaining int
	Done      bool
	Time      float64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteIndex{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			base_seed INTEGER NOT NULL,
			runs INTEGER NOT NULL,
			params_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			evacuated INTEGER NOT NULL,
			remaining INTEGER NOT NULL,
			done INTEGER NOT NULL,
			time REAL NOT NULL,
			UNIQUE (batch_id, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS curve_points (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			step INTEGER NOT NULL,
			remaining INTEGER NOT NULL,
			PRIMARY KEY (run_id, step)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_batch_steps ON runs(batch_id, steps);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() { err = s.db.Close() })
	return err
}

// BeginBatch stores the batch row and returns its ID. An empty b.ID gets a
// fresh UUID.
func (s *SQLiteIndex) BeginBatch(ctx context.Context, b Batch) (string, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	params, err := json.Marshal(b.Params)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batches(id, scenario, base_seed, runs, params_json, created_at) VALUES(?,?,?,?,?,?)`,
		b.ID, b.Scenario, b.BaseSeed, b.Runs, string(params), b.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert batch: %w", err)
	}
	return b.ID, nil
}

// RecordRun stores one run and its curve in a single transaction and
// returns the run ID.
func (s *SQLiteIndex) RecordRun(ctx context.Context, r Run, curve []int) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	done := 0
	if r.Done {
		done = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id, batch_id, idx, seed, steps, evacuated, remaining, done, time) VALUES(?,?,?,?,?,?,?,?,?)`,
		r.ID, r.BatchID, r.Index, r.Seed, r.Steps, r.Evacuated, r.Remaining, done, r.Time); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO curve_points(run_id, step, remaining) VALUES(?,?,?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for step, n := range curve {
		if _, err := stmt.ExecContext(ctx, r.ID, step, n); err != nil {
			return "", fmt.Errorf("insert curve point: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *SQLiteIndex) Batch(ctx context.Context, id string) (Batch, error) {
	var (
		b       Batch
		params  string
		created string
	)
	row := s.db.QueryRowContext(ctx, `SELECT id, scenario, base_seed, runs, params_json, created_at FROM batches WHERE id=?`, id)
	if err := row.Scan(&b.ID, &b.Scenario, &b.BaseSeed, &b.Runs, &params, &created); err != nil {
		return b, err
	}
	if err := json.Unmarshal([]byte(params), &b.Params); err != nil {
		return b, fmt.Errorf("decode params: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return b, err
	}
	b.CreatedAt = t
	return b, nil
}

// Runs lists a batch's runs in index order.
func (s *SQLiteIndex) Runs(ctx context.Context, batchID string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch_id, idx, seed, steps, evacuated, remaining, done, time FROM runs WHERE batch_id=? ORDER BY idx`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var (
			r    Run
			done int
		)
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Index, &r.Seed, &r.Steps, &r.Evacuated, &r.Remaining, &done, &r.Time); err != nil {
			return nil, err
		}
		r.Done = done != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// Curve returns remaining occupants per step for one run.
func (s *SQLiteIndex) Curve(ctx context.Context, runID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT remaining FROM curve_points WHERE run_id=? ORDER BY step`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// StepStats aggregates the finished runs of a batch.
func (s *SQLiteIndex) StepStats(ctx context.Context, batchID string) (finished int, mean float64, lo, hi int, err error) {
	var avg sql.NullFloat64
	var minSteps, maxSteps sql.NullInt64
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(steps), MIN(steps), MAX(steps) FROM runs WHERE batch_id=? AND done=1`, batchID)
	if err = row.Scan(&finished, &avg, &minSteps, &maxSteps); err != nil {
		return
	}
	return finished, avg.Float64, int(minSteps.Int64), int(maxSteps.Int64), nil
}
