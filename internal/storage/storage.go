package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/provscan/internal/harness"
)

// DB records evaluation runs so accuracy can be compared over time
type DB struct {
	sql *sql.DB
}

// Run is one stored evaluation run
type Run struct {
	ID             int64     `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	Endpoint       string    `json:"endpoint"`
	Dir            string    `json:"dir"`
	ExpectedResult int       `json:"expected_result"`
	FilesAnalyzed  int       `json:"files_analyzed"`
	Hits           int       `json:"hits"`
	Misses         int       `json:"misses"`
	Fails          int       `json:"fails"`
	Accuracy       float64   `json:"accuracy"`
}

// Open opens (or creates) the history database at path
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS eval_runs (
  id              INTEGER PRIMARY KEY,
  started_at      DATETIME NOT NULL,
  endpoint        TEXT NOT NULL,
  dir             TEXT NOT NULL,
  expected_result INTEGER NOT NULL,
  files_analyzed  INTEGER NOT NULL,
  hits            INTEGER NOT NULL,
  misses          INTEGER NOT NULL,
  fails           INTEGER NOT NULL,
  accuracy        REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_time ON eval_runs(started_at);
CREATE TABLE IF NOT EXISTS eval_results (
  run_id          INTEGER NOT NULL REFERENCES eval_runs(id),
  position        INTEGER NOT NULL,
  file_name       TEXT NOT NULL,
  expected_result INTEGER NOT NULL,
  actual_result   INTEGER NOT NULL,
  PRIMARY KEY (run_id, position)
);
    `); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{sql: db}, nil
}

// Close closes the database
func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveRun stores a report and its per-file results, returning the run id
func (d *DB) SaveRun(ctx context.Context, endpoint, dir string, report *harness.EvalReport) (id int64, err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO eval_runs(started_at, endpoint, dir, expected_result, files_analyzed, hits, misses, fails, accuracy) VALUES(?,?,?,?,?,?,?,?,?)`,
		time.Now().UTC(), endpoint, dir, report.ExpectedResult, report.FilesAnalyzed,
		report.Hits, report.Misses, report.Fails, report.Accuracy)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, r := range report.Results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO eval_results(run_id, position, file_name, expected_result, actual_result) VALUES(?,?,?,?,?)`,
			id, i, r.FileName, r.ExpectedResult, r.ActualResult)
		if err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, started_at, endpoint, dir, expected_result, files_analyzed, hits, misses, fails, accuracy FROM eval_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Endpoint, &r.Dir, &r.ExpectedResult,
			&r.FilesAnalyzed, &r.Hits, &r.Misses, &r.Fails, &r.Accuracy); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunResults returns the per-file results of one run in directory order
func (d *DB) RunResults(ctx context.Context, runID int64) ([]harness.EvalResult, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT expected_result, actual_result, file_name FROM eval_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []harness.EvalResult{}
	for rows.Next() {
		var r harness.EvalResult
		if err := rows.Scan(&r.ExpectedResult, &r.ActualResult, &r.FileName); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
