// Package store persists evaluation tables to a SQLite database so that runs
// against different model checkpoints can be compared later.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mriganeval/internal/models"
)

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// RunInfo describes one persisted evaluation run.
type RunInfo struct {
	ID        int64
	Label     string
	Model     string
	CreatedAt time.Time
}

// Open opens the results database at path, creating the schema if needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS evaluation_runs (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		label      TEXT NOT NULL,
		model      TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS metric_records (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id         INTEGER NOT NULL,
		position       INTEGER NOT NULL,
		case_name      TEXT NOT NULL,
		baseline_psnr  REAL NOT NULL,
		baseline_ssim  REAL NOT NULL,
		baseline_mae   REAL NOT NULL,
		generated_psnr REAL NOT NULL,
		generated_ssim REAL NOT NULL,
		generated_mae  REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_metric_records_run ON metric_records(run_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating results schema: %v", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores an evaluation table under a labelled run and returns the new
// run id. The insert is transactional: either the whole table lands or none
// of it does.
func (s *Store) SaveRun(label, modelName string, table models.EvaluationTable) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO evaluation_runs (label, model) VALUES (?, ?)`,
		label, modelName,
	)
	if err != nil {
		return 0, err
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO metric_records
		 (run_id, position, case_name,
		  baseline_psnr, baseline_ssim, baseline_mae,
		  generated_psnr, generated_ssim, generated_mae)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, rec := range table {
		_, err := stmt.Exec(
			runID, i, rec.Case,
			rec.BaselinePSNR, rec.BaselineSSIM, rec.BaselineMAE,
			rec.GeneratedPSNR, rec.GeneratedSSIM, rec.GeneratedMAE,
		)
		if err != nil {
			return 0, err
		}
	}

	return runID, tx.Commit()
}

// LoadRun returns the metric records of a run in their original order.
func (s *Store) LoadRun(runID int64) (models.EvaluationTable, error) {
	rows, err := s.db.Query(
		`SELECT case_name,
		        baseline_psnr, baseline_ssim, baseline_mae,
		        generated_psnr, generated_ssim, generated_mae
		 FROM metric_records WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var table models.EvaluationTable
	for rows.Next() {
		var rec models.MetricRecord
		if err := rows.Scan(
			&rec.Case,
			&rec.BaselinePSNR, &rec.BaselineSSIM, &rec.BaselineMAE,
			&rec.GeneratedPSNR, &rec.GeneratedSSIM, &rec.GeneratedMAE,
		); err != nil {
			return nil, err
		}
		table = append(table, rec)
	}

	return table, rows.Err()
}

// ListRuns returns the persisted runs, most recent first.
func (s *Store) ListRuns() ([]RunInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, label, model, created_at FROM evaluation_runs ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var run RunInfo
		if err := rows.Scan(&run.ID, &run.Label, &run.Model, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
