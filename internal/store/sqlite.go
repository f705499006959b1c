package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ercotdata/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunLedger = (*SQLiteLedger)(nil)

// SQLiteLedger implements RunLedger backed by a SQLite database.
type SQLiteLedger struct {
	db *sql.DB
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	started_at      INTEGER NOT NULL,
	finished_at     INTEGER NOT NULL,
	status          TEXT NOT NULL,
	error           TEXT NOT NULL DEFAULT '',
	source_dir      TEXT NOT NULL,
	staging_dir     TEXT NOT NULL,
	output_path     TEXT NOT NULL,
	files_cataloged INTEGER NOT NULL,
	files_undated   INTEGER NOT NULL,
	files_staged    INTEGER NOT NULL,
	files_reused    INTEGER NOT NULL,
	stage_failures  INTEGER NOT NULL,
	files_merged    INTEGER NOT NULL,
	files_skipped   INTEGER NOT NULL,
	malformed_rows  INTEGER NOT NULL,
	rows_merged     INTEGER NOT NULL,
	rows_dropped    INTEGER NOT NULL,
	rows_out        INTEGER NOT NULL,
	rows_filtered   INTEGER NOT NULL,
	columns         INTEGER NOT NULL,
	locations       INTEGER NOT NULL,
	first_ts        INTEGER,
	last_ts         INTEGER
);
CREATE TABLE IF NOT EXISTS run_files (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	position    INTEGER NOT NULL,
	source_path TEXT NOT NULL,
	staged_path TEXT NOT NULL,
	file_date   TEXT NOT NULL,
	reused      INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE TABLE IF NOT EXISTS run_issues (
	run_id TEXT NOT NULL REFERENCES runs(id),
	stage  TEXT NOT NULL,
	path   TEXT NOT NULL,
	reason TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// NewSQLiteLedger opens (or creates) a SQLite database at dbPath and
// ensures the ledger tables exist.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger tables: %w", err)
	}
	return &SQLiteLedger{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

// SaveRun inserts the run and its file and issue rows in one transaction.
// Discards are stored as issues of the "catalog" stage.
func (s *SQLiteLedger) SaveRun(ctx context.Context, run *domain.RunSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs (
		id, started_at, finished_at, status, error, source_dir, staging_dir, output_path,
		files_cataloged, files_undated, files_staged, files_reused, stage_failures,
		files_merged, files_skipped, malformed_rows, rows_merged, rows_dropped,
		rows_out, rows_filtered, columns, locations, first_ts, last_ts
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.Status, run.Error,
		run.SourceDir, run.StagingDir, run.OutputPath,
		run.FilesCataloged, run.FilesUndated, run.FilesStaged, run.FilesReused, run.StageFailures,
		run.FilesMerged, run.FilesSkipped, run.MalformedRows, run.RowsMerged, run.RowsDropped,
		run.RowsOut, run.RowsFiltered, run.Columns, run.Locations,
		nullableMillis(run.FirstTimestamp), nullableMillis(run.LastTimestamp),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	for i, f := range run.Staged {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, position, source_path, staged_path, file_date, reused) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, i, f.OriginalPath, f.StagedPath, f.Date.Format(time.DateOnly), f.Reused)
		if err != nil {
			return fmt.Errorf("inserting staged file: %w", err)
		}
	}

	issues := make([]domain.Issue, 0, len(run.Discards)+len(run.Issues))
	for _, d := range run.Discards {
		issues = append(issues, domain.Issue{Stage: "catalog", Path: d.Path, Reason: d.Reason})
	}
	issues = append(issues, run.Issues...)
	for _, is := range issues {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_issues (run_id, stage, path, reason) VALUES (?, ?, ?, ?)`,
			run.ID, is.Stage, is.Path, is.Reason)
		if err != nil {
			return fmt.Errorf("inserting issue: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first, up to limit. Staged files
// and issues are not loaded.
func (s *SQLiteLedger) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, started_at, finished_at, status, error, source_dir, staging_dir, output_path,
		files_cataloged, files_undated, files_staged, files_reused, stage_failures,
		files_merged, files_skipped, malformed_rows, rows_merged, rows_dropped,
		rows_out, rows_filtered, columns, locations, first_ts, last_ts
	FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var (
			r                 domain.RunSummary
			started, finished int64
			first, last       sql.NullInt64
		)
		if err := rows.Scan(
			&r.ID, &started, &finished, &r.Status, &r.Error, &r.SourceDir, &r.StagingDir, &r.OutputPath,
			&r.FilesCataloged, &r.FilesUndated, &r.FilesStaged, &r.FilesReused, &r.StageFailures,
			&r.FilesMerged, &r.FilesSkipped, &r.MalformedRows, &r.RowsMerged, &r.RowsDropped,
			&r.RowsOut, &r.RowsFiltered, &r.Columns, &r.Locations, &first, &last,
		); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		if first.Valid {
			r.FirstTimestamp = time.UnixMilli(first.Int64).UTC()
		}
		if last.Valid {
			r.LastTimestamp = time.UnixMilli(last.Int64).UTC()
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// IssueCount returns the number of issues recorded for a run.
func (s *SQLiteLedger) IssueCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_issues WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

func nullableMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
