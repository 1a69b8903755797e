// Package store persists run history to SQLite so the daemon can answer
// "what changed" across restarts and the API can serve recent runs.
package store

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    _ "modernc.org/sqlite"
)

// Run statuses persisted to history.
const (
    StatusSucceeded = "succeeded"
    StatusFailed    = "failed"
)

// Store wraps SQLite access for run history.
type Store struct {
    db *sql.DB
}

func Open(path string) (*Store, error) {
    db, err := sql.Open("sqlite", path)
    if err != nil {
        return nil, err
    }
    s := &Store{db: db}
    if err := s.migrate(); err != nil {
        db.Close()
        return nil, err
    }
    return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
    stmts := []string{
        `CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            started_at TIMESTAMP,
            finished_at TIMESTAMP,
            status TEXT,
            snapshot_date TEXT,
            states INTEGER,
            series_points INTEGER,
            source_fingerprint TEXT,
            chart_path TEXT,
            last_error TEXT,
            summary_json TEXT
        );`,
        `CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
        `CREATE TABLE IF NOT EXISTS run_exclusions (
            run_id TEXT,
            reason TEXT,
            count INTEGER
        );`,
        `CREATE INDEX IF NOT EXISTS idx_run_exclusions_run ON run_exclusions(run_id);`,
    }
    for _, stmt := range stmts {
        if _, err := s.db.Exec(stmt); err != nil {
            return err
        }
    }
    return nil
}

// Run is one recorded analysis run.
type Run struct {
    ID           string         `json:"id"`
    StartedAt    time.Time      `json:"started_at"`
    FinishedAt   time.Time      `json:"finished_at"`
    Status       string         `json:"status"`
    SnapshotDate string         `json:"snapshot_date,omitempty"`
    States       int            `json:"states"`
    SeriesPoints int            `json:"series_points"`
    Fingerprint  string         `json:"source_fingerprint"`
    ChartPath    string         `json:"chart_path,omitempty"`
    LastError    *string        `json:"last_error"`
    SummaryJSON  string         `json:"summary_json,omitempty"`
    Exclusions   map[string]int `json:"exclusions,omitempty"`
}

// RecordRun persists a run and its exclusion counters in one transaction.
func (s *Store) RecordRun(ctx context.Context, r *Run) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer tx.Rollback()

    if _, err := tx.ExecContext(ctx, `INSERT INTO runs(id, started_at, finished_at, status, snapshot_date, states, series_points, source_fingerprint, chart_path, last_error, summary_json)
        VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
        r.ID, r.StartedAt, r.FinishedAt, r.Status, r.SnapshotDate, r.States, r.SeriesPoints, r.Fingerprint, r.ChartPath, r.LastError, r.SummaryJSON); err != nil {
        return err
    }
    for reason, count := range r.Exclusions {
        if _, err := tx.ExecContext(ctx, `INSERT INTO run_exclusions(run_id, reason, count) VALUES(?,?,?)`, r.ID, reason, count); err != nil {
            return err
        }
    }
    return tx.Commit()
}

// ListRuns returns the most recent runs, newest first, without their
// exclusion counters.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
    rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, finished_at, status, snapshot_date, states, series_points, source_fingerprint, chart_path, last_error, summary_json
        FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var runs []Run
    for rows.Next() {
        var r Run
        var lastErr sql.NullString
        if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.SnapshotDate, &r.States, &r.SeriesPoints, &r.Fingerprint, &r.ChartPath, &lastErr, &r.SummaryJSON); err != nil {
            return nil, err
        }
        if lastErr.Valid {
            r.LastError = &lastErr.String
        }
        runs = append(runs, r)
    }
    return runs, rows.Err()
}

// LastSuccessful returns the newest succeeded run, or nil when history has
// none.
func (s *Store) LastSuccessful(ctx context.Context) (*Run, error) {
    row := s.db.QueryRowContext(ctx, `SELECT id, started_at, finished_at, status, snapshot_date, states, series_points, source_fingerprint, chart_path, last_error, summary_json
        FROM runs WHERE status=? ORDER BY started_at DESC LIMIT 1`, StatusSucceeded)
    var r Run
    var lastErr sql.NullString
    switch err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.SnapshotDate, &r.States, &r.SeriesPoints, &r.Fingerprint, &r.ChartPath, &lastErr, &r.SummaryJSON); err {
    case nil:
        if lastErr.Valid {
            r.LastError = &lastErr.String
        }
        return &r, nil
    case sql.ErrNoRows:
        return nil, nil
    default:
        return nil, err
    }
}

// Exclusions returns the counters recorded for one run.
func (s *Store) Exclusions(ctx context.Context, runID string) (map[string]int, error) {
    rows, err := s.db.QueryContext(ctx, `SELECT reason, count FROM run_exclusions WHERE run_id=?`, runID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    out := make(map[string]int)
    for rows.Next() {
        var reason string
        var count int
        if err := rows.Scan(&reason, &count); err != nil {
            return nil, err
        }
        out[reason] = count
    }
    return out, rows.Err()
}

// Health returns err if DB not reachable.
func (s *Store) Health(ctx context.Context) error {
    row := s.db.QueryRowContext(ctx, `SELECT 1`)
    var v int
    if err := row.Scan(&v); err != nil {
        return fmt.Errorf("db health: %w", err)
    }
    return nil
}
