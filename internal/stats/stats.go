// Package stats keeps usage counters: how many analyses ran, when the
// install was first seen, and when the last analysis happened.
package stats

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    _ "modernc.org/sqlite"
)

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
    TotalAnalyses int64      `json:"totalAnalyses"`
    FirstInstall  time.Time  `json:"firstInstall"`
    LastAnalysis  *time.Time `json:"lastAnalysis"`
}

// Store persists counters in a SQLite database.
type Store struct {
    db  *sql.DB
    now func() time.Time
}

const schema = `CREATE TABLE IF NOT EXISTS usage_stats (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    analysis_count INTEGER NOT NULL DEFAULT 0,
    first_install  INTEGER NOT NULL,
    last_analysis  INTEGER
)`

// Open opens (or creates) the database at dsn, ":memory:" for a process
// local store, and records the first-install time once.
func Open(ctx context.Context, dsn string) (*Store, error) {
    if dsn == "" {
        dsn = ":memory:"
    }
    db, err := sql.Open("sqlite", dsn)
    if err != nil {
        return nil, fmt.Errorf("open stats db: %w", err)
    }
    // A single connection keeps ":memory:" databases shared and
    // serializes writers.
    db.SetMaxOpenConns(1)
    s := &Store{db: db, now: time.Now}
    if err := s.init(ctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    return s, nil
}

func (s *Store) init(ctx context.Context) error {
    if _, err := s.db.ExecContext(ctx, schema); err != nil {
        return fmt.Errorf("create stats schema: %w", err)
    }
    _, err := s.db.ExecContext(ctx,
        `INSERT OR IGNORE INTO usage_stats (id, analysis_count, first_install) VALUES (1, 0, ?)`,
        s.now().UnixMilli())
    if err != nil {
        return fmt.Errorf("init stats row: %w", err)
    }
    return nil
}

// IncrementAnalysisCount bumps the counter and stamps the last analysis.
func (s *Store) IncrementAnalysisCount(ctx context.Context) error {
    _, err := s.db.ExecContext(ctx,
        `UPDATE usage_stats SET analysis_count = analysis_count + 1, last_analysis = ? WHERE id = 1`,
        s.now().UnixMilli())
    if err != nil {
        return fmt.Errorf("increment analysis count: %w", err)
    }
    return nil
}

// Snapshot reads the current counters.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
    var (
        count int64
        first int64
        last  sql.NullInt64
    )
    err := s.db.QueryRowContext(ctx,
        `SELECT analysis_count, first_install, last_analysis FROM usage_stats WHERE id = 1`).
        Scan(&count, &first, &last)
    if errors.Is(err, sql.ErrNoRows) {
        return Snapshot{FirstInstall: s.now()}, nil
    }
    if err != nil {
        return Snapshot{}, fmt.Errorf("read stats: %w", err)
    }
    snap := Snapshot{TotalAnalyses: count, FirstInstall: time.UnixMilli(first).UTC()}
    if last.Valid {
        t := time.UnixMilli(last.Int64).UTC()
        snap.LastAnalysis = &t
    }
    return snap, nil
}

func (s *Store) Close() error {
    return s.db.Close()
}
