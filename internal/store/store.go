package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SessionRecord is one row in the session index
type SessionRecord struct {
	SessionID       string
	AnalysisID      string
	AudioSource     string
	State           string
	WordCount       int
	ActionItemCount int
	OutputDir       string
	CreatedAt       time.Time
}

// Store is the SQLite-backed session index. It records the outcome of every
// analysis run so past sessions can be listed without walking the output
// directory tree.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    analysis_id TEXT NOT NULL UNIQUE,
    audio_source TEXT NOT NULL,
    state TEXT NOT NULL,
    word_count INTEGER NOT NULL DEFAULT 0,
    action_item_count INTEGER NOT NULL DEFAULT 0,
    output_dir TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
`

// Open initializes or connects to the session index database
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordSession inserts one session outcome into the index
func (s *Store) RecordSession(ctx context.Context, rec SessionRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
            session_id, analysis_id, audio_source, state,
            word_count, action_item_count, output_dir, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.AnalysisID,
		rec.AudioSource,
		rec.State,
		rec.WordCount,
		rec.ActionItemCount,
		rec.OutputDir,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// RecentSessions returns the most recent sessions, newest first
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT session_id, analysis_id, audio_source, state,
                word_count, action_item_count, output_dir, created_at
         FROM sessions
         ORDER BY created_at DESC, id DESC
         LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var createdAt string
		if err := rows.Scan(
			&rec.SessionID,
			&rec.AnalysisID,
			&rec.AudioSource,
			&rec.State,
			&rec.WordCount,
			&rec.ActionItemCount,
			&rec.OutputDir,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		if parsed, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
			rec.CreatedAt = parsed
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return records, nil
}
