// Package history persists finished generations in a local SQLite
// database. Writes are best-effort from the caller's point of view: a
// failed insert is counted and logged but never blocks an answer.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/carrycooldude/EdgeAIApp/internal/metrics"
)

const defaultRecentLimit = 20

// Entry is one stored generation.
type Entry struct {
	ID         int64     `json:"id"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	Tier       string    `json:"tier"`
	Tokens     int       `json:"tokens"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history open: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS generations(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			prompt TEXT NOT NULL,
			response TEXT NOT NULL,
			tier TEXT NOT NULL,
			tokens INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Append stores one generation. A zero CreatedAt is stamped with the
// current time.
func (s *Store) Append(ctx context.Context, e Entry) error {
	ts := e.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations(ts, prompt, response, tier, tokens, duration_ms)
		VALUES(?, ?, ?, ?, ?, ?)`,
		ts.Unix(), e.Prompt, e.Response, e.Tier, e.Tokens, e.DurationMS)
	if err != nil {
		metrics.RecordHistoryWriteError()
		return fmt.Errorf("history append: %w", err)
	}
	return nil
}

// Recent returns up to limit entries in chronological order, oldest
// first. limit <= 0 selects the default.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, prompt, response, tier, tokens, duration_ms
		FROM generations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.Prompt, &e.Response, &e.Tier, &e.Tokens, &e.DurationMS); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		e.CreatedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
