// Package history persists visited-page records to an embedded
// relational table, using the mattn/go-sqlite3 driver for embedded
// relational storage.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	url         TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	last_visit  INTEGER NOT NULL,
	visit_count INTEGER NOT NULL DEFAULT 0
);`

// Entry is one row of the history table.
type Entry struct {
	URL        string
	Title      string
	LastVisit  time.Time
	VisitCount int
}

// Store wraps the sqlite-backed history table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and
// ensures the history table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordVisit upserts a visit to url: insert with visit_count=1, or
// update last_visit and increment visit_count.
func (s *Store) RecordVisit(url, title string) error {
	_, err := s.db.Exec(`
		INSERT INTO history(url, title, last_visit, visit_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			last_visit = excluded.last_visit,
			visit_count = visit_count + 1
	`, url, title, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("history: record visit: %w", err)
	}
	return nil
}

// Recent returns the limit most recently visited entries, newest
// first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT url, title, last_visit, visit_count
		FROM history
		ORDER BY last_visit DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var lastVisit int64
		if err := rows.Scan(&e.URL, &e.Title, &lastVisit, &e.VisitCount); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		e.LastVisit = time.Unix(lastVisit, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Lookup returns the entry for url, if one exists.
func (s *Store) Lookup(url string) (Entry, bool, error) {
	row := s.db.QueryRow(`
		SELECT url, title, last_visit, visit_count FROM history WHERE url = ?
	`, url)

	var e Entry
	var lastVisit int64
	err := row.Scan(&e.URL, &e.Title, &lastVisit, &e.VisitCount)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("history: lookup: %w", err)
	}
	e.LastVisit = time.Unix(lastVisit, 0)
	return e, true, nil
}
