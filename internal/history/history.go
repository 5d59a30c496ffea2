// Package history is the poster's ledger of feed items already sent to X.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	guid         TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	link         TEXT NOT NULL,
	x_post_id    TEXT NULL,
	published_at TEXT NOT NULL
);
`

// Post is one ledger row.
type Post struct {
	GUID        string
	Title       string
	Link        string
	XPostID     string
	PublishedAt time.Time
}

// Ledger wraps the sqlite database.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger at path. ":memory:" works for tests.
func Open(ctx context.Context, path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// one connection keeps ":memory:" a single database
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// IsPublished reports whether guid has been posted.
func (l *Ledger) IsPublished(ctx context.Context, guid string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE guid = ?`, guid).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("history: lookup %s: %w", guid, err)
	}
	return true, nil
}

// MarkPublished records p. Recording the same guid twice is an error.
func (l *Ledger) MarkPublished(ctx context.Context, p Post) error {
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO posts (guid, title, link, x_post_id, published_at) VALUES (?, ?, ?, ?, ?)`,
		p.GUID, p.Title, p.Link, nullIfEmpty(p.XPostID), p.PublishedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("history: record %s: %w", p.GUID, err)
	}
	return nil
}

// Recent returns up to n posts, newest first.
func (l *Ledger) Recent(ctx context.Context, n int) ([]Post, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT guid, title, link, COALESCE(x_post_id, ''), published_at
		 FROM posts ORDER BY published_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		var (
			p  Post
			at string
		)
		if err := rows.Scan(&p.GUID, &p.Title, &p.Link, &p.XPostID, &at); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if p.PublishedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("history: bad timestamp %q: %w", at, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
