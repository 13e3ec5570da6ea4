// Package bookmarks persists single-key directory bookmarks and tagged paths
// in SQLite.
package bookmarks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrInvalidKey is returned for empty bookmark keys.
var ErrInvalidKey = errors.New("bookmarks: empty key")

// Bookmark is a stored directory under a key.
type Bookmark struct {
	Key       string
	Path      string
	CreatedAt time.Time
}

// Store is a bookmark database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bookmarks directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open bookmarks: %w", err)
	}
	// A single connection keeps writes serialized without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bookmarks journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bookmarks synchronous mode: %w", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS bookmarks (
		key TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS tags (
		path TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(query); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bookmarks schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set stores path under key, replacing any previous bookmark.
func (s *Store) Set(ctx context.Context, key, path string) error {
	if key == "" {
		return ErrInvalidKey
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (key, path) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET path = excluded.path, created_at = CURRENT_TIMESTAMP
	`, key, path)
	if err != nil {
		return fmt.Errorf("set bookmark %q: %w", key, err)
	}
	return nil
}

// Delete removes the bookmark under key, if any.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM bookmarks WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete bookmark %q: %w", key, err)
	}
	return nil
}

// List returns every bookmark ordered by key.
func (s *Store) List(ctx context.Context) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, path, created_at FROM bookmarks ORDER BY key ASC")
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var out []Bookmark
	for rows.Next() {
		var (
			b       Bookmark
			created sql.NullString
		)
		if err := rows.Scan(&b.Key, &b.Path, &created); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		b.CreatedAt = parseTimestamp(created.String)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return out, nil
}

// Tag marks path as tagged. Tagging twice is not an error.
func (s *Store) Tag(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO tags (path) VALUES (?)", path); err != nil {
		return fmt.Errorf("tag %s: %w", path, err)
	}
	return nil
}

// Untag removes the tag from path, if any.
func (s *Store) Untag(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE path = ?", path); err != nil {
		return fmt.Errorf("untag %s: %w", path, err)
	}
	return nil
}

// Tags returns every tagged path in lexical order.
func (s *Store) Tags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM tags ORDER BY path ASC")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return out, nil
}

func parseTimestamp(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
