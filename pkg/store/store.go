// Package store persists fetched upstream geometry in SQLite so a restarted
// server can answer queries before its first refresh completes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Load when no snapshot exists for a source.
var ErrNotFound = errors.New("snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS geometry_snapshots (
	source     TEXT PRIMARY KEY,
	fetched_at INTEGER NOT NULL,
	body       BLOB NOT NULL
)`

// Snapshot is one stored upstream payload.
type Snapshot struct {
	Source    string
	FetchedAt time.Time
	Body      []byte
}

// DB wraps a SQLite database connection.
type DB struct {
	conn *sql.DB
	Path string
}

// OpenDB opens a SQLite database with WAL mode and ensures the schema exists.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{conn: conn, Path: path}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Save stores body as the latest snapshot of source, replacing any previous one.
func (d *DB) Save(ctx context.Context, s Snapshot) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO geometry_snapshots (source, fetched_at, body) VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET fetched_at = excluded.fetched_at, body = excluded.body`,
		s.Source, s.FetchedAt.Unix(), s.Body)
	if err != nil {
		return fmt.Errorf("saving snapshot %s: %w", s.Source, err)
	}
	return nil
}

// Load returns the latest snapshot of source.
func (d *DB) Load(ctx context.Context, source string) (*Snapshot, error) {
	var (
		fetched int64
		body    []byte
	)
	err := d.conn.QueryRowContext(ctx,
		"SELECT fetched_at, body FROM geometry_snapshots WHERE source = ?", source,
	).Scan(&fetched, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", source, err)
	}
	return &Snapshot{Source: source, FetchedAt: time.Unix(fetched, 0), Body: body}, nil
}

// Sources lists the stored snapshot sources in name order.
func (d *DB) Sources(ctx context.Context) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT source FROM geometry_snapshots ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
