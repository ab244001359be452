// Package search provides on-demand full-text search over a vault snapshot.
//
// The SQLite database is in-memory and rebuilt from the link index per
// invocation; the core defines no persistent index file. FTS5 is used when
// compiled in (sqlite_fts5 build tag) with a LIKE fallback otherwise.
package search

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/raido/internal/linkindex"
)

const schemaSQL = `
CREATE TABLE notes (
	path  TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	tags  TEXT NOT NULL DEFAULT '',
	body  TEXT NOT NULL DEFAULT ''
);
`

// Result is one search hit.
type Result struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// DB wraps an in-memory SQLite database holding one vault snapshot.
type DB struct {
	conn *sql.DB
}

// Open creates the in-memory database and applies the schema.
func Open() (*DB, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("search: open: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// IndexSnapshot loads every note of the given index into the database.
func (db *DB) IndexSnapshot(ix *linkindex.Index) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.Prepare(`INSERT INTO notes (path, title, tags, body) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("search: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ix.Identities {
		n := ix.Notes[id]
		tags := strings.Join(n.Tags, " ")
		if _, err := stmt.Exec(n.Path, n.Title, tags, n.Body); err != nil {
			return fmt.Errorf("search: insert %s: %w", n.Path, err)
		}
		if err := ftsInsert(tx, n.Path, n.Title, n.Body, tags); err != nil {
			return err
		}
	}
	return tx.Commit()
}
