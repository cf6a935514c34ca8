//go:build !sqlite_fts5

package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; full-text search uses LIKE on the notes.body column.
	return nil
}

func ftsClear(_ *sql.Tx, _ string) error { return nil }

func ftsInsert(_ *sql.Tx, _, _, _, _ string) error {
	// Body is already stored in the notes table; nothing extra to do.
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *SQLite) Search(query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.conn.Query(`
		SELECT id, title, substr(body, 1, 200)
		FROM notes
		WHERE namespace = ? AND (title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\')
		ORDER BY position
		LIMIT ?
	`, db.namespace, like, like, defaultLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("storage: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
