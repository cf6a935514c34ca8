//go:build sqlite_fts5

package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			namespace UNINDEXED,
			id UNINDEXED,
			title,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsClear(tx *sql.Tx, namespace string) error {
	if _, err := tx.Exec(`DELETE FROM notes_fts WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("storage: clear fts: %w", err)
	}
	return nil
}

func ftsInsert(tx *sql.Tx, namespace, id, title, body string) error {
	_, err := tx.Exec(`INSERT INTO notes_fts (namespace, id, title, body) VALUES (?, ?, ?, ?)`,
		namespace, id, title, body)
	if err != nil {
		return fmt.Errorf("storage: insert fts: %w", err)
	}
	return nil
}

// ftsQuery quotes every term so user input is never read as FTS syntax.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"*`
	}
	return strings.Join(fields, " ")
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *SQLite) Search(query string, limit int) ([]SearchResult, error) {
	q := ftsQuery(query)
	if q == "" {
		return nil, nil
	}
	rows, err := db.conn.Query(`
		SELECT id,
		       title,
		       snippet(notes_fts, 3, '<b>', '</b>', '...', 64)
		FROM notes_fts
		WHERE notes_fts MATCH ? AND namespace = ?
		ORDER BY rank
		LIMIT ?
	`, q, db.namespace, defaultLimit(limit))
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
