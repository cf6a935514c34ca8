package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/noteflow/internal/doc"
	"github.com/starford/noteflow/internal/models"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	namespace  TEXT NOT NULL,
	id         TEXT NOT NULL,
	position   INTEGER NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (namespace, id)
);

CREATE INDEX IF NOT EXISTS idx_notes_position ON notes(namespace, position);
`

// SQLite implements Provider on a SQLite database. The plain-text body of
// every note is kept alongside its markup for full-text search.
type SQLite struct {
	conn      *sql.DB
	namespace string
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn, namespace string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply fts schema: %w", err)
	}
	return &SQLite{conn: conn, namespace: namespace}, nil
}

// Close closes the underlying database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}

// LoadAll returns the namespace's notes in saved order.
func (db *SQLite) LoadAll() ([]models.Note, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, content, created_at, updated_at
		FROM notes
		WHERE namespace = ?
		ORDER BY position
	`, db.namespace)
	if err != nil {
		return nil, fmt.Errorf("storage: load: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SaveAll replaces the namespace's notes within one transaction.
func (db *SQLite) SaveAll(notes []models.Note) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := ftsClear(tx, db.namespace); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE namespace = ?`, db.namespace); err != nil {
		return fmt.Errorf("storage: clear notes: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO notes (namespace, id, position, title, content, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range notes {
		body := plainBody(n.Content)
		if _, err := stmt.Exec(db.namespace, n.ID, i, n.Title, n.Content, body,
			n.CreatedAt.UTC(), n.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("storage: insert note %s: %w", n.ID, err)
		}
		if err := ftsInsert(tx, db.namespace, n.ID, n.Title, body); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// plainBody extracts searchable text from note markup.
func plainBody(content string) string {
	d, err := doc.Parse(content)
	if err != nil {
		return doc.StripTags(content)
	}
	return d.PlainText()
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}
