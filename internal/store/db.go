package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// historyLimit bounds how many revisions the store keeps per document.
// Older revisions are pruned on write.
const historyLimit = 50

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	doc_id     TEXT PRIMARY KEY,
	snapshot   TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS document_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	doc_id     TEXT NOT NULL,
	snapshot   TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS document_history_doc ON document_history(doc_id, id);
`

// DB persists document snapshots and a bounded per-document history in a
// local SQLite file.
type DB struct {
	db *sql.DB
}

// Revision is one stored history entry, newest first in History results.
type Revision struct {
	ID        int64  `json:"id"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
}

func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Load returns the current snapshot for a document. A document that was
// never written loads as absent, not as an error.
func (d *DB) Load(docID string) (string, bool, error) {
	var snapshot string
	err := d.db.QueryRow("SELECT snapshot FROM documents WHERE doc_id = ?", docID).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return snapshot, true, nil
}

// Save replaces the current snapshot, appends a history revision, and prunes
// history beyond the per-document limit.
func (d *DB) Save(docID, snapshot string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`
		INSERT INTO documents (doc_id, snapshot, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at
	`, docID, snapshot, now); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO document_history (doc_id, snapshot, created_at) VALUES (?, ?, ?)",
		docID, snapshot, now,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		DELETE FROM document_history WHERE doc_id = ? AND id NOT IN (
			SELECT id FROM document_history WHERE doc_id = ? ORDER BY id DESC LIMIT ?
		)
	`, docID, docID, historyLimit); err != nil {
		return err
	}
	return tx.Commit()
}

// History lists recent revisions, newest first. A non-positive limit means
// the full retained history.
func (d *DB) History(docID string, limit int) ([]Revision, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	rows, err := d.db.Query(
		"SELECT id, snapshot, created_at FROM document_history WHERE doc_id = ? ORDER BY id DESC LIMIT ?",
		docID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	revisions := []Revision{}
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.ID, &rev.Snapshot, &rev.CreatedAt); err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}
