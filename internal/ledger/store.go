package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS submissions (
	doc_path TEXT NOT NULL,
	token    TEXT NOT NULL,
	UNIQUE(doc_path, token)
);

CREATE INDEX IF NOT EXISTS idx_submissions_doc ON submissions(doc_path);
`

// Store persists ledger contents to SQLite so dedup survives restarts.
type Store struct {
	conn *sql.DB
}

// OpenStore opens (or creates) the database and applies the schema.
func OpenStore(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Load reads the full persisted contents, ready for Ledger.Restore.
func (s *Store) Load() (map[string][]string, error) {
	rows, err := s.conn.Query(`SELECT doc_path, token FROM submissions`)
	if err != nil {
		return nil, fmt.Errorf("ledger: load: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var doc, tok string
		if err := rows.Scan(&doc, &tok); err != nil {
			return nil, err
		}
		out[doc] = append(out[doc], tok)
	}
	return out, rows.Err()
}

// Save replaces the persisted contents with the given snapshot in one
// transaction.
func (s *Store) Save(contents map[string][]string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM submissions`); err != nil {
		return fmt.Errorf("ledger: clear: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO submissions (doc_path, token) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("ledger: prepare insert: %w", err)
	}
	defer stmt.Close()

	for doc, tokens := range contents {
		for _, tok := range tokens {
			if _, err := stmt.Exec(doc, tok); err != nil {
				return fmt.Errorf("ledger: insert: %w", err)
			}
		}
	}
	return tx.Commit()
}
