package registry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ingested_works (
	isbn          TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	author        TEXT NOT NULL DEFAULT '',
	first_ingested_at INTEGER NOT NULL,
	last_session_id   TEXT NOT NULL DEFAULT '',
	sections      INTEGER NOT NULL DEFAULT 0,
	words         INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT 'tentative'
);
`

// openDB opens (creating if needed) the registry database and applies the
// schema.
func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create registry dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply registry schema: %w", err)
	}
	return db, nil
}
