package storage

import "database/sql"

var sqliteQueries = queries{
	schema: `
		CREATE TABLE IF NOT EXISTS browser_storage (
		  session_id TEXT     NOT NULL,
		  key        TEXT     NOT NULL,
		  value      BLOB     NOT NULL,
		  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		  PRIMARY KEY (session_id, key)
		)`,
	get: `SELECT value FROM browser_storage WHERE session_id=? AND key=?`,
	set: `
		INSERT INTO browser_storage (session_id, key, value, updated_at)
		VALUES (?,?,?,?)
		ON CONFLICT (session_id, key)
		DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
	delete: `DELETE FROM browser_storage WHERE session_id=? AND key=?`,
}

// NewSQLiteStore creates a Store backed by SQLite (modernc.org/sqlite driver,
// registered as "sqlite").
func NewSQLiteStore(db *sql.DB) Store { return &sqlStore{db: db, queries: sqliteQueries} }
