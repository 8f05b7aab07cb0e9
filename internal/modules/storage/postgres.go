package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type sqlStore struct {
	db      *sql.DB
	queries queries
}

type queries struct {
	schema string
	get    string
	set    string
	delete string
}

var postgresQueries = queries{
	schema: `
		CREATE TABLE IF NOT EXISTS browser_storage (
		  session_id TEXT        NOT NULL,
		  key        TEXT        NOT NULL,
		  value      BYTEA       NOT NULL,
		  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		  PRIMARY KEY (session_id, key)
		)`,
	get: `SELECT value FROM browser_storage WHERE session_id=$1 AND key=$2`,
	set: `
		INSERT INTO browser_storage (session_id, key, value, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (session_id, key)
		DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
	delete: `DELETE FROM browser_storage WHERE session_id=$1 AND key=$2`,
}

// NewPostgresStore creates a Store backed by PostgreSQL (lib/pq driver).
func NewPostgresStore(db *sql.DB) Store { return &sqlStore{db: db, queries: postgresQueries} }

// EnsureSchema creates the storage table when the backend is SQL based.
// It is a no-op for the in-memory store.
func EnsureSchema(ctx context.Context, s Store) error {
	ss, ok := s.(*sqlStore)
	if !ok {
		return nil
	}
	if _, err := ss.db.ExecContext(ctx, ss.queries.schema); err != nil {
		return fmt.Errorf("create browser_storage: %w", err)
	}
	return nil
}

func (r *sqlStore) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, r.queries.get, sessionID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *sqlStore) Set(ctx context.Context, sessionID, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, r.queries.set, sessionID, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *sqlStore) Delete(ctx context.Context, sessionID, key string) error {
	if _, err := r.db.ExecContext(ctx, r.queries.delete, sessionID, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
