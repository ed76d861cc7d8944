// Package store persists trained model payloads in SQLite, keyed by
// (kind, eye variant, version). The service warm-loads artifacts from here
// at startup and writes one row per completed training round.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ocumetry/eyelid/internal/domain/model"
)

const artifactsSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
    kind       TEXT NOT NULL,
    variant    TEXT NOT NULL,
    version    INTEGER NOT NULL,
    payload    BLOB NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (kind, variant, version)
);
`

// Store is a durable artifact store backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the artifact database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open artifact db: %w", err)
	}
	if _, err := db.Exec(artifactsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init artifact schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the payload for key. The replace is atomic per key.
func (s *Store) Save(ctx context.Context, key model.ModelKey, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (kind, variant, version, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, variant, version) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		string(key.Kind),
		string(key.Variant),
		key.Version,
		payload,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", key, err)
	}
	return nil
}

// LoadIfPresent returns the payload stored for key, or ok=false when no
// artifact exists. Missing artifacts are not an error; the runtime mapper
// tolerates their absence.
func (s *Store) LoadIfPresent(ctx context.Context, key model.ModelKey) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM artifacts
		WHERE kind = ? AND variant = ? AND version = ?`,
		string(key.Kind),
		string(key.Variant),
		key.Version,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load artifact %s: %w", key, err)
	}
	return payload, true, nil
}
