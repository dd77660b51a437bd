// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists the client-side records of research-index: the
// last-used generation parameters and the current outline document. Each
// record is stored under a fixed key inside a versioned envelope in a local
// SQLite database.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-index/pkg/types"
)

const (
	// KeyParams holds the last-used generation parameters.
	KeyParams = "indexParams"
	// KeyCurrentIndex holds the current outline document.
	KeyCurrentIndex = "currentIndex"

	// SchemaVersion tags every stored envelope. Bump it when the stored
	// shape of a record changes.
	SchemaVersion = 1

	dbFile = "state.db"
)

var (
	// ErrNotFound is returned when a record has never been written.
	ErrNotFound = errors.New("record not found")
	// ErrSchemaVersion is returned when a record was written with a
	// different schema version.
	ErrSchemaVersion = errors.New("unsupported record schema version")
)

// Store manages the state SQLite database.
type Store struct {
	db *sql.DB
}

// envelope wraps every stored payload with its schema version.
type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

// Open opens or creates the state database at dir/state.db and creates the
// schema if it does not exist.
func Open(cfg types.StateConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = ".research-index"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS records (
		key TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL,
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	return err
}

// SaveParams persists the last-used generation parameters.
func (s *Store) SaveParams(ctx context.Context, p types.GenerationParams) error {
	return s.put(ctx, KeyParams, p)
}

// LoadParams returns the last-used generation parameters.
func (s *Store) LoadParams(ctx context.Context) (types.GenerationParams, error) {
	var p types.GenerationParams
	err := s.get(ctx, KeyParams, &p)
	return p, err
}

// SaveDocument persists the outline document. Scores are not stored.
func (s *Store) SaveDocument(ctx context.Context, doc types.IndexDocument) error {
	return s.put(ctx, KeyCurrentIndex, doc)
}

// LoadDocument returns the persisted outline document. The returned
// document carries zero scores; callers rescore it.
func (s *Store) LoadDocument(ctx context.Context) (types.IndexDocument, error) {
	var doc types.IndexDocument
	if err := s.get(ctx, KeyCurrentIndex, &doc); err != nil {
		return types.IndexDocument{}, err
	}
	if err := doc.Validate(); err != nil {
		return types.IndexDocument{}, fmt.Errorf("stored %s: %w", KeyCurrentIndex, err)
	}
	return doc, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	payload, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, Data: data})
	if err != nil {
		return fmt.Errorf("marshaling %s envelope: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (key, schema_version, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			schema_version=excluded.schema_version, payload=excluded.payload,
			updated_at=excluded.updated_at`,
		key, SchemaVersion, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE key = ?`, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return fmt.Errorf("parsing %s envelope: %w", key, err)
	}
	if env.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%s has version %d, want %d: %w", key, env.SchemaVersion, SchemaVersion, ErrSchemaVersion)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	return nil
}
