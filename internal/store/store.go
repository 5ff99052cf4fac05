// Package store persists whole-dataset snapshots in a local SQLite database
// as a simple key-value table. It is the Go rendering of the browser-local
// snapshot the editing UI keeps: one JSON blob under a fixed storage key.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"golang-matchgen/internal/codec"
	"golang-matchgen/internal/models"
	perrors "golang-matchgen/pkg/errors"
	"golang-matchgen/pkg/logger"
)

// DefaultKey is the storage key the editing session uses for its snapshot.
const DefaultKey = "dataset"

// SnapshotStore persists dataset snapshots.
type SnapshotStore struct {
	db  *sql.DB
	log logger.Logger
}

// Open opens (and if needed initializes) a snapshot store at the given path.
func Open(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, perrors.StorageError(perrors.CodeSnapshotOpen, path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		key        TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, perrors.StorageError(perrors.CodeSnapshotOpen, path, err)
	}

	return &SnapshotStore{
		db:  db,
		log: logger.WithComponent("store"),
	}, nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save writes the dataset's wire document under the given key, replacing any
// previous snapshot.
func (s *SnapshotStore) Save(ctx context.Context, key string, ds *models.Dataset) error {
	payload, err := json.Marshal(codec.BuildExport(ds))
	if err != nil {
		return perrors.StorageError(perrors.CodeSnapshotWrite, key, err)
	}

	query := `INSERT OR REPLACE INTO snapshots (key, payload, updated_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, key, string(payload), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return perrors.StorageError(perrors.CodeSnapshotWrite, key, err)
	}

	s.log.WithField("key", key).WithField("cases", len(ds.Cases)).Debug("snapshot saved")
	return nil
}

// Load reads the snapshot under the given key. A missing row, or a payload
// that fails the minimal shape check (meta present, cases an array), is
// treated as an absent snapshot and loads as (nil, nil).
func (s *SnapshotStore) Load(ctx context.Context, key string) (*models.Dataset, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, perrors.StorageError(perrors.CodeSnapshotRead, key, err)
	}

	if !validSnapshotShape([]byte(payload)) {
		s.log.WithField("key", key).Warn("snapshot payload has no usable shape, treating as absent")
		return nil, nil
	}

	result, err := codec.ParseImport([]byte(payload))
	if err != nil {
		s.log.WithField("key", key).WithError(err).Warn("snapshot payload not importable, treating as absent")
		return nil, nil
	}
	for _, warning := range result.Warnings {
		s.log.WithField("key", key).Warn(warning)
	}
	return result.Dataset, nil
}

// validSnapshotShape checks only that meta is present and cases is an array
// or a case-group object; anything else is an absent snapshot, not an error.
func validSnapshotShape(payload []byte) bool {
	var probe struct {
		Meta  json.RawMessage `json:"meta"`
		Cases json.RawMessage `json:"cases"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	if len(probe.Meta) == 0 || string(probe.Meta) == "null" {
		return false
	}
	if len(probe.Cases) == 0 || string(probe.Cases) == "null" {
		return false
	}
	return true
}
