// Package mysql stores the snapshot document in a single-row table, keyed by
// the business location reference. Useful when the service runs next to an
// existing MySQL and local disk is not durable.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Store struct {
	db          *sql.DB
	locationRef string
}

func New(db *sql.DB, locationRef string) *Store {
	return &Store{db: db, locationRef: locationRef}
}

// EnsureSchema creates the snapshot table when missing. Called once at boot.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSnapshotTableSQL); err != nil {
		return fmt.Errorf("ensure review_snapshots table: %w", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context) ([]byte, bool, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, getSnapshotSQL, s.locationRef).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot row: %w", err)
	}
	return doc, true, nil
}

func (s *Store) Write(ctx context.Context, data []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSnapshotSQL, s.locationRef, data); err != nil {
		return fmt.Errorf("upsert snapshot row: %w", err)
	}
	return nil
}
