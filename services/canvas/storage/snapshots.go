// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/aircanvas/services/canvas/geometry"
)

var (
	// ErrSnapshotNotFound is returned for an unknown snapshot ID.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidSnapshotID is returned for an ID that is not a UUID.
	ErrInvalidSnapshotID = errors.New("invalid snapshot id")
)

const snapshotPrefix = "snapshot/"

// Snapshot is a saved canvas: the strokes drawn when "take screenshot" ran.
type Snapshot struct {
	ID        string             `json:"id"`
	SessionID string             `json:"session_id"`
	CreatedAt time.Time          `json:"created_at"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Segments  []geometry.Segment `json:"segments"`
}

// SnapshotInfo is the listing view of a Snapshot, without segments.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Segments  int       `json:"segments"`
}

// SnapshotStore saves and retrieves snapshots.
//
// # Description
//
// Snapshots are JSON values under "snapshot/<id>". IDs are UUIDv7, which sort
// by creation time, so a reverse prefix scan lists newest first without an
// index.
//
// # Thread Safety
//
// Safe for concurrent use.
type SnapshotStore struct {
	db  *DB
	now func() time.Time
}

// NewSnapshotStore creates a store on db.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db, now: time.Now}
}

// Save stores snap and returns its ID.
//
// A missing ID is generated and a zero CreatedAt is set to now. snap is not
// modified.
func (s *SnapshotStore) Save(ctx context.Context, snap Snapshot) (string, error) {
	if snap.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("generate snapshot id: %w", err)
		}
		snap.ID = id.String()
	} else if _, err := uuid.Parse(snap.ID); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSnapshotID, snap.ID)
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.now().UTC()
	}
	if snap.Segments == nil {
		snap.Segments = []geometry.Segment{}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	err = s.db.Update(ctx, func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(snap.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	return snap.ID, nil
}

// Get returns the snapshot with id.
func (s *SnapshotStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSnapshotID, id)
	}

	var snap Snapshot
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSnapshotNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// List returns all snapshots, newest first.
func (s *SnapshotStore) List(ctx context.Context) ([]SnapshotInfo, error) {
	var out []SnapshotInfo
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(snapshotPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key <= seek.
		seek := append([]byte(snapshotPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var snap Snapshot
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &snap)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, SnapshotInfo{
				ID:        snap.ID,
				SessionID: snap.SessionID,
				CreatedAt: snap.CreatedAt,
				Segments:  len(snap.Segments),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// Delete removes the snapshot with id.
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshotID, id)
	}
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		key := snapshotKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSnapshotNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return nil
}

func snapshotKey(id string) []byte {
	return []byte(snapshotPrefix + id)
}
