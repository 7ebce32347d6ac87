// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: persist/persist.go
// Summary: The durable layout-engine restore file: one blob row per
// space, debounce-flushed to a SQLite database. A WindowId is only
// valid for the lifetime of the window manager process that minted it
// (see ids.WindowId's doc comment), so what gets restored across a
// daemon restart is workspace shape (names, ordering, which one was
// active) — not a verbatim window-to-workspace map, which is rebuilt
// fresh via app-rule evaluation as each window re-announces itself.

package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skylinewm/skyline/ids"
)

// Snapshot is everything persisted for one space.
type Snapshot struct {
	WorkspaceNames       []string `json:"workspace_names"`
	ActiveWorkspaceIndex int      `json:"active_workspace_index"`
}

// flushDebounce mirrors the teacher's fileStorageService: writes
// coalesce over a short window instead of hitting disk on every
// mutation, since workspace switches and window moves happen in
// bursts.
const flushDebounce = 2 * time.Second

// Store is the debounced, SQLite-backed space_snapshots table.
type Store struct {
	db *sql.DB

	mu    sync.RWMutex
	cache map[ids.SpaceId]Snapshot
	dirty map[ids.SpaceId]bool

	flushMu    sync.Mutex
	flushTimer *time.Timer

	closed bool
}

// Open opens (creating if absent) the SQLite restore file at path and
// brings its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", path, err)
	}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{
		db:    db,
		cache: make(map[ids.SpaceId]Snapshot),
		dirty: make(map[ids.SpaceId]bool),
	}, nil
}

// SaveSpace stages snap for space and schedules a debounced flush.
func (s *Store) SaveSpace(space ids.SpaceId, snap Snapshot) {
	s.mu.Lock()
	s.cache[space] = snap
	s.dirty[space] = true
	s.mu.Unlock()
	s.scheduleFlush()
}

// LoadSpace returns the last-persisted Snapshot for space, reading
// through to the database on first access and caching the result.
func (s *Store) LoadSpace(ctx context.Context, space ids.SpaceId) (Snapshot, bool, error) {
	s.mu.RLock()
	if snap, ok := s.cache[space]; ok {
		s.mu.RUnlock()
		return snap, true, nil
	}
	s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM space_snapshots WHERE space_id = ?`, uint64(space)).Scan(&payload)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("persist: load space %d: %w", space, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("persist: decode space %d: %w", space, err)
	}
	s.mu.Lock()
	s.cache[space] = snap
	s.mu.Unlock()
	return snap, true, nil
}

// Flush writes every dirty space's snapshot to the database.
func (s *Store) Flush() error {
	s.mu.Lock()
	dirty := make([]ids.SpaceId, 0, len(s.dirty))
	for space, isDirty := range s.dirty {
		if isDirty {
			dirty = append(dirty, space)
		}
	}
	snapshots := make(map[ids.SpaceId]Snapshot, len(dirty))
	for _, space := range dirty {
		snapshots[space] = s.cache[space]
	}
	s.mu.Unlock()

	for _, space := range dirty {
		data, err := json.Marshal(snapshots[space])
		if err != nil {
			return fmt.Errorf("persist: encode space %d: %w", space, err)
		}
		_, err = s.db.Exec(`
			INSERT INTO space_snapshots (space_id, payload, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(space_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
		`, uint64(space), data, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("persist: write space %d: %w", space, err)
		}
		s.mu.Lock()
		delete(s.dirty, space)
		s.mu.Unlock()
	}
	return nil
}

func (s *Store) scheduleFlush() {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	if s.flushTimer != nil {
		s.flushTimer.Stop()
	}
	s.flushTimer = time.AfterFunc(flushDebounce, func() {
		s.Flush()
	})
}

// Close stops any pending debounce, flushes outstanding writes, and
// closes the underlying database handle.
func (s *Store) Close() error {
	s.flushMu.Lock()
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
	s.flushMu.Unlock()

	flushErr := s.Flush()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return err
	}
	return flushErr
}
