// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package persist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/vwm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "restore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveSpace_ReadableFromCacheBeforeFlush(t *testing.T) {
	s := openTestStore(t)
	snap := Snapshot{WorkspaceNames: []string{"one", "two"}, ActiveWorkspaceIndex: 1}
	s.SaveSpace(1, snap)

	got, ok, err := s.LoadSpace(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap, got)
}

func TestStore_Flush_PersistsToDatabase(t *testing.T) {
	s := openTestStore(t)
	snap := Snapshot{WorkspaceNames: []string{"a"}, ActiveWorkspaceIndex: 0}
	s.SaveSpace(2, snap)
	require.NoError(t, s.Flush())

	// A fresh Store reading the same file sees only what made it to disk.
	s.mu.Lock()
	delete(s.cache, 2)
	s.mu.Unlock()

	got, ok, err := s.LoadSpace(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap, got)
}

func TestStore_LoadSpace_MissingReturnsFalse(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.LoadSpace(context.Background(), ids.SpaceId(999))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_Close_FlushesOutstandingWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restore.db")
	s, err := Open(path)
	require.NoError(t, err)
	s.SaveSpace(3, Snapshot{WorkspaceNames: []string{"x"}, ActiveWorkspaceIndex: 0})
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, ok, err := reopened.LoadSpace(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"x"}, got.WorkspaceNames)
}

func TestStore_ScheduleFlush_Debounces(t *testing.T) {
	s := openTestStore(t)
	s.SaveSpace(4, Snapshot{WorkspaceNames: []string{"one"}})

	s.flushMu.Lock()
	timerWasRunning := s.flushTimer != nil
	s.flushMu.Unlock()
	require.True(t, timerWasRunning, "a debounce timer is scheduled rather than flushing synchronously")

	time.Sleep(flushDebounce + 200*time.Millisecond)
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM space_snapshots WHERE space_id = ?`, uint64(4)).Scan(&payload)
	require.NoError(t, err, "debounced flush eventually writes through")
}

func TestCapture_BuildsSnapshotFromLiveWorkspaceShape(t *testing.T) {
	m := vwm.NewManager(vwm.Config{DefaultWorkspaceCount: 2}, nil)
	m.EnsureSpaceInitialized(1)

	snap := Capture(m, 1)
	require.Len(t, snap.WorkspaceNames, 2)
	require.Equal(t, 0, snap.ActiveWorkspaceIndex)
}

func TestRestore_InitializesUntouchedSpaceFromSnapshot(t *testing.T) {
	m := vwm.NewManager(vwm.Config{DefaultWorkspaceCount: 1}, nil)
	snap := Snapshot{WorkspaceNames: []string{"alpha", "beta"}, ActiveWorkspaceIndex: 1}

	Restore(m, 1, snap)

	list := m.WorkspacesForSpace(1)
	require.Len(t, list, 2)
	active := m.ActiveWorkspace(1)
	require.Equal(t, list[1], active)
}

func TestRestore_LeavesAlreadyInitializedSpaceAlone(t *testing.T) {
	m := vwm.NewManager(vwm.Config{DefaultWorkspaceCount: 3}, nil)
	m.EnsureSpaceInitialized(1)
	before := m.WorkspacesForSpace(1)

	Restore(m, 1, Snapshot{WorkspaceNames: []string{"only-one"}, ActiveWorkspaceIndex: 0})

	require.Equal(t, before, m.WorkspacesForSpace(1), "live state wins over a late-arriving restore")
}
