// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: persist/bridge.go
// Summary: Translates between a vwm.Manager's live workspace shape and
// the persisted Snapshot form, without giving persist a hard dependency
// on vwm's internal state — everything here goes through vwm's public
// accessors.

package persist

import (
	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/vwm"
)

// Capture builds a Snapshot describing space's current workspace shape.
func Capture(m *vwm.Manager, space ids.SpaceId) Snapshot {
	m.EnsureSpaceInitialized(space)
	list := m.WorkspacesForSpace(space)
	active := m.ActiveWorkspace(space)

	names := make([]string, len(list))
	activeIdx := 0
	for i, id := range list {
		if ws, ok := m.Workspace(id); ok {
			names[i] = ws.Name
		}
		if id == active {
			activeIdx = i
		}
	}
	return Snapshot{WorkspaceNames: names, ActiveWorkspaceIndex: activeIdx}
}

// Restore applies snap to space, creating its workspace list from the
// persisted names if space hasn't been touched yet this run (an
// already-initialized space — e.g. one a user has already interacted
// with before the restore file finished loading — is left alone, since
// clobbering live state with a stale snapshot would be the wrong
// direction for the merge).
func Restore(m *vwm.Manager, space ids.SpaceId, snap Snapshot) {
	m.InitializeSpaceFromNames(space, snap.WorkspaceNames, snap.ActiveWorkspaceIndex)
}
