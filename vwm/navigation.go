// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vwm/navigation.go
// Summary: Workspace navigation (next/prev, optionally skipping empty
// workspaces) and the hidden-window placement policy used to park windows
// belonging to a workspace that isn't currently on screen.

package vwm

import "github.com/skylinewm/skyline/ids"

// NextWorkspace returns the workspace following the active one in space's
// ordered list, wrapping around. When skipEmpty is set, workspaces with no
// windows are skipped over (the active workspace itself is never skipped,
// even if empty, to avoid failing to find a target on an all-empty space).
func (m *Manager) NextWorkspace(space ids.SpaceId, skipEmpty bool) ids.VirtualWorkspaceId {
	return m.stepWorkspace(space, 1, skipEmpty)
}

func (m *Manager) PrevWorkspace(space ids.SpaceId, skipEmpty bool) ids.VirtualWorkspaceId {
	return m.stepWorkspace(space, -1, skipEmpty)
}

func (m *Manager) stepWorkspace(space ids.SpaceId, delta int, skipEmpty bool) ids.VirtualWorkspaceId {
	m.EnsureSpaceInitialized(space)
	list := m.workspacesBySpace[space]
	if len(list) == 0 {
		return ids.NilWorkspace
	}
	cur := m.activeBySpace[space].current
	start := indexOfWorkspace(list, cur)
	if start < 0 {
		start = 0
	}

	n := len(list)
	for step := 1; step <= n; step++ {
		idx := ((start+delta*step)%n + n) % n
		candidate := list[idx]
		if !skipEmpty || idx == start || len(m.workspaces[candidate].Windows) > 0 {
			return candidate
		}
	}
	return cur
}

func indexOfWorkspace(list []ids.VirtualWorkspaceId, id ids.VirtualWorkspaceId) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

// Corner geometry for calculate_hidden_position: windows belonging to a
// workspace not currently exposed on screen are parked just off the edge
// of the screen rather than removed from the window server's z-order, so
// that they reappear instantly and without an AX re-registration round
// trip when their workspace is switched back to.
const visibleIntersectionThreshold = 3.0

// HiddenPosition computes the off-screen park position for a window of
// size (w, h) on a screen of size (screenW, screenH), anchored to the
// manager's configured hidden corner. bundleID drives the us.zoom.xos
// special case: Zoom's window-share detection treats any on-screen pixel
// overlap as "being shared," so its hidden offset is (0,0) rather than the
// usual (1,1) nudge that keeps a sliver of every other app's window
// technically on-screen for AX purposes.
func (m *Manager) HiddenPosition(screenW, screenH, w, h float64, bundleID string) (x, y float64) {
	offsetX, offsetY := 1.0, 1.0
	if bundleID == "us.zoom.xos" {
		offsetX, offsetY = 0, 0
	}

	switch m.cfg.HiddenCorner {
	case BottomLeft:
		x = -w + offsetX
		y = screenH - offsetY
	default: // BottomRight
		x = screenW - offsetX
		y = screenH - offsetY
	}
	return x, y
}

// IsEffectivelyHidden reports whether a window frame at (x, y, w, h) on a
// screen of size (screenW, screenH) counts as hidden: its on-screen
// visible intersection is at most visibleIntersectionThreshold pixels in
// at least one dimension.
func IsEffectivelyHidden(x, y, w, h, screenW, screenH float64) bool {
	visLeft := max0(x)
	visTop := max0(y)
	visRight := min2(x+w, screenW)
	visBottom := min2(y+h, screenH)
	visW := visRight - visLeft
	visH := visBottom - visTop
	if visW < 0 {
		visW = 0
	}
	if visH < 0 {
		visH = 0
	}
	return visW <= visibleIntersectionThreshold || visH <= visibleIntersectionThreshold
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
