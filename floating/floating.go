// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: floating/floating.go
// Summary: Tracks which windows float, which floating windows are active
// per (space, pid), and the last-focused floating window.

package floating

import "github.com/skylinewm/skyline/ids"

type spacePid struct {
	space ids.SpaceId
	pid   uint32
}

// Manager implements the Floating Manager (C3).
type Manager struct {
	floating  map[ids.WindowId]bool
	active    map[spacePid]map[ids.WindowId]bool
	lastFocus *ids.WindowId
}

func New() *Manager {
	return &Manager{
		floating: make(map[ids.WindowId]bool),
		active:   make(map[spacePid]map[ids.WindowId]bool),
	}
}

func (m *Manager) AddFloating(w ids.WindowId) { m.floating[w] = true }

func (m *Manager) RemoveFloating(w ids.WindowId) {
	delete(m.floating, w)
	for _, set := range m.active {
		delete(set, w)
	}
	if m.lastFocus != nil && *m.lastFocus == w {
		m.lastFocus = nil
	}
}

func (m *Manager) IsFloating(w ids.WindowId) bool { return m.floating[w] }

func (m *Manager) AddActive(space ids.SpaceId, pid uint32, w ids.WindowId) {
	key := spacePid{space, pid}
	set := m.active[key]
	if set == nil {
		set = make(map[ids.WindowId]bool)
		m.active[key] = set
	}
	set[w] = true
}

func (m *Manager) RemoveActive(space ids.SpaceId, pid uint32, w ids.WindowId) {
	if set, ok := m.active[spacePid{space, pid}]; ok {
		delete(set, w)
	}
}

func (m *Manager) ActiveForPid(space ids.SpaceId, pid uint32) []ids.WindowId {
	set := m.active[spacePid{space, pid}]
	out := make([]ids.WindowId, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	return out
}

// RebuildActiveForWorkspace replaces the space's active set (for pid) with
// the intersection of windows and the global floating set.
func (m *Manager) RebuildActiveForWorkspace(space ids.SpaceId, pid uint32, windows []ids.WindowId) {
	key := spacePid{space, pid}
	set := make(map[ids.WindowId]bool)
	for _, w := range windows {
		if m.floating[w] {
			set[w] = true
		}
	}
	m.active[key] = set
}

func (m *Manager) SetLastFocus(w ids.WindowId) { m.lastFocus = &w }

func (m *Manager) LastFocus() (ids.WindowId, bool) {
	if m.lastFocus == nil {
		return ids.WindowId{}, false
	}
	return *m.lastFocus, true
}
