// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vwm/vwm.go
// Summary: The Virtual Workspace Manager: per-space ordered workspace
// lists, window-to-workspace assignment via app rules, and the state that
// survives workspace switches (floating positions, last-rule decisions).

package vwm

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/layout"
)

const maxWorkspacesPerSpace = 32

// Workspace is a logical partition of windows within a space.
type Workspace struct {
	ID          ids.VirtualWorkspaceId
	Name        string
	Space       ids.SpaceId
	Windows     map[ids.WindowId]bool
	LastFocused *ids.WindowId
}

type spaceWindow struct {
	space ids.SpaceId
	w     ids.WindowId
}

type spaceWorkspace struct {
	space ids.SpaceId
	ws    ids.VirtualWorkspaceId
}

type activePair struct {
	previous, current ids.VirtualWorkspaceId
}

// Config mirrors the virtual_workspaces.* configuration knobs.
type Config struct {
	WorkspaceNames            []string
	DefaultWorkspaceCount     int
	DefaultWorkspace          int
	WorkspaceAutoBackAndForth bool
	HiddenCorner              Corner

	// DefaultDisable flips whether a newly observed space is managed
	// (tiled) without the user asking, or stays dormant until toggled
	// on (settings.default_disable). Spaces the user has explicitly
	// toggled are tracked in toggledSpaces regardless of which default
	// is configured.
	DefaultDisable bool
}

type Corner int

const (
	BottomRight Corner = iota
	BottomLeft
)

// Manager implements the Virtual Workspace Manager (C4).
type Manager struct {
	cfg   Config
	rules []AppRule

	nextIndex uint32

	workspaces        map[ids.VirtualWorkspaceId]*Workspace
	workspacesBySpace map[ids.SpaceId][]ids.VirtualWorkspaceId
	activeBySpace     map[ids.SpaceId]activePair
	windowToWorkspace map[spaceWindow]ids.VirtualWorkspaceId
	floatingPositions map[spaceWorkspace]map[ids.WindowId]layout.Rect
	lastRuleDecision  map[spaceWindow]bool

	regexCache *cache.Cache

	toggledSpaces map[ids.SpaceId]bool
}

func NewManager(cfg Config, rules []AppRule) *Manager {
	return &Manager{
		cfg:               cfg,
		rules:             rules,
		workspaces:        make(map[ids.VirtualWorkspaceId]*Workspace),
		workspacesBySpace: make(map[ids.SpaceId][]ids.VirtualWorkspaceId),
		activeBySpace:     make(map[ids.SpaceId]activePair),
		windowToWorkspace: make(map[spaceWindow]ids.VirtualWorkspaceId),
		floatingPositions: make(map[spaceWorkspace]map[ids.WindowId]layout.Rect),
		lastRuleDecision:  make(map[spaceWindow]bool),
		regexCache:        cache.New(30*time.Minute, time.Hour),
		toggledSpaces:     make(map[ids.SpaceId]bool),
	}
}

// IsSpaceActive reports whether space should currently be tiled. Under
// settings.default_disable=false (the common case) every space is active
// unless the user has toggled it off; under default_disable=true a space
// stays dormant until the user explicitly toggles it on.
func (m *Manager) IsSpaceActive(space ids.SpaceId) bool {
	toggled := m.toggledSpaces[space]
	if m.cfg.DefaultDisable {
		return toggled
	}
	return !toggled
}

// ToggleSpaceActivated flips space's activation state relative to its
// configured default, implementing the wm.toggle_space_activated command.
func (m *Manager) ToggleSpaceActivated(space ids.SpaceId) {
	m.toggledSpaces[space] = !m.toggledSpaces[space]
}

func (m *Manager) newWorkspaceID() ids.VirtualWorkspaceId {
	m.nextIndex++
	return ids.VirtualWorkspaceId{Index: m.nextIndex, Gen: 1}
}

// EnsureSpaceInitialized creates the configured default set of workspaces
// for space on first reference, activating the configured default index.
func (m *Manager) EnsureSpaceInitialized(space ids.SpaceId) {
	if _, ok := m.workspacesBySpace[space]; ok {
		return
	}
	count := m.cfg.DefaultWorkspaceCount
	if count < 1 {
		count = 1
	}
	if count > maxWorkspacesPerSpace {
		count = maxWorkspacesPerSpace
	}

	list := make([]ids.VirtualWorkspaceId, 0, count)
	for i := 0; i < count; i++ {
		name := ""
		if i < len(m.cfg.WorkspaceNames) {
			name = m.cfg.WorkspaceNames[i]
		}
		if name == "" {
			name = defaultWorkspaceName(i + 1)
		}
		id := m.newWorkspaceID()
		m.workspaces[id] = &Workspace{ID: id, Name: name, Space: space, Windows: make(map[ids.WindowId]bool)}
		list = append(list, id)
	}
	m.workspacesBySpace[space] = list

	def := m.cfg.DefaultWorkspace
	if def < 0 || def >= len(list) {
		def = 0
	}
	m.activeBySpace[space] = activePair{current: list[def]}
}

// InitializeSpaceFromNames seeds space's workspace list from exactly
// names (skipping the configured default count/names), activating
// activeIndex. Used by persist.Restore to recreate a space's shape from
// a restore-file snapshot rather than from live configuration; a no-op
// if space already has workspaces.
func (m *Manager) InitializeSpaceFromNames(space ids.SpaceId, names []string, activeIndex int) {
	if _, ok := m.workspacesBySpace[space]; ok {
		return
	}
	if len(names) == 0 {
		return
	}
	list := make([]ids.VirtualWorkspaceId, 0, len(names))
	for i, name := range names {
		if name == "" {
			name = defaultWorkspaceName(i + 1)
		}
		id := m.newWorkspaceID()
		m.workspaces[id] = &Workspace{ID: id, Name: name, Space: space, Windows: make(map[ids.WindowId]bool)}
		list = append(list, id)
	}
	m.workspacesBySpace[space] = list

	if activeIndex < 0 || activeIndex >= len(list) {
		activeIndex = 0
	}
	m.activeBySpace[space] = activePair{current: list[activeIndex]}
}

func defaultWorkspaceName(n int) string {
	return "Workspace " + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func (m *Manager) Workspace(id ids.VirtualWorkspaceId) (*Workspace, bool) {
	ws, ok := m.workspaces[id]
	return ws, ok
}

func (m *Manager) WorkspacesForSpace(space ids.SpaceId) []ids.VirtualWorkspaceId {
	out := make([]ids.VirtualWorkspaceId, len(m.workspacesBySpace[space]))
	copy(out, m.workspacesBySpace[space])
	return out
}

func (m *Manager) ActiveWorkspace(space ids.SpaceId) ids.VirtualWorkspaceId {
	return m.activeBySpace[space].current
}

func (m *Manager) PreviousWorkspace(space ids.SpaceId) ids.VirtualWorkspaceId {
	return m.activeBySpace[space].previous
}

// CreateWorkspace appends a new, empty workspace to space's list.
func (m *Manager) CreateWorkspace(space ids.SpaceId, name string) ids.VirtualWorkspaceId {
	m.EnsureSpaceInitialized(space)
	if name == "" {
		name = defaultWorkspaceName(len(m.workspacesBySpace[space]) + 1)
	}
	id := m.newWorkspaceID()
	m.workspaces[id] = &Workspace{ID: id, Name: name, Space: space, Windows: make(map[ids.WindowId]bool)}
	m.workspacesBySpace[space] = append(m.workspacesBySpace[space], id)
	return id
}

// ActivateWorkspace switches space's active workspace to id, recording
// the previous one for back-and-forth navigation.
func (m *Manager) ActivateWorkspace(space ids.SpaceId, id ids.VirtualWorkspaceId) {
	m.EnsureSpaceInitialized(space)
	cur := m.activeBySpace[space]
	if m.cfg.WorkspaceAutoBackAndForth && cur.current == id && !cur.previous.IsNil() {
		id = cur.previous
	}
	m.activeBySpace[space] = activePair{previous: cur.current, current: id}
}

func (m *Manager) WindowWorkspace(space ids.SpaceId, w ids.WindowId) (ids.VirtualWorkspaceId, bool) {
	id, ok := m.windowToWorkspace[spaceWindow{space, w}]
	return id, ok
}

// assignToWorkspace writes the authoritative window_to_workspace mapping,
// removing any prior mapping for w first (invariant: a window belongs to
// at most one workspace per space).
func (m *Manager) assignToWorkspace(space ids.SpaceId, w ids.WindowId, target ids.VirtualWorkspaceId) {
	key := spaceWindow{space, w}
	if prev, ok := m.windowToWorkspace[key]; ok {
		if prevWs, ok := m.workspaces[prev]; ok {
			delete(prevWs.Windows, w)
		}
	}
	m.windowToWorkspace[key] = target
	if ws, ok := m.workspaces[target]; ok {
		ws.Windows[w] = true
	}
}

// AssignDirect places w onto target without evaluating app rules, for
// explicit user-driven moves (move_window_to_workspace) where the window
// is already managed and a fresh rule evaluation would be wrong.
func (m *Manager) AssignDirect(space ids.SpaceId, w ids.WindowId, target ids.VirtualWorkspaceId) {
	m.assignToWorkspace(space, w, target)
}

// RemoveWindow clears w from whatever workspace it belongs to on space,
// and from the floating-position store.
func (m *Manager) RemoveWindow(space ids.SpaceId, w ids.WindowId) {
	key := spaceWindow{space, w}
	if ws, ok := m.windowToWorkspace[key]; ok {
		if workspace, ok := m.workspaces[ws]; ok {
			delete(workspace.Windows, w)
			if workspace.LastFocused != nil && *workspace.LastFocused == w {
				workspace.LastFocused = nil
			}
		}
	}
	delete(m.windowToWorkspace, key)
	delete(m.lastRuleDecision, key)
	for k, positions := range m.floatingPositions {
		if k.space == space {
			delete(positions, w)
		}
	}
}

func (m *Manager) SetLastFocusedWindow(ws ids.VirtualWorkspaceId, w ids.WindowId) {
	if workspace, ok := m.workspaces[ws]; ok {
		v := w
		workspace.LastFocused = &v
	}
}

// StoreFloatingPosition records w's floating rect for (space, ws),
// overwriting any previous value.
func (m *Manager) StoreFloatingPosition(space ids.SpaceId, ws ids.VirtualWorkspaceId, w ids.WindowId, rect layout.Rect) {
	key := spaceWorkspace{space, ws}
	if m.floatingPositions[key] == nil {
		m.floatingPositions[key] = make(map[ids.WindowId]layout.Rect)
	}
	m.floatingPositions[key][w] = rect
}

// StoreFloatingPositionIfAbsent only writes if w has no stored position.
func (m *Manager) StoreFloatingPositionIfAbsent(space ids.SpaceId, ws ids.VirtualWorkspaceId, w ids.WindowId, rect layout.Rect) {
	key := spaceWorkspace{space, ws}
	if positions, ok := m.floatingPositions[key]; ok {
		if _, exists := positions[w]; exists {
			return
		}
	}
	m.StoreFloatingPosition(space, ws, w, rect)
}

func (m *Manager) FloatingPosition(space ids.SpaceId, ws ids.VirtualWorkspaceId, w ids.WindowId) (layout.Rect, bool) {
	positions, ok := m.floatingPositions[spaceWorkspace{space, ws}]
	if !ok {
		return layout.Rect{}, false
	}
	r, ok := positions[w]
	return r, ok
}

// RemapSpace migrates all keyed state from old to new (macOS recreates
// physical spaces after sleep/resume with a new SpaceId). Any state
// auto-initialized for new is dropped in favor of the migrated state.
func (m *Manager) RemapSpace(old, new ids.SpaceId) {
	if old == new {
		return
	}
	if list, ok := m.workspacesBySpace[old]; ok {
		for _, id := range list {
			if ws, ok := m.workspaces[id]; ok {
				ws.Space = new
			}
		}
		m.workspacesBySpace[new] = list
		delete(m.workspacesBySpace, old)
	}
	if active, ok := m.activeBySpace[old]; ok {
		m.activeBySpace[new] = active
		delete(m.activeBySpace, old)
	}
	for key, ws := range m.windowToWorkspace {
		if key.space == old {
			m.windowToWorkspace[spaceWindow{new, key.w}] = ws
			delete(m.windowToWorkspace, key)
		}
	}
	for key, positions := range m.floatingPositions {
		if key.space == old {
			m.floatingPositions[spaceWorkspace{new, key.ws}] = positions
			delete(m.floatingPositions, key)
		}
	}
	for key, decision := range m.lastRuleDecision {
		if key.space == old {
			m.lastRuleDecision[spaceWindow{new, key.w}] = decision
			delete(m.lastRuleDecision, key)
		}
	}
}
