// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: engine/commands.go
// Summary: User-facing Layout Engine commands (spec §4.5): focus/selection
// navigation, window movement, floating toggles, workspace switching, and
// resize shortcuts, all expressed in terms of the active workspace's tree.

package engine

import (
	"log"

	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/layout"
)

const defaultResizeStep = 0.05

func (e *Engine) activeTree(space ids.SpaceId) (*layout.LayoutTree, ids.VirtualWorkspaceId) {
	ws := e.vwm.ActiveWorkspace(space)
	if ws.IsNil() {
		return nil, ids.NilWorkspace
	}
	return e.treeFor(ws), ws
}

// MoveFocus moves the selection to the tiled neighbor in dir, returning
// the window now focused (spec §4.5 EventResponse.focus_window) so the
// caller can raise it. A false second return means this space has no
// neighbor in dir and the caller (the Reactor) should fall back to
// visible-space/floating-window resolution per spec §4.5's MoveFocus
// command (scenario S2).
func (e *Engine) MoveFocus(space ids.SpaceId, dir layout.Direction) (ids.WindowId, bool) {
	lt, _ := e.activeTree(space)
	if lt == nil {
		return ids.WindowId{}, false
	}
	target, ok := lt.MoveFocus(dir)
	if !ok {
		return ids.WindowId{}, false
	}
	return lt.WindowAt(target)
}

// NextWindow/PrevWindow cycle focus forward/back through the current
// stack or container without needing a directional neighbor, returning
// the newly focused window.
func (e *Engine) NextWindow(space ids.SpaceId) (ids.WindowId, bool) { return e.cycleWindow(space, 1) }
func (e *Engine) PrevWindow(space ids.SpaceId) (ids.WindowId, bool) { return e.cycleWindow(space, -1) }

func (e *Engine) cycleWindow(space ids.SpaceId, delta int) (ids.WindowId, bool) {
	lt, _ := e.activeTree(space)
	if lt == nil {
		return ids.WindowId{}, false
	}
	sel := lt.CurrentSelection()
	parent := lt.Arena().Parent(sel)
	if parent.IsNil() {
		return ids.WindowId{}, false
	}
	kids := lt.Arena().Children(parent)
	idx := lt.Arena().IndexOf(parent, sel)
	if idx < 0 || len(kids) == 0 {
		return ids.WindowId{}, false
	}
	n := len(kids)
	next := ((idx+delta)%n + n) % n
	lt.SelectPathTo(kids[next])
	return lt.WindowAt(kids[next])
}

// MoveNode relocates the selected node across siblings in dir.
func (e *Engine) MoveNode(space ids.SpaceId, dir layout.Direction) {
	lt, _ := e.activeTree(space)
	if lt == nil {
		return
	}
	lt.MoveSelection(dir)
	e.Relayout(space)
}

// ToggleFocusFloating switches input focus between the tiled selection
// and the last-focused floating window, per the floating/tiled focus
// duality spec §4.3 describes.
func (e *Engine) ToggleFocusFloating(space ids.SpaceId) (ids.WindowId, bool) {
	if w, ok := e.float.LastFocus(); ok {
		return w, true
	}
	lt, _ := e.activeTree(space)
	if lt == nil {
		return ids.WindowId{}, false
	}
	sel := lt.CurrentSelection()
	return lt.WindowAt(sel)
}

// ToggleWindowFloating moves w between the tiled layout and the floating
// set. Floating w records its last tiled frame as its floating position
// unless one is already stored; tiling it again inserts it after the
// current selection.
func (e *Engine) ToggleWindowFloating(space ids.SpaceId, w ids.WindowId) {
	ws, ok := e.vwm.WindowWorkspace(space, w)
	if !ok {
		return
	}
	lt := e.treeFor(ws)

	if e.float.IsFloating(w) {
		e.float.RemoveFloating(w)
		lt.AddWindowAfterSelection(w)
		e.Relayout(space)
		return
	}

	if rect, had := e.lastFrames[w]; had {
		e.vwm.StoreFloatingPositionIfAbsent(space, ws, w, rect)
	}
	lt.RemoveWindow(w)
	e.float.AddFloating(w)
	e.float.AddActive(space, w.Pid, w)
	e.Relayout(space)
}

// NextWorkspace/PrevWorkspace switch to the adjacent workspace on space,
// optionally skipping empty ones, returning the new workspace's
// last-focused window (spec §4.5 EventResponse.focus_window) if it has one.
func (e *Engine) NextWorkspace(space ids.SpaceId, skipEmpty bool) (ids.WindowId, bool) {
	target := e.vwm.NextWorkspace(space, skipEmpty)
	e.vwm.ActivateWorkspace(space, target)
	e.Relayout(space)
	return e.workspaceLastFocused(target)
}

func (e *Engine) PrevWorkspace(space ids.SpaceId, skipEmpty bool) (ids.WindowId, bool) {
	target := e.vwm.PrevWorkspace(space, skipEmpty)
	e.vwm.ActivateWorkspace(space, target)
	e.Relayout(space)
	return e.workspaceLastFocused(target)
}

func (e *Engine) SwitchToWorkspace(space ids.SpaceId, ws ids.VirtualWorkspaceId) (ids.WindowId, bool) {
	e.vwm.ActivateWorkspace(space, ws)
	e.Relayout(space)
	return e.workspaceLastFocused(ws)
}

// SwitchToLastWorkspace implements the back-and-forth toggle explicitly
// (distinct from the auto-back-and-forth config knob, which folds the
// same behavior into every ActivateWorkspace call).
func (e *Engine) SwitchToLastWorkspace(space ids.SpaceId) (ids.WindowId, bool) {
	prev := e.vwm.PreviousWorkspace(space)
	if prev.IsNil() {
		return ids.WindowId{}, false
	}
	e.vwm.ActivateWorkspace(space, prev)
	e.Relayout(space)
	return e.workspaceLastFocused(prev)
}

func (e *Engine) workspaceLastFocused(ws ids.VirtualWorkspaceId) (ids.WindowId, bool) {
	workspace, ok := e.vwm.Workspace(ws)
	if !ok || workspace.LastFocused == nil {
		return ids.WindowId{}, false
	}
	return *workspace.LastFocused, true
}

func (e *Engine) CreateWorkspace(space ids.SpaceId, name string) ids.VirtualWorkspaceId {
	return e.vwm.CreateWorkspace(space, name)
}

// MoveWindowToWorkspace relocates w from its current workspace to target,
// leaving selection/focus on the window it displaces.
func (e *Engine) MoveWindowToWorkspace(space ids.SpaceId, w ids.WindowId, target ids.VirtualWorkspaceId) {
	source, ok := e.vwm.WindowWorkspace(space, w)
	if !ok || source == target {
		return
	}
	if !e.float.IsFloating(w) {
		srcTree := e.treeFor(source)
		srcTree.RemoveWindow(w)
		dstTree := e.treeFor(target)
		dstTree.AddWindowAfterSelection(w)
	}
	e.vwm.RemoveWindow(space, w)
	e.vwm.AssignDirect(space, w, target)
	e.Relayout(space)
}

// ToggleStack converts the selection's parent container into a stack, or
// reverses that if it already is one.
func (e *Engine) ToggleStack(space ids.SpaceId) {
	lt, _ := e.activeTree(space)
	if lt == nil {
		return
	}
	sel := lt.CurrentSelection()
	parent := lt.Arena().Parent(sel)
	target := parent
	if target.IsNil() {
		target = sel
	}
	if info := lt.Info(target); info != nil && info.Kind.IsStack() {
		lt.UnstackParentOfSelection(e.cfg.StackDefaultOrient)
	} else {
		lt.ApplyStackingToParentOfSelection(e.cfg.StackDefaultOrient)
	}
	e.Relayout(space)
}

func (e *Engine) ToggleOrientation(space ids.SpaceId) {
	lt, _ := e.activeTree(space)
	if lt == nil {
		return
	}
	lt.ToggleTileOrientation()
	e.Relayout(space)
}

// UnjoinWindows splits the selection out of its stack/container into its
// own sibling slot (the inverse of JoinWindow).
func (e *Engine) UnjoinWindows(space ids.SpaceId) {
	lt, _ := e.activeTree(space)
	if lt == nil {
		return
	}
	sel := lt.CurrentSelection()
	parent := lt.Arena().Parent(sel)
	if parent.IsNil() {
		return
	}
	grandparent := lt.Arena().Parent(parent)
	if grandparent.IsNil() {
		return
	}
	// Detaching sel from a two-child parent collapses that parent into
	// its remaining child at the same index, so insert by index rather
	// than relative to parent.
	idx := lt.Arena().IndexOf(grandparent, parent)
	if err := lt.Arena().Detach(sel); err != nil {
		log.Printf("engine: UnjoinWindows: detach: %v", err)
		return
	}
	if err := lt.Arena().InsertAt(grandparent, sel, idx+1); err != nil {
		log.Printf("engine: UnjoinWindows: reattach: %v", err)
		return
	}
	lt.SelectPathTo(sel)
	e.Relayout(space)
}

// JoinWindow performs the "natural join" in dir (spec's
// join_selection_with_direction).
func (e *Engine) JoinWindow(space ids.SpaceId, dir layout.Direction) {
	lt, _ := e.activeTree(space)
	if lt == nil {
		return
	}
	lt.JoinSelectionWithDirection(dir)
	e.Relayout(space)
}

func (e *Engine) ResizeWindowGrow(space ids.SpaceId, dir layout.Direction) {
	e.resizeBy(space, dir, defaultResizeStep)
}

func (e *Engine) ResizeWindowShrink(space ids.SpaceId, dir layout.Direction) {
	e.resizeBy(space, dir, -defaultResizeStep)
}

func (e *Engine) ResizeWindowBy(space ids.SpaceId, dir layout.Direction, amount float64) {
	e.resizeBy(space, dir, amount)
}

func (e *Engine) resizeBy(space ids.SpaceId, dir layout.Direction, amount float64) {
	lt, _ := e.activeTree(space)
	if lt == nil {
		return
	}
	if lt.ResizeSelectionBy(dir, amount) {
		e.Relayout(space)
	}
}
