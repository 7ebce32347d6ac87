// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: engine/engine.go
// Summary: The Layout Engine (C5): owns one layout.LayoutTree per virtual
// workspace and orchestrates it together with the Floating Manager and
// Virtual Workspace Manager in response to window-source events and
// user-facing commands.

package engine

import (
	"github.com/skylinewm/skyline/floating"
	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/layout"
	"github.com/skylinewm/skyline/vwm"
)

// WindowSource is the subset of the external window-server capability
// list (spec §6) the engine drives directly: applying computed frames and
// reordering/hiding windows that belong to a workspace not on screen.
type WindowSource interface {
	SetFrame(w ids.WindowId, rect layout.Rect)
	SetHidden(w ids.WindowId, hidden bool)
}

// Config mirrors the settings.layout.* and settings.mouse.* knobs engine
// behavior depends on directly (the rest live in layout.GapConfig /
// layout.StackConfig, constructed by the caller from the same source).
type Config struct {
	Gaps                layout.GapConfig
	Stack               layout.StackConfig
	DefaultRootKind     layout.LayoutKind
	StackDefaultOrient  layout.StackDefaultOrientation
}

// Engine implements the Layout Engine (C5).
type Engine struct {
	cfg Config

	windows WindowSource
	vwm     *vwm.Manager
	float   *floating.Manager

	trees map[ids.VirtualWorkspaceId]*layout.LayoutTree

	screens    map[ids.SpaceId]layout.Rect
	lastFrames map[ids.WindowId]layout.Rect
}

func New(cfg Config, windows WindowSource, wm *vwm.Manager, fl *floating.Manager) *Engine {
	return &Engine{
		cfg:     cfg,
		windows: windows,
		vwm:     wm,
		float:   fl,
		trees:      make(map[ids.VirtualWorkspaceId]*layout.LayoutTree),
		screens:    make(map[ids.SpaceId]layout.Rect),
		lastFrames: make(map[ids.WindowId]layout.Rect),
	}
}

// FocusedWindow resolves the window, if any, that the active workspace's
// current selection names — the `focus_window` half of spec §4.5's
// `EventResponse`, which callers (the Reactor) use to know which window
// needs raising after a command changes selection.
func (e *Engine) FocusedWindow(space ids.SpaceId) (ids.WindowId, bool) {
	ws := e.vwm.ActiveWorkspace(space)
	if ws.IsNil() {
		return ids.WindowId{}, false
	}
	lt, ok := e.trees[ws]
	if !ok {
		return ids.WindowId{}, false
	}
	return lt.WindowAt(lt.CurrentSelection())
}

func (e *Engine) treeFor(ws ids.VirtualWorkspaceId) *layout.LayoutTree {
	lt, ok := e.trees[ws]
	if !ok {
		lt = layout.NewLayoutTree(e.cfg.DefaultRootKind)
		e.trees[ws] = lt
	}
	return lt
}

// ---- event handlers (spec §4.5) ----

// WindowsOnScreenUpdated reconciles a space's exposed workspace layout
// tree with the window source's current window set, dropping bindings
// for windows no longer present.
func (e *Engine) WindowsOnScreenUpdated(space ids.SpaceId, present []ids.WindowId) {
	ws := e.vwm.ActiveWorkspace(space)
	if ws.IsNil() {
		return
	}
	lt := e.treeFor(ws)
	presentSet := make(map[ids.WindowId]bool, len(present))
	for _, w := range present {
		presentSet[w] = true
	}
	for w := range allLeafWindows(lt) {
		if !presentSet[w] {
			lt.RemoveWindow(w)
		}
	}
	e.Relayout(space)
}

// WindowAdded assigns a newly registered window to a workspace via the
// Virtual Workspace Manager, then tiles or floats it.
func (e *Engine) WindowAdded(space ids.SpaceId, w ids.WindowId, info vwm.WindowInfo) {
	assignment := e.vwm.AssignWindow(space, w, info)
	if !assignment.Manage {
		return
	}
	if assignment.Floating {
		e.float.AddFloating(w)
		e.float.AddActive(space, w.Pid, w)
		e.vwm.SetLastFocusedWindow(assignment.Workspace, w)
		return
	}
	lt := e.treeFor(assignment.Workspace)
	lt.AddWindowAfterSelection(w)
	e.vwm.SetLastFocusedWindow(assignment.Workspace, w)
	if assignment.Workspace == e.vwm.ActiveWorkspace(space) {
		e.Relayout(space)
	}
}

// WindowRemoved drops w from whichever workspace (tiled or floating) it
// currently belongs to.
func (e *Engine) WindowRemoved(space ids.SpaceId, w ids.WindowId) {
	if e.float.IsFloating(w) {
		e.float.RemoveFloating(w)
	}
	if ws, ok := e.vwm.WindowWorkspace(space, w); ok {
		lt := e.treeFor(ws)
		lt.RemoveWindow(w)
	}
	e.vwm.RemoveWindow(space, w)
	delete(e.lastFrames, w)
	e.Relayout(space)
}

// WindowFocused updates selection (tiled) or last-focus (floating) to
// track externally-driven focus changes (e.g. the user clicked a window).
func (e *Engine) WindowFocused(space ids.SpaceId, w ids.WindowId) {
	if e.float.IsFloating(w) {
		e.float.SetLastFocus(w)
		return
	}
	ws, ok := e.vwm.WindowWorkspace(space, w)
	if !ok {
		return
	}
	lt := e.treeFor(ws)
	if n, ok := lt.NodeForWindow(w); ok {
		lt.SelectPathTo(n)
		e.vwm.SetLastFocusedWindow(ws, w)
	}
}

// WindowResized forwards a window-server-initiated resize (e.g. the user
// dragged a tiled window's edge) into the layout tree's own bookkeeping.
func (e *Engine) WindowResized(space ids.SpaceId, w ids.WindowId, newRect layout.Rect) {
	ws, ok := e.vwm.WindowWorkspace(space, w)
	if !ok {
		return
	}
	lt := e.treeFor(ws)
	screen, ok := e.screens[space]
	if !ok {
		return
	}
	oldRect, hadOld := e.lastFrames[w]
	if !hadOld {
		oldRect = newRect
	}
	lt.OnWindowResized(w, oldRect, newRect, screen, e.cfg.Gaps)
	e.Relayout(space)
}

// AppClosed removes every window belonging to pid across all workspaces
// this engine tracks for space.
func (e *Engine) AppClosed(space ids.SpaceId, pid uint32) {
	for _, ws := range e.vwm.WorkspacesForSpace(space) {
		workspace, ok := e.vwm.Workspace(ws)
		if !ok {
			continue
		}
		for w := range workspace.Windows {
			if w.Pid == pid {
				e.WindowRemoved(space, w)
			}
		}
	}
}

// SpaceExposed records the on-screen rect for space and recalculates its
// active workspace's layout — called when a space becomes the one
// visible on its display, or its display is resized.
func (e *Engine) SpaceExposed(space ids.SpaceId, screen layout.Rect) {
	e.vwm.EnsureSpaceInitialized(space)
	e.screens[space] = screen
	e.Relayout(space)
}

// ToggleSpaceActivated flips space's activation (settings.default_disable)
// and relays out immediately if the toggle just turned it on.
func (e *Engine) ToggleSpaceActivated(space ids.SpaceId) {
	e.vwm.ToggleSpaceActivated(space)
	if e.vwm.IsSpaceActive(space) {
		e.Relayout(space)
	}
}

// ---- calculate_layout_with_virtual_workspaces ----

// Relayout computes frames for the active workspace's tiled windows and
// applies them via WindowSource, parking every other workspace's windows
// (on this space) off-screen per the hidden-position policy so they keep
// their AX registration without being visible.
func (e *Engine) Relayout(space ids.SpaceId) {
	screen, ok := e.screens[space]
	if !ok || !e.vwm.IsSpaceActive(space) {
		return
	}
	active := e.vwm.ActiveWorkspace(space)

	for _, ws := range e.vwm.WorkspacesForSpace(space) {
		lt := e.treeFor(ws)
		if ws == active {
			frames := layout.CalculateLayout(lt, screen, e.cfg.Gaps, e.cfg.Stack)
			for _, f := range frames {
				e.windows.SetFrame(f.WindowId, f.Rect)
				e.windows.SetHidden(f.WindowId, false)
				e.lastFrames[f.WindowId] = f.Rect
			}
			continue
		}
		e.hideWorkspace(ws, screen)
	}
	e.reflowFloating(space, screen)
}

func (e *Engine) hideWorkspace(ws ids.VirtualWorkspaceId, screen layout.Rect) {
	workspace, ok := e.vwm.Workspace(ws)
	if !ok {
		return
	}
	for w := range workspace.Windows {
		x, y := e.vwm.HiddenPosition(screen.W, screen.H, 1, 1, "")
		e.windows.SetFrame(w, layout.Rect{X: x, Y: y, W: 1, H: 1})
		e.windows.SetHidden(w, true)
	}
}

func (e *Engine) reflowFloating(space ids.SpaceId, screen layout.Rect) {
	active := e.vwm.ActiveWorkspace(space)
	workspace, ok := e.vwm.Workspace(active)
	if !ok {
		return
	}

	byPid := map[uint32][]ids.WindowId{}
	for w := range workspace.Windows {
		if e.float.IsFloating(w) {
			byPid[w.Pid] = append(byPid[w.Pid], w)
		}
	}

	for pid, windows := range byPid {
		e.float.RebuildActiveForWorkspace(space, pid, windows)
		for _, w := range e.float.ActiveForPid(space, pid) {
			if rect, ok := e.vwm.FloatingPosition(space, active, w); ok {
				e.windows.SetFrame(w, rect)
				e.windows.SetHidden(w, false)
				e.lastFrames[w] = rect
			}
		}
	}
}

func allLeafWindows(lt *layout.LayoutTree) map[ids.WindowId]bool {
	out := make(map[ids.WindowId]bool)
	lt.Arena().Walk(lt.Root(), func(n ids.NodeId) {
		if lt.IsLeaf(n) {
			if w, ok := lt.WindowAt(n); ok {
				out[w] = true
			}
		}
	})
	return out
}
