// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: layout/selection.go
// Summary: Selection-chain bookkeeping: the leaf reached by following each
// container's locally-selected child down from the root.

package layout

import "github.com/skylinewm/skyline/ids"

// Select marks n as its parent's locally selected child. A no-op if n is
// the root (the root has no parent to record selection on).
func (lt *LayoutTree) Select(n ids.NodeId) {
	parent := lt.arena.Parent(n)
	if parent.IsNil() {
		return
	}
	lt.selected[parent] = n
}

// SetStopHere marks (or, with stop false, unmarks) n as a descent
// terminator: the selection chain stops at n even if n itself has a
// locally-selected child.
func (lt *LayoutTree) SetStopHere(n ids.NodeId, stop bool) {
	if stop {
		lt.stopHere[n] = true
	} else {
		delete(lt.stopHere, n)
	}
}

// CurrentSelection descends from the root through local selections,
// stopping at a leaf or at a node marked StopHere.
func (lt *LayoutTree) CurrentSelection() ids.NodeId {
	n := lt.arena.Root()
	for {
		if n.IsNil() || lt.stopHere[n] || lt.arena.ChildCount(n) == 0 {
			return n
		}
		next, ok := lt.selected[n]
		if !ok || !lt.arena.Alive(next) {
			return n
		}
		n = next
	}
}

// FirstLeaf descends to the first leaf under n following no particular
// selection (always the first child), used when a fresh subtree needs an
// initial focus target.
func (lt *LayoutTree) FirstLeaf(n ids.NodeId) ids.NodeId {
	for lt.arena.ChildCount(n) > 0 {
		n = lt.arena.Children(n)[0]
	}
	return n
}

// SelectPathTo walks from n up to the root, recording n as the locally
// selected child at each level, so CurrentSelection() will resolve to n.
func (lt *LayoutTree) SelectPathTo(n ids.NodeId) {
	cur := n
	for {
		parent := lt.arena.Parent(cur)
		if parent.IsNil() {
			return
		}
		lt.selected[parent] = cur
		cur = parent
	}
}

// FocusedAncestor returns container's locally selected child, or its
// first child when none is recorded (NilNode if container has no
// children) — used to find the "focused" child of a stack for geometry.
func (lt *LayoutTree) FocusedAncestor(container ids.NodeId) ids.NodeId {
	sel, ok := lt.selected[container]
	if !ok {
		kids := lt.arena.Children(container)
		if len(kids) == 0 {
			return ids.NilNode
		}
		return kids[0]
	}
	return sel
}
