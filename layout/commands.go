// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: layout/commands.go
// Summary: The Layout Tree command set: insertion, reconciliation,
// navigation, joining, stacking, resize, fullscreen, and window swap.

package layout

import "github.com/skylinewm/skyline/ids"

const minShare = 0.05

// newWindowNode allocates a fresh leaf bound to wid.
func (lt *LayoutTree) newWindowNode(wid ids.WindowId) ids.NodeId {
	n := lt.arena.NewNode()
	lt.bindWindow(n, wid)
	return n
}

func (lt *LayoutTree) bindWindow(n ids.NodeId, wid ids.WindowId) {
	lt.windowOf[n] = wid
	lt.nodeOf[wid] = n
	if lt.info[n] == nil {
		lt.info[n] = &Info{Size: 1}
	} else {
		lt.info[n].Size = 1
	}
}

// normalizeSizes gives every child of parent an equal share, matching the
// teacher's SplitActive rebalance-on-insert behavior.
func (lt *LayoutTree) normalizeSizes(parent ids.NodeId) {
	kids := lt.arena.Children(parent)
	n := len(kids)
	if n == 0 {
		return
	}
	share := 1.0 / float64(n)
	for _, k := range kids {
		if info := lt.info[k]; info != nil {
			info.Size = share
		} else {
			lt.info[k] = &Info{Size: share}
		}
	}
	if pinfo := lt.info[parent]; pinfo != nil {
		pinfo.Total = 1.0
	}
}

// Rebalance walks the whole tree giving any zero-size child a size of 1
// and recomputing each container's Total, per the Layout Engine's
// post-reconciliation rebalance step.
func (lt *LayoutTree) Rebalance() {
	lt.arena.Walk(lt.arena.Root(), func(n ids.NodeId) {
		kids := lt.arena.Children(n)
		if len(kids) == 0 {
			return
		}
		total := 0.0
		for _, k := range kids {
			ki := lt.info[k]
			if ki == nil {
				ki = &Info{}
				lt.info[k] = ki
			}
			if ki.Size == 0 {
				ki.Size = 1
			}
			total += ki.Size
		}
		if info := lt.info[n]; info != nil {
			info.Total = total
		}
	})
}

// leafFollowingSelection descends from n via local selection (falling
// back to the first child), used after a structural move to pick the new
// focus target.
func (lt *LayoutTree) leafFollowingSelection(n ids.NodeId) ids.NodeId {
	for lt.arena.ChildCount(n) > 0 {
		if sel, ok := lt.selected[n]; ok && lt.arena.Alive(sel) {
			n = sel
		} else {
			n = lt.arena.Children(n)[0]
		}
	}
	return n
}

// AddWindowAfterSelection performs smart insertion: if the current
// selection's parent is not a stack and already has 4+ children, a new sub-
// container absorbs the selection and the new window to avoid flat
// sprawl; otherwise the window becomes a plain sibling after selection.
func (lt *LayoutTree) AddWindowAfterSelection(wid ids.WindowId) ids.NodeId {
	sel := lt.CurrentSelection()
	if sel.IsNil() {
		root := lt.arena.Root()
		lt.bindWindow(root, wid)
		lt.SelectPathTo(root)
		return root
	}

	parent := lt.arena.Parent(sel)
	if parent.IsNil() {
		if lt.arena.ChildCount(sel) == 0 {
			if _, hasWindow := lt.windowOf[sel]; !hasWindow {
				lt.bindWindow(sel, wid)
				lt.SelectPathTo(sel)
				return sel
			}
		}
		return lt.wrapRootWithSibling(sel, wid)
	}

	newNode := lt.newWindowNode(wid)
	pinfo := lt.info[parent]
	if pinfo != nil && lt.arena.ChildCount(parent) >= 4 && !pinfo.Kind.IsStack() {
		container := lt.arena.NewNode()
		lt.info[container] = &Info{Kind: pinfo.Kind, Size: 1}
		idx := lt.arena.IndexOf(parent, sel)
		_ = lt.arena.Detach(sel)
		_ = lt.arena.InsertAt(parent, container, idx)
		_ = lt.arena.PushBack(container, sel)
		_ = lt.arena.PushBack(container, newNode)
		lt.normalizeSizes(container)
		lt.selected[container] = newNode
		lt.SelectPathTo(newNode)
		return newNode
	}

	_ = lt.arena.InsertAfter(sel, newNode)
	lt.normalizeSizes(parent)
	lt.SelectPathTo(newNode)
	return newNode
}

func (lt *LayoutTree) wrapRootWithSibling(oldRoot ids.NodeId, wid ids.WindowId) ids.NodeId {
	newWin := lt.newWindowNode(wid)
	oldInfo := lt.info[oldRoot]
	kind := Horizontal
	if oldInfo != nil {
		kind = oldInfo.Kind.Base()
	}
	newRoot := lt.arena.NewNode()
	lt.info[newRoot] = &Info{Kind: kind, Size: 1}
	lt.arena.SetRoot(newRoot)
	_ = lt.arena.PushBack(newRoot, oldRoot)
	_ = lt.arena.PushBack(newRoot, newWin)
	lt.normalizeSizes(newRoot)
	lt.selected[newRoot] = newWin
	lt.SelectPathTo(newWin)
	return newWin
}

// SetWindowsForApp reconciles pid's windows against desired: new ids are
// inserted after the current selection, stale ones are removed unless
// flagged fullscreen (those survive reconciliation in place).
func (lt *LayoutTree) SetWindowsForApp(pid uint32, desired []ids.WindowId) {
	desiredSet := make(map[ids.WindowId]bool, len(desired))
	for _, w := range desired {
		desiredSet[w] = true
	}

	var stale []ids.NodeId
	for n, w := range lt.windowOf {
		if w.Pid != pid || desiredSet[w] {
			continue
		}
		if info := lt.info[n]; info != nil && info.IsFullscreen {
			continue
		}
		stale = append(stale, n)
	}
	for _, n := range stale {
		_ = lt.arena.Remove(n)
	}

	existing := make(map[ids.WindowId]bool)
	for _, w := range lt.windowOf {
		if w.Pid == pid {
			existing[w] = true
		}
	}
	for _, w := range desired {
		if !existing[w] {
			lt.AddWindowAfterSelection(w)
		}
	}
}

// RemoveWindow detaches and deallocates the node bound to wid, if any.
func (lt *LayoutTree) RemoveWindow(wid ids.WindowId) bool {
	n, ok := lt.nodeOf[wid]
	if !ok {
		return false
	}
	return lt.arena.Remove(n) == nil
}

func (lt *LayoutTree) descendInto(n ids.NodeId, dir Direction) ids.NodeId {
	for lt.arena.ChildCount(n) > 0 {
		info := lt.info[n]
		kids := lt.arena.Children(n)
		if info != nil && dir.MatchesOrientation(info.Kind) {
			if dir.IsForward() {
				n = kids[0]
			} else {
				n = kids[len(kids)-1]
			}
			continue
		}
		if sel, ok := lt.selected[n]; ok && lt.arena.Alive(sel) {
			n = sel
		} else {
			n = kids[0]
		}
	}
	return n
}

// moveFocusTarget climbs from the current selection until it finds an
// ancestor whose orientation matches dir and a sibling in that direction,
// then descends into it. Returns ids.NilNode if no such target exists.
func (lt *LayoutTree) moveFocusTarget(dir Direction) ids.NodeId {
	cur := lt.CurrentSelection()
	for {
		parent := lt.arena.Parent(cur)
		if parent.IsNil() {
			return ids.NilNode
		}
		info := lt.info[parent]
		if info != nil && dir.MatchesOrientation(info.Kind) {
			idx := lt.arena.IndexOf(parent, cur)
			step := 1
			if !dir.IsForward() {
				step = -1
			}
			kids := lt.arena.Children(parent)
			ti := idx + step
			if ti >= 0 && ti < len(kids) {
				return lt.descendInto(kids[ti], dir)
			}
		}
		cur = parent
	}
}

// MoveFocus moves the selection chain to the neighbor in dir, returning
// the new leaf and whether a target was found.
func (lt *LayoutTree) MoveFocus(dir Direction) (ids.NodeId, bool) {
	target := lt.moveFocusTarget(dir)
	if target.IsNil() {
		return ids.NilNode, false
	}
	lt.SelectPathTo(target)
	return target, true
}

// MoveSelection relocates the node carrying the current selection across
// siblings in dir, climbing to an ancestor of matching orientation that
// has a sibling in dir. When no such ancestor exists, nothing moves and
// it returns false; no new root container is created.
func (lt *LayoutTree) MoveSelection(dir Direction) bool {
	sel := lt.CurrentSelection()
	if sel.IsNil() {
		return false
	}
	cur := sel
	for {
		parent := lt.arena.Parent(cur)
		if parent.IsNil() {
			return lt.wrapRootAndMove(dir, cur)
		}
		info := lt.info[parent]
		if info != nil && dir.MatchesOrientation(info.Kind) {
			idx := lt.arena.IndexOf(parent, cur)
			step := 1
			if !dir.IsForward() {
				step = -1
			}
			kids := lt.arena.Children(parent)
			ti := idx + step
			if ti >= 0 && ti < len(kids) {
				return lt.moveNodeAdjacent(parent, cur, kids[ti], dir)
			}
		}
		cur = parent
	}
}

func (lt *LayoutTree) moveNodeAdjacent(parent, moving, target ids.NodeId, dir Direction) bool {
	// The move leaves parent's child count unchanged, so suppress the
	// single-child collapse the intermediate Detach would trigger.
	prev := lt.inCollapse
	lt.inCollapse = true
	defer func() { lt.inCollapse = prev }()
	if err := lt.arena.Detach(moving); err != nil {
		return false
	}
	var err error
	if dir.IsForward() {
		err = lt.arena.InsertAfter(target, moving)
	} else {
		err = lt.arena.InsertBefore(target, moving)
	}
	if err != nil {
		return false
	}
	lt.normalizeSizes(parent)
	lt.SelectPathTo(lt.leafFollowingSelection(moving))
	return true
}

func (lt *LayoutTree) wrapRootAndMove(dir Direction, moving ids.NodeId) bool {
	oldRoot := lt.arena.Root()
	if moving == oldRoot {
		return false
	}
	if err := lt.arena.Detach(moving); err != nil {
		return false
	}
	newRoot := lt.arena.NewNode()
	lt.info[newRoot] = &Info{Kind: KindForDirection(dir), Size: 1}
	lt.arena.SetRoot(newRoot)
	_ = lt.arena.PushBack(newRoot, oldRoot)
	if dir.IsForward() {
		_ = lt.arena.PushBack(newRoot, moving)
	} else {
		_ = lt.arena.InsertAt(newRoot, moving, 0)
	}
	lt.normalizeSizes(newRoot)
	lt.SelectPathTo(lt.leafFollowingSelection(moving))
	return true
}

// JoinSelectionWithDirection performs the "natural join": absorb into a
// stack neighbor, toggle orientation when already siblings, absorb an
// edge neighbor's container, or merge into the target's container.
func (lt *LayoutTree) JoinSelectionWithDirection(dir Direction) bool {
	sel := lt.CurrentSelection()
	parent := lt.arena.Parent(sel)
	if parent.IsNil() {
		return false
	}
	pinfo := lt.info[parent]

	if pinfo != nil && dir.MatchesOrientation(pinfo.Kind) && !pinfo.Kind.IsStack() {
		idx := lt.arena.IndexOf(parent, sel)
		kids := lt.arena.Children(parent)
		atEdge := (dir.IsForward() && idx == len(kids)-1) || (!dir.IsForward() && idx == 0)
		if atEdge {
			grandparent := lt.arena.Parent(parent)
			if !grandparent.IsNil() {
				gidx := lt.arena.IndexOf(grandparent, parent)
				step := 1
				if !dir.IsForward() {
					step = -1
				}
				gkids := lt.arena.Children(grandparent)
				ti := gidx + step
				if ti >= 0 && ti < len(gkids) {
					target := gkids[ti]
					if err := lt.arena.Detach(target); err == nil {
						if dir.IsForward() {
							_ = lt.arena.PushBack(parent, target)
						} else {
							_ = lt.arena.InsertAt(parent, target, 0)
						}
						lt.normalizeSizes(parent)
						lt.SelectPathTo(sel)
						return true
					}
				}
			}
		}
	}

	target := lt.moveFocusTarget(dir)
	if target.IsNil() {
		return false
	}
	tparent := lt.arena.Parent(target)
	tinfo := lt.info[tparent]

	if tinfo != nil && tinfo.Kind.IsStack() {
		if err := lt.arena.Detach(sel); err != nil {
			return false
		}
		_ = lt.arena.PushBack(tparent, sel)
		lt.normalizeSizes(tparent)
		lt.selected[tparent] = sel
		lt.SelectPathTo(sel)
		return true
	}

	if tparent == parent {
		pinfo.Kind = KindForDirection(dir)
		return true
	}

	if err := lt.arena.Detach(sel); err != nil {
		return false
	}
	var err error
	if dir.IsForward() {
		err = lt.arena.InsertBefore(target, sel)
	} else {
		err = lt.arena.InsertAfter(target, sel)
	}
	if err != nil {
		return false
	}
	lt.normalizeSizes(tparent)
	lt.SelectPathTo(sel)
	return true
}

// ToggleTileOrientation flips Horizontal<->Vertical on the parent of the
// selection, or on the selection itself when it is a root leaf.
func (lt *LayoutTree) ToggleTileOrientation() {
	sel := lt.CurrentSelection()
	target := lt.arena.Parent(sel)
	if target.IsNil() {
		target = sel
	}
	info := lt.info[target]
	if info == nil || info.Kind.IsStack() {
		return
	}
	if info.Kind == Horizontal {
		info.Kind = Vertical
	} else {
		info.Kind = Horizontal
	}
}

func resolveStackKind(base LayoutKind, def StackDefaultOrientation) LayoutKind {
	switch def {
	case StackSame:
		return base.AsStack()
	case StackHorizontal:
		return HorizontalStack
	case StackVertical:
		return VerticalStack
	default: // StackPerpendicular
		if base == Horizontal {
			return VerticalStack
		}
		return HorizontalStack
	}
}

// ApplyStackingToParentOfSelection converts the selection's parent
// container into a stack. Re-applying to an already-stacked container
// toggles its stack orientation instead.
func (lt *LayoutTree) ApplyStackingToParentOfSelection(def StackDefaultOrientation) {
	sel := lt.CurrentSelection()
	target := lt.arena.Parent(sel)
	if target.IsNil() {
		target = sel
	}
	info := lt.info[target]
	if info == nil {
		return
	}
	if info.Kind.IsStack() {
		if info.Kind == HorizontalStack {
			info.Kind = VerticalStack
		} else {
			info.Kind = HorizontalStack
		}
		return
	}
	info.LastUngroupedKind = info.Kind.Base()
	info.Kind = resolveStackKind(info.Kind.Base(), def)
}

// UnstackParentOfSelection reverses ApplyStackingToParentOfSelection,
// restoring the container's last non-stack kind.
func (lt *LayoutTree) UnstackParentOfSelection(def StackDefaultOrientation) {
	sel := lt.CurrentSelection()
	target := lt.arena.Parent(sel)
	if target.IsNil() {
		target = sel
	}
	info := lt.info[target]
	if info == nil || !info.Kind.IsStack() {
		return
	}
	info.Kind = info.LastUngroupedKind
}

// ResizeSelectionBy redistributes size shares between the selection and
// its neighbor along dir, expressed as a fraction of the enclosing
// container's total share. Returns false if the move would shrink either
// side below the minimum share.
func (lt *LayoutTree) ResizeSelectionBy(dir Direction, amount float64) bool {
	cur := lt.CurrentSelection()
	for {
		parent := lt.arena.Parent(cur)
		if parent.IsNil() {
			return false
		}
		pinfo := lt.info[parent]
		if pinfo != nil && dir.MatchesOrientation(pinfo.Kind) && !pinfo.Kind.IsStack() {
			idx := lt.arena.IndexOf(parent, cur)
			step := 1
			if !dir.IsForward() {
				step = -1
			}
			kids := lt.arena.Children(parent)
			ti := idx + step
			if ti >= 0 && ti < len(kids) {
				a := lt.info[cur]
				b := lt.info[kids[ti]]
				if a == nil || b == nil {
					return false
				}
				total := pinfo.Total
				if total <= 0 {
					total = float64(len(kids))
				}
				delta := amount * total
				if a.Size+delta < minShare || b.Size-delta < minShare {
					return false
				}
				a.Size += delta
				b.Size -= delta
				return true
			}
		}
		cur = parent
	}
}

// ToggleFullscreenOfSelection toggles the selection's fullscreen flag,
// clearing fullscreen-within-gaps (at most one is ever true).
func (lt *LayoutTree) ToggleFullscreenOfSelection() {
	info := lt.info[lt.CurrentSelection()]
	if info == nil {
		return
	}
	info.IsFullscreen = !info.IsFullscreen
	if info.IsFullscreen {
		info.IsFullscreenWithinGaps = false
	}
}

func (lt *LayoutTree) ToggleFullscreenWithinGapsOfSelection() {
	info := lt.info[lt.CurrentSelection()]
	if info == nil {
		return
	}
	info.IsFullscreenWithinGaps = !info.IsFullscreenWithinGaps
	if info.IsFullscreenWithinGaps {
		info.IsFullscreen = false
	}
}

// SwapWindows exchanges the window bindings of a and b with no structural
// change to the tree.
func (lt *LayoutTree) SwapWindows(a, b ids.WindowId) bool {
	na, ok1 := lt.nodeOf[a]
	nb, ok2 := lt.nodeOf[b]
	if !ok1 || !ok2 {
		return false
	}
	lt.windowOf[na] = b
	lt.windowOf[nb] = a
	lt.nodeOf[a] = nb
	lt.nodeOf[b] = na
	return true
}

// OnWindowResized reconciles an OS-reported frame change: promotes to
// fullscreen/fullscreen-within-gaps when the new frame matches the screen
// or tiling area, otherwise translates the changed edges into paired
// resize calls.
func (lt *LayoutTree) OnWindowResized(wid ids.WindowId, oldFrame, newFrame, screen Rect, gaps GapConfig) {
	n, ok := lt.nodeOf[wid]
	if !ok {
		return
	}
	info := lt.info[n]
	if info == nil {
		return
	}
	if rectsEqual(newFrame, screen) {
		info.IsFullscreen = true
		info.IsFullscreenWithinGaps = false
		return
	}
	tilingArea := gaps.Shrink(screen)
	if rectsEqual(newFrame, tilingArea) {
		info.IsFullscreenWithinGaps = true
		info.IsFullscreen = false
		return
	}
	lt.SelectPathTo(n)
	lt.setFrameFromResize(oldFrame, newFrame)
}

func (lt *LayoutTree) setFrameFromResize(old, new Rect) {
	dxLeft := new.X - old.X
	dxRight := new.right() - old.right()
	dyTop := new.Y - old.Y
	dyBottom := new.bottom() - old.bottom()

	if dxLeft != 0 || dxRight != 0 {
		delta, dir := dxRight, DirRight
		if dxLeft != 0 && dxRight == 0 {
			delta, dir = -dxLeft, DirLeft
		}
		if delta != 0 && old.W != 0 {
			lt.ResizeSelectionBy(dir, delta/old.W)
		}
	}
	if dyTop != 0 || dyBottom != 0 {
		delta, dir := dyBottom, DirDown
		if dyTop != 0 && dyBottom == 0 {
			delta, dir = -dyTop, DirUp
		}
		if delta != 0 && old.H != 0 {
			lt.ResizeSelectionBy(dir, delta/old.H)
		}
	}
}
