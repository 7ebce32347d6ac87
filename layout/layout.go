// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: layout/layout.go
// Summary: The per-workspace layout tree: container kinds, selection,
// window binding, fullscreen flags, and the navigation/editing commands
// the Layout Engine drives.

package layout

import (
	"log"

	"github.com/skylinewm/skyline/ids"
)

// LayoutKind is the per-container layout discipline. The stack variants
// overlap all children in the container, each offset by StackOffset from
// the previous one, with the focused child drawn slightly enlarged; the
// others tile children along their axis using per-child size shares.
type LayoutKind int

const (
	Horizontal LayoutKind = iota
	Vertical
	HorizontalStack
	VerticalStack
)

func (k LayoutKind) IsStack() bool {
	return k == HorizontalStack || k == VerticalStack
}

// Base strips the stack bit, returning Horizontal or Vertical.
func (k LayoutKind) Base() LayoutKind {
	if k == HorizontalStack {
		return Horizontal
	}
	if k == VerticalStack {
		return Vertical
	}
	return k
}

func (k LayoutKind) AsStack() LayoutKind {
	if k.Base() == Horizontal {
		return HorizontalStack
	}
	return VerticalStack
}

func (k LayoutKind) String() string {
	switch k {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case HorizontalStack:
		return "horizontal-stack"
	case VerticalStack:
		return "vertical-stack"
	default:
		return "unknown"
	}
}

// Direction drives move_focus/move_selection/resize walks. Horizontal-kind
// containers arrange children left-to-right (Left/Right neighbors);
// Vertical-kind containers arrange children top-to-bottom (Up/Down
// neighbors) — matching the container-kind naming throughout this package.
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

// MatchesOrientation reports whether d is an axis direction for kind k.
func (d Direction) MatchesOrientation(k LayoutKind) bool {
	switch d {
	case DirLeft, DirRight:
		return k.Base() == Horizontal
	case DirUp, DirDown:
		return k.Base() == Vertical
	}
	return false
}

// IsForward reports whether d walks toward higher sibling indices.
func (d Direction) IsForward() bool { return d == DirRight || d == DirDown }

func (d Direction) Opposite() Direction {
	switch d {
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	case DirUp:
		return DirDown
	default:
		return DirUp
	}
}

// KindForDirection returns the container kind whose axis matches d.
func KindForDirection(d Direction) LayoutKind {
	if d == DirLeft || d == DirRight {
		return Vertical
	}
	return Horizontal
}

// StackDefaultOrientation selects a stack kind when converting a
// container, per the settings.layout.stack.default_orientation knob.
type StackDefaultOrientation int

const (
	StackPerpendicular StackDefaultOrientation = iota
	StackSame
	StackHorizontal
	StackVertical
)

// Info is the per-node layout side table: share of parent, sum of
// children shares, container kind, and fullscreen flags.
type Info struct {
	Size                   float64
	Total                  float64
	Kind                   LayoutKind
	LastUngroupedKind      LayoutKind
	IsFullscreen           bool
	IsFullscreenWithinGaps bool
}

// LayoutTree is the per-(space, workspace) layout: a generic Arena plus
// the per-node side tables (selection, window binding, layout info) kept
// current across structural edits via the Observer hooks below.
type LayoutTree struct {
	arena *Tree

	info map[ids.NodeId]*Info

	// selected[parent] is the locally-selected child of parent, or
	// ids.NilNode if none.
	selected map[ids.NodeId]ids.NodeId
	stopHere map[ids.NodeId]bool

	windowOf map[ids.NodeId]ids.WindowId
	nodeOf   map[ids.WindowId]ids.NodeId

	// inCollapse guards against reentrant RemovedChild calls triggered by
	// the Detach/Remove calls the collapse logic itself issues; collapse
	// is single-level per removal event, matching the teacher's
	// CloseActiveLeaf (which doesn't cascade through ancestors either).
	inCollapse bool
}

// NewLayoutTree creates an empty layout tree with a single root group of
// the given kind and no windows.
func NewLayoutTree(rootKind LayoutKind) *LayoutTree {
	lt := &LayoutTree{
		info:     make(map[ids.NodeId]*Info),
		selected: make(map[ids.NodeId]ids.NodeId),
		stopHere: make(map[ids.NodeId]bool),
		windowOf: make(map[ids.NodeId]ids.WindowId),
		nodeOf:   make(map[ids.WindowId]ids.NodeId),
	}
	lt.arena = NewTree(lt)
	root := lt.arena.NewNode()
	lt.arena.SetRoot(root)
	lt.info[root] = &Info{Size: 1, Total: 0, Kind: rootKind, LastUngroupedKind: rootKind.Base()}
	return lt
}

func (lt *LayoutTree) Arena() *Tree { return lt.arena }

func (lt *LayoutTree) Root() ids.NodeId { return lt.arena.Root() }

func (lt *LayoutTree) Info(n ids.NodeId) *Info { return lt.info[n] }

func (lt *LayoutTree) IsLeaf(n ids.NodeId) bool {
	return lt.arena.Alive(n) && lt.arena.ChildCount(n) == 0
}

func (lt *LayoutTree) WindowAt(n ids.NodeId) (ids.WindowId, bool) {
	w, ok := lt.windowOf[n]
	return w, ok
}

func (lt *LayoutTree) NodeForWindow(w ids.WindowId) (ids.NodeId, bool) {
	n, ok := lt.nodeOf[w]
	return n, ok
}

// ---- Observer implementation: keeps side tables aligned with the arena ----

func (lt *LayoutTree) AddedToForest(n ids.NodeId) {
	lt.info[n] = &Info{Size: 1}
}

func (lt *LayoutTree) AddedToParent(n, parent ids.NodeId) {
	// No-op: Size/Total bookkeeping is driven explicitly by the commands
	// that attach nodes, since the correct share depends on sibling
	// context the observer alone can't infer.
}

func (lt *LayoutTree) RemovingFromParent(n, parent ids.NodeId) {
	if lt.selected[parent] == n {
		lt.clearSelectionFallback(parent, n)
	}
}

func (lt *LayoutTree) RemovedFromForest(n ids.NodeId) {
	delete(lt.info, n)
	delete(lt.selected, n)
	delete(lt.stopHere, n)
	if w, ok := lt.windowOf[n]; ok {
		delete(lt.windowOf, n)
		delete(lt.nodeOf, w)
	}
}

func (lt *LayoutTree) Copied(src, dest ids.NodeId, destTree *Tree) {
	// destTree is always lt.arena for an intra-tree copy; cross-tree deep
	// copies are not exercised by the Layout Engine today.
	if srcInfo, ok := lt.info[src]; ok {
		cp := *srcInfo
		lt.info[dest] = &cp
	}
	if w, ok := lt.windowOf[src]; ok {
		lt.windowOf[dest] = w
		lt.nodeOf[w] = dest
	}
}

// RemovedChild inlines a lone remaining child into its parent's place, or
// drops an emptied container, mirroring the teacher's single-child
// collapse in CloseActiveLeaf.
func (lt *LayoutTree) RemovedChild(t *Tree, parent ids.NodeId) {
	if lt.inCollapse {
		return
	}
	lt.inCollapse = true
	defer func() { lt.inCollapse = false }()

	switch t.ChildCount(parent) {
	case 0:
		grandparent := t.Parent(parent)
		if grandparent.IsNil() {
			// Root emptied: leave it as an empty container rather than
			// removing the tree's root node.
			return
		}
		if err := t.Remove(parent); err != nil {
			log.Printf("layout: RemovedChild: remove emptied parent: %v", err)
		}
	case 1:
		only := t.Children(parent)[0]
		grandparent := t.Parent(parent)
		if grandparent.IsNil() {
			// parent is root: promote only's subtree in place by copying
			// its info/window binding onto the root node, then removing
			// only as a standalone node (its children get re-parented).
			lt.promoteOnlyChildIntoRoot(t, parent, only)
			return
		}
		idx := t.IndexOf(grandparent, parent)
		if err := t.Detach(only); err != nil {
			log.Printf("layout: RemovedChild: detach only child: %v", err)
			return
		}
		if err := t.Detach(parent); err != nil {
			log.Printf("layout: RemovedChild: detach parent: %v", err)
			return
		}
		lt.removeNodeKeepingSideTablesFor(t, parent)
		if err := t.InsertAt(grandparent, only, idx); err != nil {
			log.Printf("layout: RemovedChild: reattach only child: %v", err)
		}
		if lt.selected[grandparent] == parent {
			lt.selected[grandparent] = only
		}
	}
}

// removeNodeKeepingSideTablesFor deallocates a detached, childless node
// without firing RemovedFromForest's side-table cleanup twice (the node
// is a bookkeeping husk at this point, not a user-visible container).
func (lt *LayoutTree) removeNodeKeepingSideTablesFor(t *Tree, n ids.NodeId) {
	_ = t.Remove(n)
}

func (lt *LayoutTree) promoteOnlyChildIntoRoot(t *Tree, root, only ids.NodeId) {
	grandkids := t.Children(only)
	onlyInfo := lt.info[only]
	onlyWindow, hadWindow := lt.windowOf[only]

	for _, gc := range grandkids {
		if err := t.Detach(gc); err != nil {
			log.Printf("layout: promoteOnlyChildIntoRoot: detach grandchild: %v", err)
			return
		}
	}
	if err := t.Detach(only); err != nil {
		log.Printf("layout: promoteOnlyChildIntoRoot: detach only: %v", err)
		return
	}
	_ = t.Remove(only)

	if onlyInfo != nil {
		cp := *onlyInfo
		lt.info[root] = &cp
	}
	if hadWindow {
		lt.windowOf[root] = onlyWindow
		lt.nodeOf[onlyWindow] = root
	} else {
		delete(lt.windowOf, root)
	}
	for _, gc := range grandkids {
		if err := t.PushBack(root, gc); err != nil {
			log.Printf("layout: promoteOnlyChildIntoRoot: reattach grandchild: %v", err)
		}
	}
	if sel, ok := lt.selected[only]; ok {
		lt.selected[root] = sel
	}
}

// clearSelectionFallback implements the selection-detach rule from §3:
// fall back to next sibling, else previous sibling, else clear.
func (lt *LayoutTree) clearSelectionFallback(parent, removed ids.NodeId) {
	idx := lt.arena.IndexOf(parent, removed)
	siblings := lt.arena.Children(parent)
	if idx < 0 {
		delete(lt.selected, parent)
		return
	}
	if idx+1 < len(siblings) {
		lt.selected[parent] = siblings[idx+1]
		return
	}
	if idx-1 >= 0 {
		lt.selected[parent] = siblings[idx-1]
		return
	}
	delete(lt.selected, parent)
}
