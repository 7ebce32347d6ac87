// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: layout/tree.go
// Summary: Generic n-ary tree over a slotmap-style node arena. Nodes are
// addressed by generational NodeId so a reference captured before a
// structural edit is detectably stale afterward, never a dangling pointer.

package layout

import (
	"fmt"
	"log"

	"github.com/skylinewm/skyline/ids"
)

// Observer receives structural lifecycle events so per-node side tables
// (selection, window binding, layout info) anywhere in the system can stay
// in sync with the tree without the tree knowing about them.
type Observer interface {
	AddedToForest(n ids.NodeId)
	AddedToParent(n, parent ids.NodeId)
	RemovingFromParent(n, parent ids.NodeId)
	RemovedFromForest(n ids.NodeId)
	// Copied mirrors a deep-copy: src's side-table state should be
	// duplicated onto dest in destTree.
	Copied(src, dest ids.NodeId, destTree *Tree)
	// RemovedChild runs after any removal; observers may inline a lone
	// remaining child or drop an emptied container.
	RemovedChild(t *Tree, parent ids.NodeId)
}

type node struct {
	gen      uint32
	alive    bool
	parent   ids.NodeId
	children []ids.NodeId
}

// Tree is a generic n-ary arena tree. It carries no domain knowledge of
// layouts, windows, or workspaces — those live in the per-node side tables
// the Observer keeps current.
type Tree struct {
	nodes    []node
	free     []uint32
	root     ids.NodeId
	observer Observer
}

// NewTree creates an empty tree. observer may be nil.
func NewTree(observer Observer) *Tree {
	return &Tree{observer: observer}
}

func (t *Tree) SetObserver(o Observer) { t.observer = o }

func (t *Tree) Root() ids.NodeId { return t.root }

func (t *Tree) SetRoot(n ids.NodeId) { t.root = n }

// Alive reports whether id still refers to a live node (not removed, and
// the generation matches — guards against a stale NodeId from before a
// slot was recycled).
func (t *Tree) Alive(id ids.NodeId) bool {
	if id.IsNil() || int(id.Index) >= len(t.nodes) {
		return false
	}
	n := t.nodes[id.Index]
	return n.alive && n.gen == id.Gen
}

func (t *Tree) Parent(id ids.NodeId) ids.NodeId {
	if !t.Alive(id) {
		return ids.NilNode
	}
	return t.nodes[id.Index].parent
}

// Children returns a copy of id's children in order; callers must not
// mutate the tree while holding this slice.
func (t *Tree) Children(id ids.NodeId) []ids.NodeId {
	if !t.Alive(id) {
		return nil
	}
	out := make([]ids.NodeId, len(t.nodes[id.Index].children))
	copy(out, t.nodes[id.Index].children)
	return out
}

func (t *Tree) ChildCount(id ids.NodeId) int {
	if !t.Alive(id) {
		return 0
	}
	return len(t.nodes[id.Index].children)
}

// IndexOf returns child's position in parent's children list, or -1.
func (t *Tree) IndexOf(parent, child ids.NodeId) int {
	if !t.Alive(parent) {
		return -1
	}
	for i, c := range t.nodes[parent.Index].children {
		if c == child {
			return i
		}
	}
	return -1
}

// NewNode allocates a detached node with no parent and no children.
func (t *Tree) NewNode() ids.NodeId {
	if len(t.free) > 0 {
		idx := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.nodes[idx].gen++
		t.nodes[idx].alive = true
		t.nodes[idx].parent = ids.NilNode
		t.nodes[idx].children = nil
		id := ids.NodeId{Index: idx, Gen: t.nodes[idx].gen}
		if t.observer != nil {
			t.observer.AddedToForest(id)
		}
		return id
	}
	idx := uint32(len(t.nodes))
	t.nodes = append(t.nodes, node{gen: 1, alive: true, parent: ids.NilNode})
	id := ids.NodeId{Index: idx, Gen: 1}
	if t.observer != nil {
		t.observer.AddedToForest(id)
	}
	return id
}

// PushBack appends child as parent's last child.
func (t *Tree) PushBack(parent, child ids.NodeId) error {
	return t.InsertAt(parent, child, t.ChildCount(parent))
}

// InsertBefore inserts newNode immediately before sibling under sibling's
// parent.
func (t *Tree) InsertBefore(sibling, newNode ids.NodeId) error {
	parent := t.Parent(sibling)
	if parent.IsNil() {
		return fmt.Errorf("layout: InsertBefore: sibling %v has no parent", sibling)
	}
	idx := t.IndexOf(parent, sibling)
	if idx < 0 {
		return fmt.Errorf("layout: InsertBefore: sibling %v not found under parent", sibling)
	}
	return t.InsertAt(parent, newNode, idx)
}

// InsertAfter inserts newNode immediately after sibling under sibling's
// parent.
func (t *Tree) InsertAfter(sibling, newNode ids.NodeId) error {
	parent := t.Parent(sibling)
	if parent.IsNil() {
		return fmt.Errorf("layout: InsertAfter: sibling %v has no parent", sibling)
	}
	idx := t.IndexOf(parent, sibling)
	if idx < 0 {
		return fmt.Errorf("layout: InsertAfter: sibling %v not found under parent", sibling)
	}
	return t.InsertAt(parent, newNode, idx+1)
}

// InsertAt inserts child into parent's children at position pos.
func (t *Tree) InsertAt(parent, child ids.NodeId, pos int) error {
	if !t.Alive(parent) {
		return fmt.Errorf("layout: InsertAt: parent %v not alive", parent)
	}
	if !t.Alive(child) {
		return fmt.Errorf("layout: InsertAt: child %v not alive", child)
	}
	if !t.Parent(child).IsNil() {
		return fmt.Errorf("layout: InsertAt: child %v already attached", child)
	}
	kids := t.nodes[parent.Index].children
	if pos < 0 || pos > len(kids) {
		pos = len(kids)
	}
	kids = append(kids, ids.NilNode)
	copy(kids[pos+1:], kids[pos:])
	kids[pos] = child
	t.nodes[parent.Index].children = kids
	t.nodes[child.Index].parent = parent
	if t.observer != nil {
		t.observer.AddedToParent(child, parent)
	}
	return nil
}

// Detach removes child from its parent's children list but leaves the
// subtree itself intact and allocated — the caller must reattach it
// elsewhere or Remove it explicitly.
func (t *Tree) Detach(child ids.NodeId) error {
	parent := t.Parent(child)
	if parent.IsNil() {
		return nil
	}
	if t.observer != nil {
		t.observer.RemovingFromParent(child, parent)
	}
	idx := t.IndexOf(parent, child)
	if idx < 0 {
		return fmt.Errorf("layout: Detach: child %v not found under parent %v", child, parent)
	}
	kids := t.nodes[parent.Index].children
	kids = append(kids[:idx], kids[idx+1:]...)
	t.nodes[parent.Index].children = kids
	t.nodes[child.Index].parent = ids.NilNode
	if t.observer != nil {
		t.observer.RemovedChild(t, parent)
	}
	return nil
}

// Remove detaches and recursively deallocates id's subtree, emitting one
// RemovedFromForest event per node, deepest-first.
func (t *Tree) Remove(id ids.NodeId) error {
	parent := t.Parent(id)
	if !parent.IsNil() {
		if err := t.Detach(id); err != nil {
			return err
		}
	} else if t.root == id {
		t.root = ids.NilNode
	}
	t.removeSubtree(id)
	return nil
}

func (t *Tree) removeSubtree(id ids.NodeId) {
	if !t.Alive(id) {
		return
	}
	for _, c := range t.nodes[id.Index].children {
		t.removeSubtree(c)
	}
	t.nodes[id.Index].alive = false
	t.nodes[id.Index].children = nil
	t.free = append(t.free, id.Index)
	if t.observer != nil {
		t.observer.RemovedFromForest(id)
	}
}

// DeepCopy structurally clones the subtree rooted at src into dest (a
// possibly different Tree), returning the new root. The Observer's Copied
// hook is invoked per node so side-tables are duplicated alongside.
func (t *Tree) DeepCopy(src ids.NodeId, dest *Tree) ids.NodeId {
	if !t.Alive(src) {
		return ids.NilNode
	}
	newID := dest.NewNode()
	if dest.observer != nil {
		dest.observer.Copied(src, newID, dest)
	}
	for _, c := range t.nodes[src.Index].children {
		childCopy := t.DeepCopy(c, dest)
		if err := dest.PushBack(newID, childCopy); err != nil {
			log.Printf("layout: DeepCopy: attach child: %v", err)
		}
	}
	return newID
}

// Walk visits id and its descendants pre-order.
func (t *Tree) Walk(id ids.NodeId, visit func(ids.NodeId)) {
	if !t.Alive(id) {
		return
	}
	visit(id)
	for _, c := range t.nodes[id.Index].children {
		t.Walk(c, visit)
	}
}
