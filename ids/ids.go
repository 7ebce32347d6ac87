// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: ids/ids.go
// Summary: Opaque identifiers shared across the layout, workspace, and
// actor packages: windows, tree nodes, spaces, virtual workspaces, and
// transactions.

// Package ids defines the small, comparable identifier types threaded
// through the rest of the tree — none of them carry behavior, they just
// give every other package a stable, hashable vocabulary to key maps on.
package ids

import "fmt"

// WindowId pairs the owning process id with a per-process monotonic
// counter. Valid only for the lifetime of the window manager process;
// never persisted across restarts.
type WindowId struct {
	Pid uint32
	Idx uint32
}

// String renders the WindowId in the round-trippable debug format the
// exposed UI event channel depends on for persistence-friendly logging.
func (w WindowId) String() string {
	return fmt.Sprintf("WindowId { pid: %d, idx: %d }", w.Pid, w.Idx)
}

// IsZero reports whether w is the zero value (never a valid window).
func (w WindowId) IsZero() bool { return w.Pid == 0 && w.Idx == 0 }

// NodeId is a generational key into a tree's node arena. Generation tags
// let the tree detect references to a slot that has been recycled.
type NodeId struct {
	Index uint32
	Gen    uint32
}

// NilNode is the zero NodeId; no live node ever has this value.
var NilNode = NodeId{}

func (n NodeId) IsNil() bool { return n == NilNode }

func (n NodeId) String() string {
	return fmt.Sprintf("NodeId(%d:%d)", n.Index, n.Gen)
}

// SpaceId identifies a macOS physical space.
type SpaceId uint64

// VirtualWorkspaceId is a generational key for a logical workspace.
type VirtualWorkspaceId struct {
	Index uint32
	Gen    uint32
}

var NilWorkspace = VirtualWorkspaceId{}

func (v VirtualWorkspaceId) IsNil() bool { return v == NilWorkspace }

// TransactionId is a monotonic stamp correlating geometry commands with
// the OS echoes that confirm (or contradict) them.
type TransactionId uint64

// ZeroTransaction is "no transaction"; comparisons against it never count as stale.
const ZeroTransaction TransactionId = 0
