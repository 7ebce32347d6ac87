// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: reactor/events.go
// Summary: The Reactor's event vocabulary (spec §4.7/§2 dataflow):
// window-server notifications flowing in from wsrc, decoded user
// commands flowing in from inputsrc, and the ordering guarantees both
// are dispatched under.

package reactor

import (
	"time"

	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/layout"
)

// EventKind discriminates the Event union.
type EventKind int

const (
	EvWindowCreated EventKind = iota
	EvWindowDestroyed
	EvWindowMoved
	EvWindowFocused
	EvWindowsOnScreenUpdated
	EvAppLaunched
	EvAppTerminated
	EvAppHidden
	EvAppShown
	EvSpaceExposed
	EvSpaceRemapped
	EvMissionControlEntered
	EvMissionControlExited
)

// Event is delivered to the Reactor's Dispatch method in the exact order
// the window server produced the underlying notifications — ordering
// within a single pid's event stream is preserved by routing every event
// for a pid through that pid's actormesh mailbox; ordering ACROSS pids is
// not guaranteed, matching spec §5 (per-actor FIFO, no global total
// order).
type Event struct {
	Kind  EventKind
	Space ids.SpaceId
	Pid   uint32
	At    time.Time

	Window   ids.WindowId
	NewFrame layout.Rect
	Screen   layout.Rect
	Present  []ids.WindowId

	OldSpace ids.SpaceId
}
