// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: broadcast/broadcast.go
// Summary: The resumable Exposed UI event channel (spec §6): every
// BroadcastEvent is sequence-numbered and queued per subscriber, so a
// menu-bar UI or stack-line client that reconnects after a drop can
// replay everything it missed instead of needing a full resync.

package broadcast

import (
	"errors"
	"sync"

	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/layout"
)

var ErrSubscriberClosed = errors.New("broadcast: subscriber closed")

// EventKind discriminates the BroadcastEvent union (spec §6).
type EventKind int

const (
	EvLayoutChanged EventKind = iota
	EvSelectionChanged
	EvWorkspaceActivated
	EvWorkspaceCreated
	EvFloatingToggled
	EvWindowAdded
	EvWindowRemoved
	EvWindowMinimized
)

// BroadcastEvent is one unit of the exposed UI event stream.
type BroadcastEvent struct {
	Kind      EventKind
	Space     ids.SpaceId
	Workspace ids.VirtualWorkspaceId
	Window    ids.WindowId
	Frame     layout.Rect
}

// Envelope pairs a BroadcastEvent with the monotonic sequence number a
// subscriber needs to detect gaps / request replay from.
type Envelope struct {
	Sequence uint64
	Event    BroadcastEvent
}

// maxQueued bounds how far a slow subscriber can fall behind before its
// oldest envelopes are dropped (mirrors the teacher's Session.maxDiffs
// bounded-history trim — a UI subscriber, unlike a layout consumer, can
// tolerate losing intermediate events as long as it resyncs on gap
// detection, so dropping the oldest envelopes rather than blocking the publisher is
// the right tradeoff).
const maxQueued = 512

// Subscriber is one connected UI client's resumable event queue.
type Subscriber struct {
	mu           sync.Mutex
	nextSequence uint64
	queued       []Envelope
	closed       bool
}

func newSubscriber() *Subscriber {
	return &Subscriber{queued: make([]Envelope, 0, 64)}
}

func (s *Subscriber) enqueue(ev BroadcastEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.nextSequence++
	s.queued = append(s.queued, Envelope{Sequence: s.nextSequence, Event: ev})
	if len(s.queued) > maxQueued {
		drop := len(s.queued) - maxQueued
		s.queued = append([]Envelope(nil), s.queued[drop:]...)
	}
}

// Ack trims envelopes up to and including sequence, freeing memory for
// events the client has confirmed receiving.
func (s *Subscriber) Ack(sequence uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := 0
	for idx < len(s.queued) && s.queued[idx].Sequence <= sequence {
		idx++
	}
	if idx > 0 {
		s.queued = s.queued[idx:]
	}
}

// Pending returns every queued envelope with Sequence > after. Passing 0
// returns the full backlog (a fresh connection's initial resync).
func (s *Subscriber) Pending(after uint64) []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	if after == 0 {
		out := make([]Envelope, len(s.queued))
		copy(out, s.queued)
		return out
	}
	for i, e := range s.queued {
		if e.Sequence > after {
			out := make([]Envelope, len(s.queued)-i)
			copy(out, s.queued[i:])
			return out
		}
	}
	return nil
}

func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.queued = nil
}

// Hub fans BroadcastEvents out to every subscribed client, grounded on
// the teacher's EventDispatcher (texel/dispatcher.go) — subscribe/
// unsubscribe/broadcast — generalized with per-subscriber resumability.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]bool
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[*Subscriber]bool)}
}

func (h *Hub) Subscribe() *Subscriber {
	sub := newSubscriber()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub] = true
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, sub)
	sub.Close()
}

func (h *Hub) Publish(ev BroadcastEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers {
		sub.enqueue(ev)
	}
}
