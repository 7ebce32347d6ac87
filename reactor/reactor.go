// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: reactor/reactor.go
// Summary: The Reactor (C7): the actor mesh's central hub. Owns the
// per-pid appactor.Actor registry, drives window-server events through
// it and the Layout Engine, and turns decoded input commands into Layout
// Engine calls.

package reactor

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/skylinewm/skyline/actormesh"
	"github.com/skylinewm/skyline/appactor"
	"github.com/skylinewm/skyline/broadcast"
	"github.com/skylinewm/skyline/engine"
	"github.com/skylinewm/skyline/floating"
	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/inputsrc"
	"github.com/skylinewm/skyline/persist"
	"github.com/skylinewm/skyline/tracing"
	"github.com/skylinewm/skyline/txmgr"
	"github.com/skylinewm/skyline/vwm"
	"github.com/skylinewm/skyline/wsrc"
)

// maxConcurrentActors bounds how many apps' mailboxes may be mid-task at
// once; window-registration AX calls can block, so this isn't unbounded.
const maxConcurrentActors = 8

// Reactor wires the Layout Engine, Virtual Workspace Manager, Floating
// Manager, Transaction Manager, and per-app Application Actors together
// behind a single event-dispatch surface.
type Reactor struct {
	windows wsrc.WindowSource
	input   inputsrc.InputSource

	engine *engine.Engine
	vwm    *vwm.Manager
	float  *floating.Manager
	tx     *txmgr.Manager

	mesh   *actormesh.Mesh
	hub    *broadcast.Hub
	store  *persist.Store // nil when running without a restore file
	tracer *tracing.Provider

	actors map[uint32]*appactor.Actor

	missionControl bool
	queuedRaises   []queuedRaise
}

// queuedRaise captures one Raise call's arguments, held back while Mission
// Control is active and replayed, oldest first, on exit (spec.md §4.7's
// MissionControlEntered/Exited pair, as supplemented from the Rust
// original's mission_control_observer.rs: raise arbitration is suspended
// rather than fought with the Mission Control overlay's own window
// reordering).
type queuedRaise struct {
	space ids.SpaceId
	wids  []ids.WindowId
	quiet appactor.Quiet
}

func New(ctx context.Context, windows wsrc.WindowSource, input inputsrc.InputSource, cfg engine.Config, wm *vwm.Manager, fl *floating.Manager, store *persist.Store, tracer *tracing.Provider) *Reactor {
	adapter := newWindowSourceAdapter(ctx, windows)
	eng := engine.New(cfg, adapter, wm, fl)
	return &Reactor{
		windows: windows,
		input:   input,
		engine:  eng,
		vwm:     wm,
		float:   fl,
		tx:      txmgr.New(),
		mesh:    actormesh.New(ctx, maxConcurrentActors, tracer),
		hub:     broadcast.NewHub(),
		store:   store,
		tracer:  tracer,
		actors:  make(map[uint32]*appactor.Actor),
	}
}

// snapshotSpace persists space's current workspace shape, a no-op when
// the Reactor was constructed without a restore-file Store.
func (r *Reactor) snapshotSpace(space ids.SpaceId) {
	if r.store == nil {
		return
	}
	r.store.SaveSpace(space, persist.Capture(r.vwm, space))
}

// Subscribe registers a new Exposed UI client, returning its resumable
// event queue (see broadcast.Subscriber).
func (r *Reactor) Subscribe() *broadcast.Subscriber { return r.hub.Subscribe() }

// Unsubscribe drops a previously-subscribed UI client.
func (r *Reactor) Unsubscribe(sub *broadcast.Subscriber) { r.hub.Unsubscribe(sub) }

func (r *Reactor) actorFor(pid uint32) *appactor.Actor {
	a, ok := r.actors[pid]
	if !ok {
		a = appactor.New(pid)
		r.actors[pid] = a
	}
	return a
}

// Dispatch routes one Event to its handler, per-pid events going through
// that pid's actormesh mailbox so a slow AX call for one app can't block
// another app's event processing or the Layout Engine's own bookkeeping.
func (r *Reactor) Dispatch(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EvWindowCreated:
		r.mesh.Send(ctx, ev.Pid, "window_created", func(ctx context.Context) { r.handleWindowCreated(ctx, ev) })
	case EvWindowDestroyed:
		r.mesh.Send(ctx, ev.Pid, "window_destroyed", func(ctx context.Context) { r.handleWindowDestroyed(ctx, ev) })
	case EvWindowMoved:
		r.mesh.Send(ctx, ev.Pid, "window_moved", func(ctx context.Context) { r.handleWindowMoved(ctx, ev) })
	case EvWindowFocused:
		r.mesh.Send(ctx, ev.Pid, "window_focused", func(ctx context.Context) { r.handleWindowFocused(ctx, ev) })
	case EvWindowsOnScreenUpdated:
		r.engine.WindowsOnScreenUpdated(ev.Space, ev.Present)
		r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvLayoutChanged, Space: ev.Space})
	case EvAppLaunched:
		r.actorFor(ev.Pid)
		r.mesh.Ensure(ev.Pid)
	case EvAppTerminated:
		r.mesh.Send(ctx, ev.Pid, "app_terminated", func(ctx context.Context) { r.handleAppTerminated(ctx, ev) })
	case EvAppHidden:
		r.mesh.Send(ctx, ev.Pid, "app_hidden", func(ctx context.Context) { r.actorFor(ev.Pid).SetHidden(true) })
	case EvAppShown:
		r.mesh.Send(ctx, ev.Pid, "app_shown", func(ctx context.Context) { r.actorFor(ev.Pid).SetHidden(false) })
	case EvSpaceExposed:
		if r.store != nil {
			if snap, ok, err := r.store.LoadSpace(ctx, ev.Space); err == nil && ok {
				persist.Restore(r.vwm, ev.Space, snap)
			}
		}
		r.engine.SpaceExposed(ev.Space, ev.Screen)
		r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvLayoutChanged, Space: ev.Space})
	case EvSpaceRemapped:
		r.vwm.RemapSpace(ev.OldSpace, ev.Space)
	case EvMissionControlEntered:
		r.missionControl = true
	case EvMissionControlExited:
		r.missionControl = false
		r.replayQueuedRaises(ctx, ev.At)
	}
}

// replayQueuedRaises re-issues every Raise call queued while Mission
// Control was active, oldest first, each getting its own fresh sequence id
// (the queued request's own arbitration context — frontmost status, lead
// window subrole — may have changed while Mission Control was up, so these
// are full Raise calls rather than replayed outcomes).
func (r *Reactor) replayQueuedRaises(ctx context.Context, now time.Time) {
	queued := r.queuedRaises
	r.queuedRaises = nil
	for _, q := range queued {
		outcomes := r.Raise(ctx, q.space, q.wids, q.quiet, now)
		for _, o := range outcomes {
			log.Printf("reactor: replayed raise seq=%d completed window=%v quiet=%v", o.SequenceID, o.Window, o.Quiet)
		}
	}
}

func (r *Reactor) handleWindowCreated(ctx context.Context, ev Event) {
	meta, err := r.windows.Metadata(ctx, ev.Window)
	actor := r.actorFor(ev.Pid)
	result, regErr := actor.RegisterWindow(ctx, meta, err)
	if regErr != nil {
		log.Printf("reactor: window registration failed for %v: %v", ev.Window, regErr)
		return
	}
	if !result.Managed {
		return
	}
	resolved := result.Meta
	r.engine.WindowAdded(ev.Space, resolved.WindowId, vwm.WindowInfo{
		AppID:    resolved.BundleID,
		BundleID: resolved.BundleID,
		Title:    resolved.Title,
		AxRole:   resolved.Role,
		AxSubrole: resolved.Subrole,
	})
	r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvWindowAdded, Space: ev.Space, Window: resolved.WindowId})
	if result.Minimized {
		r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvWindowMinimized, Space: ev.Space, Window: resolved.WindowId})
	}
}

func (r *Reactor) handleWindowDestroyed(_ context.Context, ev Event) {
	r.actorFor(ev.Pid).Unregister(ev.Window)
	r.engine.WindowRemoved(ev.Space, ev.Window)
	r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvWindowRemoved, Space: ev.Space, Window: ev.Window})
}

func (r *Reactor) handleWindowMoved(_ context.Context, ev Event) {
	r.engine.WindowResized(ev.Space, ev.Window, ev.NewFrame)
	r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvLayoutChanged, Space: ev.Space, Window: ev.Window, Frame: ev.NewFrame})
}

func (r *Reactor) handleWindowFocused(_ context.Context, ev Event) {
	accept, outcomes := r.actorFor(ev.Pid).ReconcileFocusWithOutcomes(ev.Window, ev.At)
	for _, o := range outcomes {
		log.Printf("reactor: raise seq=%d completed window=%v quiet=%v", o.SequenceID, o.Window, o.Quiet)
	}
	if !accept {
		return
	}
	r.engine.WindowFocused(ev.Space, ev.Window)
	r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvSelectionChanged, Space: ev.Space, Window: ev.Window})
}

func (r *Reactor) handleAppTerminated(_ context.Context, ev Event) {
	r.engine.AppClosed(ev.Space, ev.Pid)
	delete(r.actors, ev.Pid)
	r.mesh.Remove(ev.Pid)
	r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvLayoutChanged, Space: ev.Space})
}

// RaiseWindow issues a raise request through wsrc, recording a fresh
// transaction id and marking the owning actor as awaiting activation (as
// of now) so the confirming (or contradicting) focus notification can be
// arbitrated correctly. Callers pass `now` explicitly (rather than this
// package calling time.Now() itself) so tests can drive the 1000ms
// activation window deterministically.
func (r *Reactor) RaiseWindow(ctx context.Context, space ids.SpaceId, w ids.WindowId, now time.Time) error {
	txid := r.tx.Next()
	r.tx.RecordPending(w.Pid, txid)
	r.actorFor(w.Pid).RequestRaise(w, now)
	return r.windows.Raise(ctx, w, txid)
}

// globalRaiseSequence is the Reactor's monotonic per-process counter
// handing out the sequence_id spec §4.6/§4.7 require: unique and
// increasing across every raise request the Reactor issues, regardless
// of which pid it targets.
var globalRaiseSequence uint64

func nextRaiseSequence() uint64 {
	globalRaiseSequence++
	return globalRaiseSequence
}

// Raise implements the full batch raise-arbitration contract of spec
// §4.6 (scenario S3, testable property 7): it consults frontmost status
// and the lead window's AX subrole to decide whether activation can be
// skipped, installs (or cancels a prior) pending activation otherwise,
// and returns every outcome this call resolved synchronously — a
// RaiseCancelled for whatever raise this one preempted, plus, on the
// skip-activation fast path, a RaiseCompleted for every window in wids
// raised immediately via AX.
//
// When activation is not skipped, the returned slice only ever contains
// the preempted raise's cancellation (if any); the RaiseCompleted batch
// for *this* request arrives later, from ReconcileFocus once the window
// server confirms the app actually activated (see Dispatch's
// EvWindowFocused handling).
func (r *Reactor) Raise(ctx context.Context, space ids.SpaceId, wids []ids.WindowId, quiet appactor.Quiet, now time.Time) []appactor.RaiseOutcome {
	if len(wids) == 0 {
		return nil
	}
	if r.missionControl {
		r.queuedRaises = append(r.queuedRaises, queuedRaise{space: space, wids: wids, quiet: quiet})
		return nil
	}
	seq := nextRaiseSequence()
	correlationID := uuid.New().String()
	pid := wids[0].Pid
	actor := r.actorFor(pid)

	frontmost, err := r.windows.IsFrontmost(ctx, pid)
	if err != nil {
		log.Printf("reactor: IsFrontmost(%d): %v", pid, err)
	}
	lead, err := r.windows.Metadata(ctx, wids[0])
	leadIsStandard := err == nil && lead.Subrole == "AXStandardWindow"

	cancelled, skip := actor.BeginRaise(wids, seq, correlationID, quiet, frontmost, leadIsStandard, now)
	var outcomes []appactor.RaiseOutcome
	if cancelled != nil {
		log.Printf("reactor: raise seq=%d correlation=%s cancelled a prior pending raise", seq, correlationID)
		outcomes = append(outcomes, *cancelled)
	}
	if !skip {
		return outcomes
	}

	for i, w := range wids {
		txid := r.tx.Next()
		r.tx.RecordPending(w.Pid, txid)
		if rerr := r.windows.Raise(ctx, w, txid); rerr != nil {
			log.Printf("reactor: Raise(%v): %v", w, rerr)
			continue
		}
		q := appactor.QuietYes
		if i == len(wids)-1 {
			q = quiet
		}
		outcomes = append(outcomes, appactor.RaiseOutcome{Kind: appactor.RaiseCompleted, Window: w, Quiet: q, SequenceID: seq, CorrelationID: correlationID})
	}
	return outcomes
}

// Engine exposes the underlying Layout Engine for command dispatch (see
// commands.go) and for tests that want to assert on layout state
// directly.
func (r *Reactor) Engine() *engine.Engine { return r.engine }
