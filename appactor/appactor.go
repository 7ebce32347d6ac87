// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: appactor/appactor.go
// Summary: The Application Actor (C6): one per running application,
// owning its AX connection lifecycle, raise-activation arbitration, and
// window registration filtering.

package appactor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/skylinewm/skyline/ids"
)

// ActivationState is the raise-arbitration state machine's two states.
type ActivationState int

const (
	Idle ActivationState = iota
	AwaitingActivation
)

// activationWindow bounds how long an app-initiated raise request is
// attributed to us (the window manager) rather than the user clicking
// around on their own; past this, an unsolicited focus change is treated
// as user-driven and left alone rather than fought over.
const activationWindow = 1000 * time.Millisecond

// AX error sentinels (spec §4.6's AX error policy / §7's error kinds).
var (
	ErrAXAlreadyRegistered = errors.New("appactor: window already registered")
	ErrAXInvalidElement    = errors.New("appactor: ax element invalidated")
	ErrAXTimeout           = errors.New("appactor: ax call timed out")
	ErrAXNotImplemented    = errors.New("appactor: ax attribute not implemented")
)

// WindowMeta is the AX metadata gathered during registration, used by the
// filtering/special-casing steps.
type WindowMeta struct {
	WindowId ids.WindowId
	Title    string
	Role     string
	Subrole  string
	BundleID string
	Path     string // containing bundle path, used for the .appex/ extension-host check

	// WindowServerID is the CoreGraphics window id reported by AX, when
	// available. Non-zero values win idx allocation in RegisterWindow's
	// step 4; with zero, RegisterWindow keeps WindowId.Idx and allocates
	// an idx only when that is zero too.
	WindowServerID uint32

	// HasTitleUIElement reports whether AX exposed an AXTitleUIElement
	// attribute for the window, consulted by RegisterWindow's step 3.
	HasTitleUIElement bool

	// IsStandard is set by RegisterWindow's step 3; raise arbitration's
	// BeginRaise consults it as leadIsStandard for the lead window of a
	// batch.
	IsStandard bool

	IsMinimized bool
}

// RaiseRequest carries the origin of an activation so the actor can tell
// "we asked for this" apart from "the user clicked this".
type RaiseRequest struct {
	Window     ids.WindowId
	InitiatedByUs bool
	At         time.Time
}

// Quiet marks whether a main-window-changed event resulting from a raise
// should be reported as system-initiated (Yes) or left to read as
// user-initiated (No). Spec §4.6 step 5: every window but the last in a
// multi-window raise forces QuietYes; only the last carries the caller's
// requested value.
type Quiet int

const (
	QuietNo Quiet = iota
	QuietYes
)

// RaiseOutcomeKind is the terminal result of one arbitrated raise
// request (spec §4.6 steps 2-3, scenario S3).
type RaiseOutcomeKind int

const (
	RaiseCompleted RaiseOutcomeKind = iota
	RaiseCancelled
)

// RaiseOutcome reports what happened to one SequenceID's raise request.
// For RaiseCompleted, Window and Quiet are populated per window in
// request order; RaiseCancelled carries no window. CorrelationID is the
// uuid the Reactor minted for this raise, threaded through purely for
// log correlation — SequenceID remains the strictly-increasing value
// spec §4.6/§4.7 require for ordering.
type RaiseOutcome struct {
	Kind          RaiseOutcomeKind
	Window        ids.WindowId
	Quiet         Quiet
	SequenceID    uint64
	CorrelationID string
}

type pendingRaise struct {
	sequenceID    uint64
	correlationID string
	quiet         Quiet
	windows       []ids.WindowId
}

// Actor is the per-pid Application Actor.
type Actor struct {
	Pid uint32

	state       ActivationState
	pendingSince time.Time
	pendingWindow ids.WindowId
	raise        *pendingRaise

	registered    map[ids.WindowId]WindowMeta
	lastWindowIdx uint32
	hidden        bool
}

func New(pid uint32) *Actor {
	return &Actor{Pid: pid, registered: make(map[ids.WindowId]WindowMeta)}
}

// RequestRaise begins arbitration for raising w, transitioning to
// AwaitingActivation. Call Reconcile once the window server reports the
// resulting focus change.
func (a *Actor) RequestRaise(w ids.WindowId, now time.Time) {
	a.state = AwaitingActivation
	a.pendingWindow = w
	a.pendingSince = now
}

// BeginRaise implements the first three steps of spec §4.6's raise
// arbitration for a batch of windows sharing one SequenceID:
//
//  1. If the app is already frontmost, or the lead window isn't a
//     standard AX subrole, activation is skipped entirely — the caller
//     should raise every window via AX immediately and report them all
//     RaiseCompleted without installing any pending state.
//  2. Otherwise this request becomes the actor's pending activation. Any
//     previous pending raise is cancelled (step 3: "replacing any
//     previous, whose wakeup channel is signalled so the previous raise
//     cancels") and returned as a RaiseCancelled outcome.
//
// windows must be non-empty. correlationID is an opaque id (the Reactor
// mints a uuid) carried onto every RaiseOutcome this raise eventually
// produces, purely so logs can tie a cancellation to the raise it
// preempted and to the batch that confirms later.
func (a *Actor) BeginRaise(windows []ids.WindowId, sequenceID uint64, correlationID string, quiet Quiet, frontmost, leadIsStandard bool, now time.Time) (cancelled *RaiseOutcome, skipActivation bool) {
	if a.raise != nil {
		cancelled = &RaiseOutcome{Kind: RaiseCancelled, SequenceID: a.raise.sequenceID, CorrelationID: a.raise.correlationID}
		a.raise = nil
	}
	if frontmost || !leadIsStandard {
		a.state = Idle
		return cancelled, true
	}
	a.raise = &pendingRaise{sequenceID: sequenceID, correlationID: correlationID, quiet: quiet, windows: windows}
	a.state = AwaitingActivation
	a.pendingWindow = windows[0]
	a.pendingSince = now
	return cancelled, false
}

// CompleteRaise finalizes the actor's pending raise (called once
// ReconcileFocus confirms activation), returning one RaiseCompleted
// outcome per window in request order. Per step 5, every window but the
// last is forced QuietYes; the last carries the request's own Quiet.
func (a *Actor) CompleteRaise() []RaiseOutcome {
	if a.raise == nil {
		return nil
	}
	p := a.raise
	a.raise = nil
	outcomes := make([]RaiseOutcome, len(p.windows))
	for i, w := range p.windows {
		q := QuietYes
		if i == len(p.windows)-1 {
			q = p.quiet
		}
		outcomes[i] = RaiseOutcome{Kind: RaiseCompleted, Window: w, Quiet: q, SequenceID: p.sequenceID, CorrelationID: p.correlationID}
	}
	return outcomes
}

// ReconcileFocus implements the 5-step raise-arbitration algorithm: given
// an observed focus-change notification for `focused`, decide whether it
// confirms our pending raise, represents a stale echo to ignore, or is a
// genuine user-driven change to accept as-is.
//
//  1. If we're not awaiting activation, any focus change is user-driven:
//     accept it unconditionally.
//  2. If the focused window matches what we requested, the raise
//     succeeded: clear pending state and accept it.
//  3. If more than activationWindow has elapsed since the request, our
//     window for attributing this notification to us has closed: treat it
//     as user-driven, clear pending state, and accept it.
//  4. If the focused window belongs to a different application than the
//     one we're arbitrating for, it can't be an echo of our request:
//     accept it as user-driven without clearing our own pending state (a
//     reply to our request may still be in flight).
//  5. Otherwise this is a stale echo of our own prior state (or a
//     notification for some other window of ours that isn't the one we
//     raised): ignore it, keep waiting.
func (a *Actor) ReconcileFocus(focused ids.WindowId, now time.Time) (accept bool) {
	accept, _ = a.ReconcileFocusWithOutcomes(focused, now)
	return accept
}

// ReconcileFocusWithOutcomes is ReconcileFocus plus the RaiseCompleted
// batch (if any) that this confirmation resolves, per step 2's "the
// raise succeeded". A timeout (step 3) abandons the pending raise
// without reporting outcomes for it — spec §4.6 only defines
// RaiseCompleted for a confirmed activation.
func (a *Actor) ReconcileFocusWithOutcomes(focused ids.WindowId, now time.Time) (accept bool, outcomes []RaiseOutcome) {
	if a.state != AwaitingActivation {
		return true, nil
	}
	if focused == a.pendingWindow {
		a.state = Idle
		return true, a.CompleteRaise()
	}
	if now.Sub(a.pendingSince) > activationWindow {
		a.state = Idle
		a.raise = nil
		return true, nil
	}
	if focused.Pid != a.Pid {
		return true, nil
	}
	return false, nil
}

// RegisterResult is RegisterWindow's outcome. Managed reports whether
// the window should be handed to the Layout Engine; Minimized reports
// whether the owning app was already hidden at registration time (step
// 6's immediate WindowMinimized).
type RegisterResult struct {
	Meta      WindowMeta
	Managed   bool
	Minimized bool
}

// SetHidden records the app's hidden/shown notification state, consulted
// by RegisterWindow's step 6.
func (a *Actor) SetHidden(hidden bool) { a.hidden = hidden }

func (a *Actor) IsHidden() bool { return a.hidden }

// bundlesNeedingTitleUIElement names the bundles whose windows reuse AX
// roles in ways that otherwise look standard (iTerm2's tab-drag sheets,
// the Cursor IDE's helper-process windows); step 3 demotes them to
// non-standard unless AX reports a real title element.
func bundlesNeedingTitleUIElement(bundleID string) bool {
	switch bundleID {
	case "com.googlecode.iterm2", "com.todesktop.230313mzl4w4u92":
		return true
	}
	return false
}

// isWidgetOrExtensionBundle implements step 1: widget bundles and app
// extensions never carry manageable windows.
func isWidgetOrExtensionBundle(bundleID, path string) bool {
	if strings.HasSuffix(bundleID, ".widget") || strings.Contains(bundleID, ".widget.") {
		return true
	}
	return strings.Contains(path, ".appex/")
}

// RegisterWindow runs the 6-step window-registration algorithm (spec
// §4.6's register_window): widget/extension filtering, popover/menu
// filtering, is_standard demotion, idx allocation, already-registered
// handling, and commit.
func (a *Actor) RegisterWindow(ctx context.Context, meta WindowMeta, axErr error) (RegisterResult, error) {
	if axErr != nil {
		if errors.Is(axErr, ErrAXAlreadyRegistered) {
			// Step 5: already-registered is treated as success without
			// re-registering.
			if existing, ok := a.registered[meta.WindowId]; ok {
				return RegisterResult{Meta: existing, Managed: true}, nil
			}
			return RegisterResult{Meta: meta, Managed: true}, nil
		}
		return RegisterResult{}, axErr
	}

	select {
	case <-ctx.Done():
		return RegisterResult{}, ctx.Err()
	default:
	}

	// Step 1: widget bundles and app extensions never carry real windows.
	if isWidgetOrExtensionBundle(meta.BundleID, meta.Path) {
		return RegisterResult{}, nil
	}

	// Step 2: popovers and menus are transient chrome, not standalone
	// windows.
	switch meta.Role {
	case "AXPopover", "AXMenu":
		return RegisterResult{}, nil
	}

	// Step 3: demote certain bundles to non-standard unless AX reports a
	// real title element.
	meta.IsStandard = true
	if bundlesNeedingTitleUIElement(meta.BundleID) && !meta.HasTitleUIElement {
		meta.IsStandard = false
	}

	// Step 4: allocate an idx, preferring the window-server-reported id
	// over our own counter.
	switch {
	case meta.WindowServerID != 0:
		meta.WindowId.Idx = meta.WindowServerID
	case meta.WindowId.Idx == 0:
		a.lastWindowIdx++
		meta.WindowId.Idx = a.lastWindowIdx
	}

	// Step 5: AX notification registration happens at the WindowSource
	// layer; AlreadyRegistered is handled above via axErr.

	// Step 6: commit, surfacing an immediate WindowMinimized for apps
	// that are already hidden when their window registers.
	a.registered[meta.WindowId] = meta
	return RegisterResult{Meta: meta, Managed: true, Minimized: a.hidden}, nil
}

func (a *Actor) Unregister(w ids.WindowId) {
	delete(a.registered, w)
}

func (a *Actor) IsRegistered(w ids.WindowId) bool {
	_, ok := a.registered[w]
	return ok
}
