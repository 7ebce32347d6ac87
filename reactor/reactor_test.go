// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skylinewm/skyline/appactor"
	"github.com/skylinewm/skyline/broadcast"
	"github.com/skylinewm/skyline/engine"
	"github.com/skylinewm/skyline/floating"
	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/inputsrc"
	"github.com/skylinewm/skyline/layout"
	"github.com/skylinewm/skyline/vwm"
	wsrcfake "github.com/skylinewm/skyline/wsrc/fake"
)

func newTestReactor(t *testing.T) (context.Context, *Reactor, *wsrcfake.Source) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	windows := wsrcfake.New()
	wm := vwm.NewManager(vwm.Config{DefaultWorkspaceCount: 2}, nil)
	fl := floating.New()
	cfg := engine.Config{DefaultRootKind: layout.Horizontal}
	r := New(ctx, windows, nil, cfg, wm, fl, nil, nil)
	return ctx, r, windows
}

// waitForSub polls sub.Pending(0) until it has at least n envelopes or the
// deadline passes, since Dispatch routes per-pid events through the
// actormesh asynchronously.
func waitForSub(t *testing.T, sub *broadcast.Subscriber, n int) []broadcast.Envelope {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		pending := sub.Pending(0)
		if len(pending) >= n {
			return pending
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d broadcast events, got %d", n, len(sub.Pending(0)))
	return nil
}

func exposeSpace(t *testing.T, ctx context.Context, r *Reactor, sub *broadcast.Subscriber, space ids.SpaceId) {
	t.Helper()
	before := len(sub.Pending(0))
	r.Dispatch(ctx, Event{Kind: EvSpaceExposed, Space: space, Screen: layout.Rect{W: 1000, H: 800}})
	waitForSub(t, sub, before+1)
}

func TestDispatch_WindowCreated_RegistersAndAddsToTree(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w := ids.WindowId{Pid: 1, Idx: 1}
	windows.Meta[w] = appactor.WindowMeta{WindowId: w, Role: "AXWindow", BundleID: "com.example.app"}

	before := len(sub.Pending(0))
	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 1, Window: w})
	pending := waitForSub(t, sub, before+1)
	require.Equal(t, broadcast.EvWindowAdded, pending[len(pending)-1].Event.Kind)

	_, ok := r.vwm.WindowWorkspace(1, w)
	require.True(t, ok, "registered window is assigned to a workspace")
	require.Equal(t, layout.Rect{X: 0, Y: 0, W: 1000, H: 800}, windows.Frames[w], "sole tiled window fills the screen")
}

func TestDispatch_WindowCreated_UnmanageableRoleSkipsTree(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w := ids.WindowId{Pid: 1, Idx: 1}
	windows.Meta[w] = appactor.WindowMeta{WindowId: w, Role: "AXPopover"}

	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 1, Window: w})
	time.Sleep(20 * time.Millisecond)

	_, ok := r.vwm.WindowWorkspace(1, w)
	require.False(t, ok, "an unmanageable role is never assigned a workspace")
	require.NotContains(t, windows.Frames, w)
}

func TestDispatch_WindowDestroyed_RemovesFromTreeAndUnregisters(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w := ids.WindowId{Pid: 1, Idx: 1}
	windows.Meta[w] = appactor.WindowMeta{WindowId: w, Role: "AXWindow"}
	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 1, Window: w})
	waitForSub(t, sub, 2)

	before := len(sub.Pending(0))
	r.Dispatch(ctx, Event{Kind: EvWindowDestroyed, Space: 1, Pid: 1, Window: w})
	pending := waitForSub(t, sub, before+1)
	require.Equal(t, broadcast.EvWindowRemoved, pending[len(pending)-1].Event.Kind)
	require.False(t, r.actorFor(1).IsRegistered(w))
}

func TestDispatch_WindowMoved_PublishesFrame(t *testing.T) {
	ctx, r, _ := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w := ids.WindowId{Pid: 1, Idx: 1}
	newFrame := layout.Rect{X: 1, Y: 2, W: 3, H: 4}
	before := len(sub.Pending(0))
	r.Dispatch(ctx, Event{Kind: EvWindowMoved, Space: 1, Pid: 1, Window: w, NewFrame: newFrame})
	pending := waitForSub(t, sub, before+1)
	last := pending[len(pending)-1]
	require.Equal(t, broadcast.EvLayoutChanged, last.Event.Kind)
	require.Equal(t, newFrame, last.Event.Frame)
}

func TestDispatch_WindowFocused_AcceptedWhenIdle(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w := ids.WindowId{Pid: 1, Idx: 1}
	windows.Meta[w] = appactor.WindowMeta{WindowId: w, Role: "AXWindow"}
	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 1, Window: w})
	waitForSub(t, sub, 2)

	before := len(sub.Pending(0))
	r.Dispatch(ctx, Event{Kind: EvWindowFocused, Space: 1, Pid: 1, Window: w, At: time.Now()})
	pending := waitForSub(t, sub, before+1)
	require.Equal(t, broadcast.EvSelectionChanged, pending[len(pending)-1].Event.Kind)
}

func TestDispatch_WindowsOnScreenUpdated_DropsAbsentBindings(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w1 := ids.WindowId{Pid: 1, Idx: 1}
	w2 := ids.WindowId{Pid: 1, Idx: 2}
	windows.Meta[w1] = appactor.WindowMeta{WindowId: w1, Role: "AXWindow"}
	windows.Meta[w2] = appactor.WindowMeta{WindowId: w2, Role: "AXWindow"}
	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 1, Window: w1})
	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 1, Window: w2})
	waitForSub(t, sub, 3)

	before := len(sub.Pending(0))
	r.Dispatch(ctx, Event{Kind: EvWindowsOnScreenUpdated, Space: 1, Present: []ids.WindowId{w1}})
	pending := waitForSub(t, sub, before+1)
	require.Equal(t, broadcast.EvLayoutChanged, pending[len(pending)-1].Event.Kind)

	// w1 is still present, so the relayout triggered by the reconciliation
	// fills the whole screen with it alone.
	require.Equal(t, layout.Rect{X: 0, Y: 0, W: 1000, H: 800}, windows.Frames[w1])
}

func TestDispatch_AppLaunchedThenTerminated_RemovesAllWindowsOfPid(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	r.Dispatch(ctx, Event{Kind: EvAppLaunched, Pid: 7})

	w1 := ids.WindowId{Pid: 7, Idx: 1}
	w2 := ids.WindowId{Pid: 7, Idx: 2}
	windows.Meta[w1] = appactor.WindowMeta{WindowId: w1, Role: "AXWindow"}
	windows.Meta[w2] = appactor.WindowMeta{WindowId: w2, Role: "AXWindow"}
	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 7, Window: w1})
	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 7, Window: w2})
	waitForSub(t, sub, 3)

	before := len(sub.Pending(0))
	r.Dispatch(ctx, Event{Kind: EvAppTerminated, Space: 1, Pid: 7})
	waitForSub(t, sub, before+1)

	_, ok1 := r.vwm.WindowWorkspace(1, w1)
	_, ok2 := r.vwm.WindowWorkspace(1, w2)
	require.False(t, ok1)
	require.False(t, ok2)
	_, stillActor := r.actors[7]
	require.False(t, stillActor)
}

func TestDispatch_SpaceExposed_PublishesLayoutChanged(t *testing.T) {
	ctx, r, _ := newTestReactor(t)
	sub := r.Subscribe()
	r.Dispatch(ctx, Event{Kind: EvSpaceExposed, Space: 5, Screen: layout.Rect{W: 500, H: 400}})
	pending := waitForSub(t, sub, 1)
	require.Equal(t, broadcast.EvLayoutChanged, pending[0].Event.Kind)
	require.Equal(t, ids.SpaceId(5), pending[0].Event.Space)
}

func TestDispatch_SpaceRemapped_MigratesWorkspaceState(t *testing.T) {
	ctx, r, _ := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w := ids.WindowId{Pid: 1, Idx: 1}
	r.vwm.AssignWindow(1, w, vwm.WindowInfo{})
	r.Dispatch(ctx, Event{Kind: EvSpaceRemapped, Space: 2, OldSpace: 1})

	_, ok := r.vwm.WindowWorkspace(2, w)
	require.True(t, ok)
	_, ok = r.vwm.WindowWorkspace(1, w)
	require.False(t, ok)
}

func TestRaiseWindow_RecordsTransactionAndRequestsActivation(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)
	w := ids.WindowId{Pid: 1, Idx: 1}

	now := time.Now()
	err := r.RaiseWindow(ctx, 1, w, now)
	require.NoError(t, err)
	require.Len(t, windows.Raises, 1)
	require.Equal(t, w, windows.Raises[0].Window)

	// A same-pid echo for a different window arriving while the raise is
	// still awaiting activation is ignored, so no selection-changed event
	// is published for it.
	other := ids.WindowId{Pid: 1, Idx: 2}
	before := len(sub.Pending(0))
	r.Dispatch(ctx, Event{Kind: EvWindowFocused, Space: 1, Pid: 1, Window: other, At: now.Add(10 * time.Millisecond)})
	time.Sleep(20 * time.Millisecond)
	require.Len(t, sub.Pending(0), before, "stale echo during the activation window must not publish")
}

// TestRaise_SkipsActivationAndCompletesImmediatelyWhenFrontmost covers
// the spec §4.6 step 2 fast path: an already-frontmost app's raise never
// installs pending activation state, so every window reports
// RaiseCompleted synchronously.
func TestRaise_SkipsActivationAndCompletesImmediatelyWhenFrontmost(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w := ids.WindowId{Pid: 1, Idx: 1}
	windows.Frontmost[1] = true

	outcomes := r.Raise(ctx, 1, []ids.WindowId{w}, appactor.QuietNo, time.Now())
	require.Len(t, outcomes, 1)
	require.Equal(t, appactor.RaiseCompleted, outcomes[0].Kind)
	require.Equal(t, w, outcomes[0].Window)
	require.Len(t, windows.Raises, 1)
}

// TestRaise_SecondRaiseCancelsFirst is scenario S3 end-to-end through
// the Reactor: the first raise is left awaiting activation, the second
// cancels it, and only the second window's RaiseCompleted is emitted
// once its app actor observes the confirming focus notification.
func TestRaise_SecondRaiseCancelsFirst(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w1 := ids.WindowId{Pid: 1, Idx: 1}
	w2 := ids.WindowId{Pid: 1, Idx: 2}
	windows.Meta[w1] = appactor.WindowMeta{WindowId: w1, Role: "AXWindow", Subrole: "AXStandardWindow"}
	windows.Meta[w2] = appactor.WindowMeta{WindowId: w2, Role: "AXWindow", Subrole: "AXStandardWindow"}

	now := time.Now()
	outcomes1 := r.Raise(ctx, 1, []ids.WindowId{w1}, appactor.QuietNo, now)
	require.Empty(t, outcomes1, "not frontmost: activation is pending, nothing resolved yet")

	outcomes2 := r.Raise(ctx, 1, []ids.WindowId{w2}, appactor.QuietNo, now)
	require.Len(t, outcomes2, 1)
	require.Equal(t, appactor.RaiseCancelled, outcomes2[0].Kind, "the first raise is cancelled by the second")

	accept, outcomes3 := r.actorFor(1).ReconcileFocusWithOutcomes(w2, now.Add(10*time.Millisecond))
	require.True(t, accept)
	require.Len(t, outcomes3, 1)
	require.Equal(t, appactor.RaiseCompleted, outcomes3[0].Kind)
	require.Equal(t, w2, outcomes3[0].Window, "no RaiseCompleted is ever emitted for the cancelled w1 raise")
}

func TestDispatch_MissionControl_SuspendsAndReplaysQueuedRaises(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w := ids.WindowId{Pid: 1, Idx: 1}
	windows.Frontmost[1] = true

	r.Dispatch(ctx, Event{Kind: EvMissionControlEntered, Space: 1})
	outcomes := r.Raise(ctx, 1, []ids.WindowId{w}, appactor.QuietNo, time.Now())
	require.Empty(t, outcomes, "raises issued while Mission Control is active are queued, not resolved")
	require.Empty(t, windows.Raises, "nothing reaches the window source until replay")

	r.Dispatch(ctx, Event{Kind: EvMissionControlExited, Space: 1, At: time.Now()})
	require.Len(t, windows.Raises, 1, "exiting Mission Control replays the queued raise")
}

func TestApplyCommand_MoveFocus_PublishesSelectionChanged(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w1 := ids.WindowId{Pid: 1, Idx: 1}
	w2 := ids.WindowId{Pid: 1, Idx: 2}
	windows.Meta[w1] = appactor.WindowMeta{WindowId: w1, Role: "AXWindow"}
	windows.Meta[w2] = appactor.WindowMeta{WindowId: w2, Role: "AXWindow"}
	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 1, Window: w1})
	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 1, Window: w2})
	waitForSub(t, sub, 3)

	before := len(sub.Pending(0))
	r.ApplyCommand(1, inputsrc.Command{Name: "move_focus", Args: map[string]string{"dir": "left"}})
	pending := sub.Pending(0)
	require.Len(t, pending, before+1)
	require.Equal(t, broadcast.EvSelectionChanged, pending[len(pending)-1].Event.Kind)
}

func TestApplyCommand_NextWorkspace_ActivatesAndPublishes(t *testing.T) {
	ctx, r, _ := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)
	first := r.vwm.ActiveWorkspace(1)

	before := len(sub.Pending(0))
	r.ApplyCommand(1, inputsrc.Command{Name: "next_workspace"})
	pending := sub.Pending(0)
	require.Len(t, pending, before+1)
	require.Equal(t, broadcast.EvWorkspaceActivated, pending[len(pending)-1].Event.Kind)
	require.NotEqual(t, first, r.vwm.ActiveWorkspace(1))
}

func TestApplyCommand_ToggleWindowFloating_PublishesFloatingToggled(t *testing.T) {
	ctx, r, windows := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	w := ids.WindowId{Pid: 1, Idx: 1}
	windows.Meta[w] = appactor.WindowMeta{WindowId: w, Role: "AXWindow"}
	r.Dispatch(ctx, Event{Kind: EvWindowCreated, Space: 1, Pid: 1, Window: w})
	waitForSub(t, sub, 2)

	before := len(sub.Pending(0))
	r.ApplyCommand(1, inputsrc.Command{Name: "toggle_window_floating", Args: map[string]string{
		"window_pid": "1", "window_idx": "1",
	}})
	pending := sub.Pending(0)
	require.Len(t, pending, before+1)
	require.Equal(t, broadcast.EvFloatingToggled, pending[len(pending)-1].Event.Kind)
	require.True(t, r.float.IsFloating(w))
}

func TestApplyCommand_UnrecognizedName_NoPublish(t *testing.T) {
	ctx, r, _ := newTestReactor(t)
	sub := r.Subscribe()
	exposeSpace(t, ctx, r, sub, 1)

	before := len(sub.Pending(0))
	r.ApplyCommand(1, inputsrc.Command{Name: "not_a_real_command"})
	require.Len(t, sub.Pending(0), before)
}
