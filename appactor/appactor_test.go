// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package appactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skylinewm/skyline/ids"
)

func TestReconcileFocus_UnsolicitedChangeAcceptedWhenIdle(t *testing.T) {
	a := New(1)
	require.True(t, a.ReconcileFocus(ids.WindowId{Pid: 1, Idx: 1}, time.Now()))
}

func TestReconcileFocus_ConfirmsPendingRaise(t *testing.T) {
	a := New(1)
	w := ids.WindowId{Pid: 1, Idx: 1}
	now := time.Now()
	a.RequestRaise(w, now)
	require.True(t, a.ReconcileFocus(w, now.Add(10*time.Millisecond)))
	require.Equal(t, Idle, a.state)
}

func TestReconcileFocus_StaleEchoIgnoredWhileWaiting(t *testing.T) {
	a := New(1)
	w := ids.WindowId{Pid: 1, Idx: 1}
	other := ids.WindowId{Pid: 1, Idx: 2}
	now := time.Now()
	a.RequestRaise(w, now)
	require.False(t, a.ReconcileFocus(other, now.Add(10*time.Millisecond)), "same-pid echo within the window is ignored")
	require.Equal(t, AwaitingActivation, a.state)
}

func TestReconcileFocus_ExpiredWindowTreatedAsUserDriven(t *testing.T) {
	a := New(1)
	w := ids.WindowId{Pid: 1, Idx: 1}
	other := ids.WindowId{Pid: 1, Idx: 2}
	now := time.Now()
	a.RequestRaise(w, now)
	require.True(t, a.ReconcileFocus(other, now.Add(2*time.Second)))
	require.Equal(t, Idle, a.state)
}

func TestReconcileFocus_DifferentAppAcceptedWithoutClearingPending(t *testing.T) {
	a := New(1)
	w := ids.WindowId{Pid: 1, Idx: 1}
	foreign := ids.WindowId{Pid: 2, Idx: 1}
	now := time.Now()
	a.RequestRaise(w, now)
	require.True(t, a.ReconcileFocus(foreign, now.Add(10*time.Millisecond)))
	require.Equal(t, AwaitingActivation, a.state, "pending raise for our own app is still in flight")
}

func TestBeginRaise_SkipsActivationWhenAlreadyFrontmost(t *testing.T) {
	a := New(1)
	w := ids.WindowId{Pid: 1, Idx: 1}
	cancelled, skip := a.BeginRaise([]ids.WindowId{w}, 1, "corr", QuietNo, true, true, time.Now())
	require.Nil(t, cancelled)
	require.True(t, skip)
	require.Equal(t, Idle, a.state)
}

func TestBeginRaise_SkipsActivationWhenLeadNotStandard(t *testing.T) {
	a := New(1)
	w := ids.WindowId{Pid: 1, Idx: 1}
	_, skip := a.BeginRaise([]ids.WindowId{w}, 1, "corr", QuietNo, false, false, time.Now())
	require.True(t, skip)
}

func TestBeginRaise_InstallsPendingActivation(t *testing.T) {
	a := New(1)
	w := ids.WindowId{Pid: 1, Idx: 1}
	cancelled, skip := a.BeginRaise([]ids.WindowId{w}, 1, "corr", QuietNo, false, true, time.Now())
	require.Nil(t, cancelled)
	require.False(t, skip)
	require.Equal(t, AwaitingActivation, a.state)
}

// TestBeginRaise_CancelsPreviousAwaitingRaise is scenario S3: a second
// raise for the same app while the first is still awaiting activation
// cancels the first and, once activation is confirmed for the second
// window, only the second's RaiseCompleted is reported.
func TestBeginRaise_CancelsPreviousAwaitingRaise(t *testing.T) {
	a := New(1)
	w1 := ids.WindowId{Pid: 1, Idx: 1}
	w2 := ids.WindowId{Pid: 1, Idx: 2}
	now := time.Now()

	cancelled, skip := a.BeginRaise([]ids.WindowId{w1}, 1, "corr", QuietNo, false, true, now)
	require.Nil(t, cancelled)
	require.False(t, skip)

	cancelled, skip = a.BeginRaise([]ids.WindowId{w2}, 2, "corr", QuietNo, false, true, now)
	require.False(t, skip)
	require.NotNil(t, cancelled)
	require.Equal(t, RaiseCancelled, cancelled.Kind)
	require.Equal(t, uint64(1), cancelled.SequenceID)

	accept, outcomes := a.ReconcileFocusWithOutcomes(w2, now.Add(10*time.Millisecond))
	require.True(t, accept)
	require.Len(t, outcomes, 1)
	require.Equal(t, RaiseCompleted, outcomes[0].Kind)
	require.Equal(t, w2, outcomes[0].Window)
	require.Equal(t, uint64(2), outcomes[0].SequenceID)
}

func TestCompleteRaise_ForcesQuietYesOnAllButLastWindow(t *testing.T) {
	a := New(1)
	w1 := ids.WindowId{Pid: 1, Idx: 1}
	w2 := ids.WindowId{Pid: 1, Idx: 2}
	now := time.Now()
	a.BeginRaise([]ids.WindowId{w1, w2}, 1, "corr", QuietNo, false, true, now)

	_, outcomes := a.ReconcileFocusWithOutcomes(w1, now.Add(10*time.Millisecond))
	require.Len(t, outcomes, 2)
	require.Equal(t, QuietYes, outcomes[0].Quiet)
	require.Equal(t, QuietNo, outcomes[1].Quiet)
}

func TestRegisterWindow_FiltersWidgetBundles(t *testing.T) {
	a := New(1)
	res, err := a.RegisterWindow(context.Background(), WindowMeta{Role: "AXWindow", BundleID: "com.apple.foo.widget"}, nil)
	require.NoError(t, err)
	require.False(t, res.Managed)
}

func TestRegisterWindow_FiltersAppExtensionsByPath(t *testing.T) {
	a := New(1)
	meta := WindowMeta{Role: "AXWindow", Path: "/Applications/Foo.app/Contents/PlugIns/Bar.appex/Contents/MacOS/Bar"}
	res, err := a.RegisterWindow(context.Background(), meta, nil)
	require.NoError(t, err)
	require.False(t, res.Managed)
}

func TestRegisterWindow_FiltersPopoversAndMenus(t *testing.T) {
	a := New(1)
	res, err := a.RegisterWindow(context.Background(), WindowMeta{Role: "AXPopover"}, nil)
	require.NoError(t, err)
	require.False(t, res.Managed)

	res, err = a.RegisterWindow(context.Background(), WindowMeta{Role: "AXMenu"}, nil)
	require.NoError(t, err)
	require.False(t, res.Managed)
}

func TestRegisterWindow_ITerm2WithoutTitleUIElementIsNotStandard(t *testing.T) {
	a := New(1)
	meta := WindowMeta{WindowId: ids.WindowId{Pid: 1, Idx: 1}, Role: "AXWindow", BundleID: "com.googlecode.iterm2"}
	res, err := a.RegisterWindow(context.Background(), meta, nil)
	require.NoError(t, err)
	require.True(t, res.Managed)
	require.False(t, res.Meta.IsStandard)
}

func TestRegisterWindow_ITerm2WithTitleUIElementIsStandard(t *testing.T) {
	a := New(1)
	meta := WindowMeta{WindowId: ids.WindowId{Pid: 1, Idx: 1}, Role: "AXWindow", BundleID: "com.googlecode.iterm2", HasTitleUIElement: true}
	res, err := a.RegisterWindow(context.Background(), meta, nil)
	require.NoError(t, err)
	require.True(t, res.Meta.IsStandard)
}

func TestRegisterWindow_OrdinaryBundleIsStandard(t *testing.T) {
	a := New(1)
	meta := WindowMeta{WindowId: ids.WindowId{Pid: 1, Idx: 1}, Role: "AXWindow", BundleID: "com.example.app"}
	res, err := a.RegisterWindow(context.Background(), meta, nil)
	require.NoError(t, err)
	require.True(t, res.Meta.IsStandard)
}

func TestRegisterWindow_PrefersWindowServerIDForIdx(t *testing.T) {
	a := New(1)
	meta := WindowMeta{WindowId: ids.WindowId{Pid: 1}, Role: "AXWindow", WindowServerID: 42}
	res, err := a.RegisterWindow(context.Background(), meta, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(42), res.Meta.WindowId.Idx)
}

func TestRegisterWindow_AllocatesIdxWhenNoWindowServerID(t *testing.T) {
	a := New(1)
	res1, err := a.RegisterWindow(context.Background(), WindowMeta{WindowId: ids.WindowId{Pid: 1}, Role: "AXWindow"}, nil)
	require.NoError(t, err)
	res2, err := a.RegisterWindow(context.Background(), WindowMeta{WindowId: ids.WindowId{Pid: 1}, Role: "AXWindow"}, nil)
	require.NoError(t, err)
	require.NotEqual(t, res1.Meta.WindowId.Idx, res2.Meta.WindowId.Idx)
	require.NotZero(t, res1.Meta.WindowId.Idx)
}

func TestRegisterWindow_CommitsAndTracksRegistration(t *testing.T) {
	a := New(1)
	w := ids.WindowId{Pid: 1, Idx: 1}
	res, err := a.RegisterWindow(context.Background(), WindowMeta{WindowId: w, Role: "AXWindow"}, nil)
	require.NoError(t, err)
	require.True(t, res.Managed)
	require.True(t, a.IsRegistered(w))

	a.Unregister(w)
	require.False(t, a.IsRegistered(w))
}

func TestRegisterWindow_HiddenAppEmitsMinimized(t *testing.T) {
	a := New(1)
	a.SetHidden(true)
	w := ids.WindowId{Pid: 1, Idx: 1}
	res, err := a.RegisterWindow(context.Background(), WindowMeta{WindowId: w, Role: "AXWindow"}, nil)
	require.NoError(t, err)
	require.True(t, res.Managed)
	require.True(t, res.Minimized)
}

func TestRegisterWindow_AlreadyRegisteredReturnsExistingMeta(t *testing.T) {
	a := New(1)
	w := ids.WindowId{Pid: 1, Idx: 1}
	orig := WindowMeta{WindowId: w, Role: "AXWindow", Title: "original"}
	_, err := a.RegisterWindow(context.Background(), orig, nil)
	require.NoError(t, err)

	res, err := a.RegisterWindow(context.Background(), WindowMeta{WindowId: w, Title: "ignored"}, ErrAXAlreadyRegistered)
	require.NoError(t, err)
	require.True(t, res.Managed)
	require.Equal(t, "original", res.Meta.Title, "already-registered is success without re-registering")
}

func TestRegisterWindow_OtherAXErrorPropagates(t *testing.T) {
	a := New(1)
	res, err := a.RegisterWindow(context.Background(), WindowMeta{}, ErrAXTimeout)
	require.False(t, res.Managed)
	require.ErrorIs(t, err, ErrAXTimeout)
}

func TestRegisterWindow_RespectsCancelledContext(t *testing.T) {
	a := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := a.RegisterWindow(ctx, WindowMeta{Role: "AXWindow"}, nil)
	require.False(t, res.Managed)
	require.Error(t, err)
}
