// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package floating

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skylinewm/skyline/ids"
)

func TestManager_AddRemoveFloating(t *testing.T) {
	m := New()
	w := ids.WindowId{Pid: 1, Idx: 1}
	require.False(t, m.IsFloating(w))
	m.AddFloating(w)
	require.True(t, m.IsFloating(w))
	m.RemoveFloating(w)
	require.False(t, m.IsFloating(w))
}

func TestManager_RemoveFloating_ClearsActiveAndLastFocus(t *testing.T) {
	m := New()
	w := ids.WindowId{Pid: 1, Idx: 1}
	m.AddFloating(w)
	m.AddActive(1, 1, w)
	m.SetLastFocus(w)

	m.RemoveFloating(w)
	require.Empty(t, m.ActiveForPid(1, 1))
	_, ok := m.LastFocus()
	require.False(t, ok)
}

func TestManager_RebuildActiveForWorkspace_IntersectsFloatingSet(t *testing.T) {
	m := New()
	w1 := ids.WindowId{Pid: 1, Idx: 1}
	w2 := ids.WindowId{Pid: 1, Idx: 2}
	m.AddFloating(w1)

	m.RebuildActiveForWorkspace(1, 1, []ids.WindowId{w1, w2})
	active := m.ActiveForPid(1, 1)
	require.ElementsMatch(t, []ids.WindowId{w1}, active, "only floating windows carry over")
}

func TestManager_LastFocus_ZeroValueWhenUnset(t *testing.T) {
	m := New()
	_, ok := m.LastFocus()
	require.False(t, ok)
}

func TestManager_SetLastFocus(t *testing.T) {
	m := New()
	w := ids.WindowId{Pid: 1, Idx: 1}
	m.SetLastFocus(w)
	got, ok := m.LastFocus()
	require.True(t, ok)
	require.Equal(t, w, got)
}
