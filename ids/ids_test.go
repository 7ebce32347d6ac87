// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindowId_IsZero(t *testing.T) {
	require.True(t, WindowId{}.IsZero())
	require.False(t, WindowId{Pid: 1}.IsZero())
	require.False(t, WindowId{Idx: 1}.IsZero())
}

func TestWindowId_String(t *testing.T) {
	w := WindowId{Pid: 42, Idx: 3}
	require.Equal(t, "WindowId { pid: 42, idx: 3 }", w.String())
}

func TestNodeId_IsNil(t *testing.T) {
	require.True(t, NilNode.IsNil())
	require.True(t, NodeId{}.IsNil())
	require.False(t, NodeId{Index: 1, Gen: 1}.IsNil())
}

func TestVirtualWorkspaceId_IsNil(t *testing.T) {
	require.True(t, NilWorkspace.IsNil())
	require.False(t, VirtualWorkspaceId{Index: 1, Gen: 1}.IsNil())
}

func TestZeroTransaction(t *testing.T) {
	require.Equal(t, TransactionId(0), ZeroTransaction)
}
