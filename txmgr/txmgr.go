// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: txmgr/txmgr.go
// Summary: Global monotonic transaction counter and the per-window-server-id
// store application actors share to tag and validate geometry echoes.

package txmgr

import (
	"sync"
	"sync/atomic"

	"github.com/skylinewm/skyline/ids"
)

// Manager hands out monotonically increasing TransactionIds and tracks,
// per window-server id, the most recent id stamped on an outgoing frame
// command so that stale OS echoes can be told apart from live ones.
type Manager struct {
	counter uint64

	mu      sync.RWMutex
	pending map[uint32]ids.TransactionId
}

func New() *Manager {
	return &Manager{pending: make(map[uint32]ids.TransactionId)}
}

// Next returns a new, strictly increasing TransactionId.
func (m *Manager) Next() ids.TransactionId {
	return ids.TransactionId(atomic.AddUint64(&m.counter, 1))
}

// RecordPending stamps txid as the most recent outgoing transaction for
// the given window-server id. Callers record this before issuing the
// corresponding SetWindowFrame/SetBatchWindowFrame request, never after.
func (m *Manager) RecordPending(windowServerID uint32, txid ids.TransactionId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[windowServerID] = txid
}

// TxidFor resolves the transaction id an incoming frame-changed event for
// windowServerID should be compared against: the value last recorded via
// RecordPending, or ZeroTransaction ("none") if nothing is pending.
func (m *Manager) TxidFor(windowServerID uint32) ids.TransactionId {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending[windowServerID]
}

// IsStale reports whether incoming is older than lastSeen. A zero
// lastSeen never counts as newer; every incoming id passes on first sight.
func IsStale(incoming, lastSeen ids.TransactionId) bool {
	if lastSeen == ids.ZeroTransaction {
		return false
	}
	return incoming < lastSeen
}
