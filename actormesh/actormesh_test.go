// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package actormesh

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMesh_SendPreservesFIFOOrderPerActor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := New(ctx, 4, nil)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		ok := m.Send(ctx, 42, "task", func(context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
		require.True(t, ok)
	}
	m.Remove(42)
	require.NoError(t, waitShort(m))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 10)
	for i, v := range order {
		require.Equal(t, i, v, "mailbox must deliver in submission order")
	}
}

func TestMesh_DistinctActorsRunIndependently(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := New(ctx, 4, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	m.Send(ctx, 1, "a", func(context.Context) { wg.Done() })
	m.Send(ctx, 2, "b", func(context.Context) { wg.Done() })

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks for distinct actors did not both run")
	}
	m.Remove(1)
	m.Remove(2)
}

func TestMesh_SendReturnsFalseWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New(ctx, 1, nil)
	cancel()
	// Send checks ctx before enqueueing, so a done ctx makes it report
	// false even though a freshly registered mailbox has room.
	time.Sleep(10 * time.Millisecond)
	ok := m.Send(ctx, 1, "task", func(context.Context) {})
	require.False(t, ok)
}

func waitShort(m *Mesh) error {
	done := make(chan error, 1)
	go func() { done <- m.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		return context.DeadlineExceeded
	}
}
