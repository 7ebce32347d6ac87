// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package fake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skylinewm/skyline/inputsrc"
)

func TestSource_InjectDeliversThroughSubscribe(t *testing.T) {
	s := New()
	ch, err := s.Subscribe(context.Background())
	require.NoError(t, err)

	s.Inject(inputsrc.Command{Name: "move_focus", Args: map[string]string{"dir": "left"}})

	select {
	case cmd := <-ch:
		require.Equal(t, "move_focus", cmd.Name)
		require.Equal(t, "left", cmd.Args["dir"])
	case <-time.After(time.Second):
		t.Fatal("injected command was never delivered")
	}
}

func TestSource_Close_ClosesSubscribeChannel(t *testing.T) {
	s := New()
	ch, err := s.Subscribe(context.Background())
	require.NoError(t, err)

	s.Close()

	_, ok := <-ch
	require.False(t, ok)
}
