// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: inputsrc/fake/fake.go
// Summary: An in-memory inputsrc.InputSource for tests: the test feeds
// commands onto Inject, which Subscribe's channel re-emits.

package fake

import (
	"context"

	"github.com/skylinewm/skyline/inputsrc"
)

type Source struct {
	ch chan inputsrc.Command
}

func New() *Source {
	return &Source{ch: make(chan inputsrc.Command, 16)}
}

func (s *Source) Subscribe(ctx context.Context) (<-chan inputsrc.Command, error) {
	return s.ch, nil
}

// Inject delivers cmd as if the platform input source had decoded it.
// Blocks if the channel is full; tests should drain Subscribe's channel
// or size their injections accordingly.
func (s *Source) Inject(cmd inputsrc.Command) {
	s.ch <- cmd
}

func (s *Source) Close() { close(s.ch) }
