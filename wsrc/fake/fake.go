// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wsrc/fake/fake.go
// Summary: An in-memory wsrc.WindowSource for tests: records frame/hide/
// raise calls instead of touching any real window server.

package fake

import (
	"context"
	"sync"

	"github.com/skylinewm/skyline/appactor"
	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/layout"
)

// Source is a fully in-memory WindowSource. Tests seed Meta/Windows/
// Screens (and MetaErr/Frontmost) before exercising the system under test, then assert
// against Frames/Hidden/Raises afterward.
type Source struct {
	mu sync.Mutex

	Frames  map[ids.WindowId]layout.Rect
	Hidden  map[ids.WindowId]bool
	Raises  []RaiseCall
	Windows map[uint32][]ids.WindowId
	Meta    map[ids.WindowId]appactor.WindowMeta
	Screens map[ids.SpaceId]layout.Rect

	MetaErr   map[ids.WindowId]error
	Frontmost map[uint32]bool
}

type RaiseCall struct {
	Window ids.WindowId
	Txid   ids.TransactionId
}

func New() *Source {
	return &Source{
		Frames:  make(map[ids.WindowId]layout.Rect),
		Hidden:  make(map[ids.WindowId]bool),
		Windows: make(map[uint32][]ids.WindowId),
		Meta:    make(map[ids.WindowId]appactor.WindowMeta),
		Screens: make(map[ids.SpaceId]layout.Rect),
		MetaErr: make(map[ids.WindowId]error),
		Frontmost: make(map[uint32]bool),
	}
}

func (s *Source) SetFrame(_ context.Context, w ids.WindowId, rect layout.Rect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Frames[w] = rect
	return nil
}

func (s *Source) SetHidden(_ context.Context, w ids.WindowId, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Hidden[w] = hidden
	return nil
}

func (s *Source) Raise(_ context.Context, w ids.WindowId, txid ids.TransactionId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Raises = append(s.Raises, RaiseCall{Window: w, Txid: txid})
	return nil
}

func (s *Source) Metadata(_ context.Context, w ids.WindowId) (appactor.WindowMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.MetaErr[w]; ok && err != nil {
		return appactor.WindowMeta{}, err
	}
	return s.Meta[w], nil
}

func (s *Source) WindowsForPid(_ context.Context, pid uint32) ([]ids.WindowId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ids.WindowId, len(s.Windows[pid]))
	copy(out, s.Windows[pid])
	return out, nil
}

func (s *Source) ScreenFrame(_ context.Context, space ids.SpaceId) (layout.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Screens[space], nil
}

func (s *Source) IsFrontmost(_ context.Context, pid uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Frontmost[pid], nil
}
