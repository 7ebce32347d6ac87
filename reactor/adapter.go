// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: reactor/adapter.go
// Summary: Adapts the context/error-returning wsrc.WindowSource to the
// engine.WindowSource shape the Layout Engine expects — engine operates
// synchronously on in-memory state and pushes the resulting frames out;
// only the Reactor's boundary needs to worry about context and AX errors.

package reactor

import (
	"context"
	"log"

	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/layout"
	"github.com/skylinewm/skyline/wsrc"
)

type windowSourceAdapter struct {
	ctx context.Context
	src wsrc.WindowSource
}

func newWindowSourceAdapter(ctx context.Context, src wsrc.WindowSource) *windowSourceAdapter {
	return &windowSourceAdapter{ctx: ctx, src: src}
}

func (a *windowSourceAdapter) SetFrame(w ids.WindowId, rect layout.Rect) {
	if err := a.src.SetFrame(a.ctx, w, rect); err != nil {
		log.Printf("reactor: SetFrame(%v): %v", w, err)
	}
}

func (a *windowSourceAdapter) SetHidden(w ids.WindowId, hidden bool) {
	if err := a.src.SetHidden(a.ctx, w, hidden); err != nil {
		log.Printf("reactor: SetHidden(%v): %v", w, err)
	}
}
