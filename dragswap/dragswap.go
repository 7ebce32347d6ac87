// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: dragswap/dragswap.go
// Summary: Scores candidate swap targets while a tiled window is being
// dragged over other tiles, with hysteresis so the candidate does not
// flicker between near-equal scores.

package dragswap

import (
	"context"
	"math"

	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/layout"
)

// SwitchDelta is how much better a new candidate's score must be over the
// currently latched one before the manager switches to it.
const SwitchDelta = 0.04

// StickRatio scales DragSwapFraction down to the "stick" threshold a
// latched candidate is allowed to fall to before it is released.
const StickRatio = 0.6

// Candidate is a tile eligible to be swapped with the dragged window.
type Candidate struct {
	WindowId ids.WindowId
	Frame    layout.Rect
}

// Manager retains the currently-latched swap target across successive
// calls to Evaluate for the same drag gesture.
type Manager struct {
	// DragSwapFraction is the minimum IoU a candidate must clear to be
	// considered at all; config key settings.layout.drag_swap_fraction.
	DragSwapFraction float64

	active *ids.WindowId
}

func New(dragSwapFraction float64) *Manager {
	return &Manager{DragSwapFraction: dragSwapFraction}
}

// Reset clears any latched candidate; call when a drag gesture ends.
func (m *Manager) Reset() {
	m.active = nil
}

// Evaluate scores candidates against the dragged window's new frame and
// returns the winning candidate, or nil if none clears the threshold. ctx
// is honored so an in-flight scoring pass can be abandoned if the owning
// application thread terminates mid-drag.
func (m *Manager) Evaluate(ctx context.Context, dragged ids.WindowId, newFrame layout.Rect, candidates []Candidate) (*ids.WindowId, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type scored struct {
		wid   ids.WindowId
		score float64
	}

	stick := m.DragSwapFraction * StickRatio
	var scores []scored
	var activeScore float64
	haveActiveScore := false

	for _, c := range candidates {
		iou := intersectionOverUnion(newFrame, c.Frame)
		if iou < m.DragSwapFraction {
			if m.active != nil && *m.active == c.WindowId && iou >= stick {
				// Latched candidate survives on the looser stick threshold
				// even though it no longer clears the strict one.
			} else {
				continue
			}
		}
		score := score(newFrame, c.Frame, iou)
		scores = append(scores, scored{c.WindowId, score})
		if m.active != nil && *m.active == c.WindowId {
			activeScore = score
			haveActiveScore = true
		}
	}

	if len(scores) == 0 {
		m.active = nil
		return nil, nil
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.score > best.score {
			best = s
		}
	}

	if haveActiveScore && best.score-activeScore < SwitchDelta {
		wid := *m.active
		return &wid, nil
	}

	wid := best.wid
	m.active = &wid
	return &wid, nil
}

func score(a, b layout.Rect, iou float64) float64 {
	proximity := 1 - math.Min(1, centerDistance(a, b)/(diagonal(a)+diagonal(b)))
	return iou*0.7 + proximity*0.3
}

func diagonal(r layout.Rect) float64 {
	return math.Hypot(r.W, r.H)
}

func centerDistance(a, b layout.Rect) float64 {
	ax, ay := a.X+a.W/2, a.Y+a.H/2
	bx, by := b.X+b.W/2, b.Y+b.H/2
	return math.Hypot(ax-bx, ay-by)
}

func intersectionOverUnion(a, b layout.Rect) float64 {
	ix0 := math.Max(a.X, b.X)
	iy0 := math.Max(a.Y, b.Y)
	ix1 := math.Min(a.X+a.W, b.X+b.W)
	iy1 := math.Min(a.Y+a.H, b.Y+b.H)

	iw := math.Max(0, ix1-ix0)
	ih := math.Max(0, iy1-iy0)
	intersection := iw * ih
	if intersection == 0 {
		return 0
	}

	union := a.W*a.H + b.W*b.H - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}
