// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: layout/geometry.go
// Summary: calculate_layout — turns a layout tree plus a screen rect, gap
// configuration, and stack-line configuration into per-window rectangles.

package layout

import (
	"math"

	"github.com/skylinewm/skyline/ids"
)

// Rect uses absolute screen-pixel coordinates (unlike the teacher's
// fractional Rect) since the spec's geometry computation works in pixels
// throughout and rounds to integers at the leaves.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) right() float64  { return r.X + r.W }
func (r Rect) bottom() float64 { return r.Y + r.H }

func rectsEqual(a, b Rect) bool {
	const eps = 0.5
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps &&
		math.Abs(a.W-b.W) < eps && math.Abs(a.H-b.H) < eps
}

func roundRect(r Rect) Rect {
	return Rect{
		X: math.Round(r.X),
		Y: math.Round(r.Y),
		W: math.Round(r.W),
		H: math.Round(r.H),
	}
}

// GapConfig mirrors settings.layout.gaps.{outer,inner}.
type GapConfig struct {
	OuterTop, OuterLeft, OuterBottom, OuterRight float64
	InnerHorizontal, InnerVertical               float64
}

// Shrink returns the tiling area: screen minus the outer gaps.
func (g GapConfig) Shrink(screen Rect) Rect {
	w := screen.W - g.OuterLeft - g.OuterRight
	h := screen.H - g.OuterTop - g.OuterBottom
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{X: screen.X + g.OuterLeft, Y: screen.Y + g.OuterTop, W: w, H: h}
}

// StackConfig mirrors settings.layout.stack.*.
type StackConfig struct {
	StackOffset     float64
	LineThickness   float64
}

// WindowFrame pairs a window with its computed on-screen rectangle.
type WindowFrame struct {
	WindowId ids.WindowId
	Rect     Rect
}

// CalculateLayout computes the frame for every window leaf in lt against
// screen, honoring gaps and stack presentation. See spec §4.2.
func CalculateLayout(lt *LayoutTree, screen Rect, gaps GapConfig, stack StackConfig) []WindowFrame {
	var out []WindowFrame
	root := lt.arena.Root()
	if root.IsNil() {
		return out
	}
	tilingArea := gaps.Shrink(screen)
	calcNode(lt, root, tilingArea, screen, tilingArea, gaps, stack, &out)
	return out
}

func calcNode(lt *LayoutTree, n ids.NodeId, rect Rect, screen, tilingArea Rect, gaps GapConfig, stack StackConfig, out *[]WindowFrame) {
	info := lt.info[n]
	if info != nil {
		switch {
		case info.IsFullscreen:
			rect = screen
		case info.IsFullscreenWithinGaps:
			rect = tilingArea
		}
	}

	if lt.IsLeaf(n) {
		if wid, ok := lt.windowOf[n]; ok {
			*out = append(*out, WindowFrame{WindowId: wid, Rect: roundRect(rect)})
		}
		return
	}

	kids := lt.arena.Children(n)
	if len(kids) == 0 {
		return
	}

	kind := Horizontal
	if info != nil {
		kind = info.Kind
	}

	if kind.IsStack() {
		calcStack(lt, n, kids, rect, kind, stack, screen, tilingArea, gaps, out)
		return
	}
	calcTiled(lt, kids, rect, kind, screen, tilingArea, gaps, stack, out)
}

func calcTiled(lt *LayoutTree, kids []ids.NodeId, rect Rect, kind LayoutKind, screen, tilingArea Rect, gaps GapConfig, stack StackConfig, out *[]WindowFrame) {
	total := 0.0
	for _, k := range kids {
		if ki := lt.info[k]; ki != nil {
			share := ki.Size
			if share <= 0 {
				share = 1
			}
			total += share
		} else {
			total += 1
		}
	}
	if total == 0 {
		total = float64(len(kids))
	}

	innerGap := gaps.InnerVertical
	if kind.Base() == Horizontal {
		innerGap = gaps.InnerHorizontal
	}
	totalGap := innerGap * float64(len(kids)-1)
	if totalGap < 0 {
		totalGap = 0
	}

	if kind.Base() == Horizontal {
		avail := rect.W - totalGap
		if avail < 0 {
			avail = 0
		}
		x := rect.X
		for _, k := range kids {
			share := 1.0
			if ki := lt.info[k]; ki != nil && ki.Size > 0 {
				share = ki.Size
			}
			w := avail * (share / total)
			childRect := Rect{X: x, Y: rect.Y, W: w, H: rect.H}
			calcNode(lt, k, childRect, screen, tilingArea, gaps, stack, out)
			x += w + innerGap
		}
		return
	}

	avail := rect.H - totalGap
	if avail < 0 {
		avail = 0
	}
	y := rect.Y
	for _, k := range kids {
		share := 1.0
		if ki := lt.info[k]; ki != nil && ki.Size > 0 {
			share = ki.Size
		}
		h := avail * (share / total)
		childRect := Rect{X: rect.X, Y: y, W: rect.W, H: h}
		calcNode(lt, k, childRect, screen, tilingArea, gaps, stack, out)
		y += h + innerGap
	}
}

func calcStack(lt *LayoutTree, n ids.NodeId, kids []ids.NodeId, rect Rect, kind LayoutKind, stack StackConfig, screen, tilingArea Rect, gaps GapConfig, out *[]WindowFrame) {
	focused := lt.FocusedAncestor(n)

	for i, k := range kids {
		base := rect
		if kind == HorizontalStack {
			base.Y += stack.LineThickness
			base.H -= stack.LineThickness
			base.X += float64(i) * stack.StackOffset
		} else {
			base.X += stack.LineThickness
			base.W -= stack.LineThickness
			base.Y += float64(i) * stack.StackOffset
		}
		if base.W < 0 {
			base.W = 0
		}
		if base.H < 0 {
			base.H = 0
		}

		if k == focused {
			base = enlargeClamped(base, 10, rect)
			if kind == HorizontalStack {
				base.X -= 5
			} else {
				base.Y -= 5
			}
		}
		calcNode(lt, k, base, screen, tilingArea, gaps, stack, out)
	}
}

func enlargeClamped(r Rect, px float64, bound Rect) Rect {
	nr := Rect{X: r.X - px, Y: r.Y - px, W: r.W + 2*px, H: r.H + 2*px}
	if nr.X < bound.X {
		nr.X = bound.X
	}
	if nr.Y < bound.Y {
		nr.Y = bound.Y
	}
	if nr.right() > bound.right() {
		nr.W = bound.right() - nr.X
	}
	if nr.bottom() > bound.bottom() {
		nr.H = bound.bottom() - nr.Y
	}
	return nr
}
