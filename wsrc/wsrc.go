// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wsrc/wsrc.go
// Summary: WindowSource — the external window-server capability surface
// (spec §6). Production builds implement this against the Accessibility
// and CoreGraphics Services APIs; this package only defines the contract
// plus the in-memory fake under wsrc/fake used by tests.

package wsrc

import (
	"context"

	"github.com/skylinewm/skyline/appactor"
	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/layout"
)

// WindowSource is everything the rest of the system needs from the
// platform's window server: frame control, raise/focus, and window
// discovery/metadata for registration.
type WindowSource interface {
	// SetFrame moves/resizes w to rect. Implementations should coalesce
	// rapid repeated calls for the same window (the Layout Engine may
	// call this once per window on every relayout).
	SetFrame(ctx context.Context, w ids.WindowId, rect layout.Rect) error

	// SetHidden parks or restores w without destroying its AX
	// registration (used to keep off-screen-workspace windows alive).
	SetHidden(ctx context.Context, w ids.WindowId, hidden bool) error

	// Raise requests w be brought to the front of its application and
	// given input focus. txid threads a transaction id through to the
	// eventual confirming notification so the Transaction Manager can
	// distinguish our own echo from a user-driven change.
	Raise(ctx context.Context, w ids.WindowId, txid ids.TransactionId) error

	// Metadata fetches the current AX role/subrole/title/bundle id for
	// w, returning appactor.ErrAX* sentinels for the documented AX
	// failure modes (spec §4.6's AX error policy / §7's error kinds).
	Metadata(ctx context.Context, w ids.WindowId) (appactor.WindowMeta, error)

	// WindowsForPid lists the currently known windows of pid, used by
	// set_windows_for_app reconciliation.
	WindowsForPid(ctx context.Context, pid uint32) ([]ids.WindowId, error)

	// ScreenFrame returns the current on-screen rect for a space's
	// display, used to seed SpaceExposed.
	ScreenFrame(ctx context.Context, space ids.SpaceId) (layout.Rect, error)

	// IsFrontmost reports whether pid's application currently owns
	// input focus, consulted by raise arbitration's skip-activation
	// fast path (spec §4.6 step 2, §6's "report whether the process is
	// frontmost").
	IsFrontmost(ctx context.Context, pid uint32) (bool, error)
}
