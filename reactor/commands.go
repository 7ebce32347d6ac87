// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: reactor/commands.go
// Summary: Decodes inputsrc.Command values into Layout Engine calls, and
// the Run loop that pulls them off the InputSource's channel.

package reactor

import (
	"context"
	"log"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/skylinewm/skyline/appactor"
	"github.com/skylinewm/skyline/broadcast"
	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/inputsrc"
	"github.com/skylinewm/skyline/layout"
)

// Run subscribes to the InputSource and applies every decoded command
// against space until ctx is canceled. Each input source instance is
// assumed to be scoped to a single space (one input tap per display, in
// practice); multi-space setups run one Reactor.Run per space.
func (r *Reactor) Run(ctx context.Context, space ids.SpaceId) error {
	commands, err := r.input.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-commands:
			if !ok {
				return nil
			}
			// pid 0: this span belongs to the Reactor's own inbound
			// channel, not any per-app mailbox.
			var span trace.Span
			if r.tracer != nil {
				_, span = r.tracer.StartMailboxSpan(ctx, 0, "command:"+cmd.Name)
			}
			r.applyCommand(space, cmd)
			if span != nil {
				span.End()
			}
		}
	}
}

func direction(args map[string]string) (layout.Direction, bool) {
	switch args["dir"] {
	case "left":
		return layout.DirLeft, true
	case "right":
		return layout.DirRight, true
	case "up":
		return layout.DirUp, true
	case "down":
		return layout.DirDown, true
	}
	return 0, false
}

func boolArg(args map[string]string, key string) bool {
	v, _ := strconv.ParseBool(args[key])
	return v
}

func floatArg(args map[string]string, key string, def float64) float64 {
	if v, err := strconv.ParseFloat(args[key], 64); err == nil {
		return v
	}
	return def
}

// ApplyCommand runs one decoded command against space directly, bypassing
// the InputSource-subscribe loop — used by transport.Server to let
// skylinectl issue commands over the broadcast socket instead of through
// a real hotkey tap.
func (r *Reactor) ApplyCommand(space ids.SpaceId, cmd inputsrc.Command) {
	r.applyCommand(space, cmd)
}

// raiseFocused issues a best-effort raise for the window an engine
// command just selected (spec §4.5's EventResponse.focus_window /
// raise_windows): ApplyCommand has no caller-supplied context (it's
// driven by the InputSource-subscribe loop or skylinectl's fire-and-
// forget transport path alike), so this uses context.Background() the
// same way the rest of the command dispatch table applies commands
// synchronously without per-call cancellation.
func (r *Reactor) raiseFocused(space ids.SpaceId, w ids.WindowId, ok bool) {
	if !ok {
		return
	}
	r.Raise(context.Background(), space, []ids.WindowId{w}, appactor.QuietNo, time.Now())
}

func (r *Reactor) applyCommand(space ids.SpaceId, cmd inputsrc.Command) {
	eng := r.engine
	layoutChanged := func() {
		r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvLayoutChanged, Space: space})
	}
	switch cmd.Name {
	case "move_focus":
		if d, ok := direction(cmd.Args); ok {
			w, focused := eng.MoveFocus(space, d)
			r.raiseFocused(space, w, focused)
			r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvSelectionChanged, Space: space})
		}
	case "next_window":
		w, focused := eng.NextWindow(space)
		r.raiseFocused(space, w, focused)
		r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvSelectionChanged, Space: space})
	case "prev_window":
		w, focused := eng.PrevWindow(space)
		r.raiseFocused(space, w, focused)
		r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvSelectionChanged, Space: space})
	case "move_node":
		if d, ok := direction(cmd.Args); ok {
			eng.MoveNode(space, d)
			layoutChanged()
		}
	case "toggle_focus_floating":
		eng.ToggleFocusFloating(space)
		layoutChanged()
	case "toggle_window_floating":
		if n, err := strconv.ParseUint(cmd.Args["window_idx"], 10, 32); err == nil {
			pid, _ := strconv.ParseUint(cmd.Args["window_pid"], 10, 32)
			w := ids.WindowId{Pid: uint32(pid), Idx: uint32(n)}
			eng.ToggleWindowFloating(space, w)
			r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvFloatingToggled, Space: space, Window: w})
		}
	case "next_workspace":
		w, focused := eng.NextWorkspace(space, boolArg(cmd.Args, "skip_empty"))
		r.raiseFocused(space, w, focused)
		r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvWorkspaceActivated, Space: space})
		r.snapshotSpace(space)
	case "prev_workspace":
		w, focused := eng.PrevWorkspace(space, boolArg(cmd.Args, "skip_empty"))
		r.raiseFocused(space, w, focused)
		r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvWorkspaceActivated, Space: space})
		r.snapshotSpace(space)
	case "switch_to_last_workspace":
		w, focused := eng.SwitchToLastWorkspace(space)
		r.raiseFocused(space, w, focused)
		r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvWorkspaceActivated, Space: space})
		r.snapshotSpace(space)
	case "switch_to_workspace":
		if idx, err := strconv.Atoi(cmd.Args["index"]); err == nil {
			if list := r.vwm.WorkspacesForSpace(space); idx >= 0 && idx < len(list) {
				w, focused := eng.SwitchToWorkspace(space, list[idx])
				r.raiseFocused(space, w, focused)
				r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvWorkspaceActivated, Space: space, Workspace: list[idx]})
				r.snapshotSpace(space)
			}
		}
	case "toggle_space_activated":
		eng.ToggleSpaceActivated(space)
		layoutChanged()
	case "create_workspace":
		eng.CreateWorkspace(space, cmd.Args["name"])
		r.hub.Publish(broadcast.BroadcastEvent{Kind: broadcast.EvWorkspaceCreated, Space: space})
		r.snapshotSpace(space)
	case "toggle_stack":
		eng.ToggleStack(space)
		layoutChanged()
	case "toggle_orientation":
		eng.ToggleOrientation(space)
		layoutChanged()
	case "unjoin_windows":
		eng.UnjoinWindows(space)
		layoutChanged()
	case "join_window":
		if d, ok := direction(cmd.Args); ok {
			eng.JoinWindow(space, d)
			layoutChanged()
		}
	case "resize_grow":
		if d, ok := direction(cmd.Args); ok {
			eng.ResizeWindowGrow(space, d)
			layoutChanged()
		}
	case "resize_shrink":
		if d, ok := direction(cmd.Args); ok {
			eng.ResizeWindowShrink(space, d)
			layoutChanged()
		}
	case "resize_by":
		if d, ok := direction(cmd.Args); ok {
			eng.ResizeWindowBy(space, d, floatArg(cmd.Args, "amount", 0))
			layoutChanged()
		}
	default:
		log.Printf("reactor: unrecognized command %q", cmd.Name)
	}
}
