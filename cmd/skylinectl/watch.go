// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/skylinectl/watch.go
// Summary: `skylinectl watch` tails the broadcast socket, printing each
// decoded WorkspaceChanged/WindowsChanged event and acking it so the
// daemon can trim its retained queue.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skylinewm/skyline/protocol"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print WorkspaceChanged/WindowsChanged events as they arrive",
	RunE:  runWatch,
}

// eventKindLabels mirrors broadcast.EventKind's iota ordering; kept as a
// plain lookup table here rather than importing package broadcast, so
// this debugging client depends only on the wire protocol.
var eventKindLabels = []string{
	"layout_changed",
	"selection_changed",
	"workspace_activated",
	"workspace_created",
	"floating_toggled",
	"window_added",
	"window_removed",
	"window_minimized",
}

func eventKindLabel(k uint8) string {
	if int(k) < len(eventKindLabels) {
		return eventKindLabels[k]
	}
	return fmt.Sprintf("unknown(%d)", k)
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, err := dial(socketPath)
	if err != nil {
		return err
	}
	defer c.close()

	fmt.Println("watching for events (Ctrl+C to stop)...")
	for {
		hdr, payload, err := protocol.ReadMessage(c.conn)
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		switch hdr.Type {
		case protocol.MsgWorkspaceChanged:
			ev, err := protocol.DecodeWorkspaceChanged(payload)
			if err != nil {
				return fmt.Errorf("decode workspace event: %w", err)
			}
			fmt.Printf("[%d] %s space=%d workspace=%d/%d window=%d.%d\n",
				hdr.Sequence, eventKindLabel(ev.EventKind), ev.Space, ev.WorkspaceIdx, ev.WorkspaceGen, ev.WindowPid, ev.WindowIdx)
		case protocol.MsgWindowsChanged:
			ev, err := protocol.DecodeWindowsChanged(payload)
			if err != nil {
				return fmt.Errorf("decode window event: %w", err)
			}
			if ev.HasFrame {
				fmt.Printf("[%d] %s space=%d window=%d.%d frame=(%.0f,%.0f %.0fx%.0f)\n",
					hdr.Sequence, eventKindLabel(ev.EventKind), ev.Space, ev.WindowPid, ev.WindowIdx, ev.FrameX, ev.FrameY, ev.FrameW, ev.FrameH)
			} else {
				fmt.Printf("[%d] %s space=%d window=%d.%d\n",
					hdr.Sequence, eventKindLabel(ev.EventKind), ev.Space, ev.WindowPid, ev.WindowIdx)
			}
		case protocol.MsgDisconnectNotice:
			notice, err := protocol.DecodeDisconnectNotice(payload)
			if err != nil {
				return fmt.Errorf("decode disconnect notice: %w", err)
			}
			return fmt.Errorf("daemon disconnected us: %s", notice.Message)
		default:
			continue
		}

		ackPayload, err := protocol.EncodeEventAck(protocol.EventAck{Sequence: hdr.Sequence})
		if err != nil {
			return fmt.Errorf("encode ack: %w", err)
		}
		if err := protocol.WriteMessage(c.conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgEventAck, Flags: protocol.FlagChecksum, SessionID: c.sessionID}, ackPayload); err != nil {
			return fmt.Errorf("send ack: %w", err)
		}
	}
}
