// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/skylinectl/cmd.go
// Summary: `skylinectl cmd <name> [key=value...]` encodes one
// inputsrc.Command and sends it to the daemon as a LayoutCommand.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skylinewm/skyline/protocol"
)

var cmdCmd = &cobra.Command{
	Use:   "cmd <name> [key=value...]",
	Short: "Issue a Layout Engine command over the broadcast socket",
	Example: "  skylinectl cmd move_focus dir=right\n" +
		"  skylinectl cmd toggle_stack",
	Args: cobra.MinimumNArgs(1),
	RunE: runCmd,
}

func runCmd(cobraCmd *cobra.Command, args []string) error {
	name := args[0]
	cmdArgs := make(map[string]string, len(args)-1)
	for _, raw := range args[1:] {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("invalid argument %q, expected key=value", raw)
		}
		cmdArgs[key] = value
	}

	c, err := dial(socketPath)
	if err != nil {
		return err
	}
	defer c.close()

	payload, err := protocol.EncodeLayoutCommand(protocol.LayoutCommand{Name: name, Args: cmdArgs})
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	if err := protocol.WriteMessage(c.conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgCommand, Flags: protocol.FlagChecksum, SessionID: c.sessionID}, payload); err != nil {
		return fmt.Errorf("send command: %w", err)
	}

	fmt.Printf("sent %s %v\n", name, cmdArgs)
	return nil
}
