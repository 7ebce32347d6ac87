// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/skylinectl/main.go
// Summary: skylinectl is a debugging/scripting client for the skyline
// daemon's broadcast socket: it can tail WorkspaceChanged/WindowsChanged
// events (watch) or issue a LayoutCommand (cmd). It is not a substitute
// for the real hotkey-driven InputSource.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var socketPath string

var rootCmd = &cobra.Command{
	Use:   "skylinectl",
	Short: "Debugging/scripting client for the skyline daemon",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "/tmp/skyline.sock", "Path to the skyline daemon's Unix socket")
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(cmdCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
