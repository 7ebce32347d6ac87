// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/skyline/paths.go
// Summary: Standard file paths for the skyline daemon's runtime state.

package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds standard file paths for the skyline daemon.
type Paths struct {
	ConfigDir   string // ~/.skyline
	PIDPath     string // ~/.skyline/skyline.pid
	RestoreDB   string // ~/.skyline/restore.db
	LogPath     string // ~/.skyline/skyline.log
	SocketPath  string // /tmp/skyline.sock (default)
}

// GetPaths returns the standard paths for skyline's runtime files.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".skyline")

	return &Paths{
		ConfigDir:  configDir,
		PIDPath:    filepath.Join(configDir, "skyline.pid"),
		RestoreDB:  filepath.Join(configDir, "restore.db"),
		LogPath:    filepath.Join(configDir, "skyline.log"),
		SocketPath: "/tmp/skyline.sock",
	}, nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func (p *Paths) EnsureConfigDir() error {
	return os.MkdirAll(p.ConfigDir, 0755)
}
