// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/store.go
// Summary: Load/reload/save logic for the system config file, guarded
// by a package-level lock so the config-reload command (triggered by a
// file-watch or an explicit control-socket request) can't race an
// in-flight Get.

package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var (
	systemMu sync.RWMutex
	system   Config
)

// Load reads the system config file, applying defaults for every
// missing key, and stores the result for System to return. Safe to
// call more than once (e.g. on SIGHUP) — each call replaces the
// previous snapshot atomically.
func Load() error {
	path, err := systemConfigPath()
	if err != nil {
		log.Printf("config: failed to resolve config path: %v", err)
		systemMu.Lock()
		system = make(Config)
		applyDefaults(system)
		systemMu.Unlock()
		return err
	}

	cfg, exists, readErr := readConfig(path)
	if readErr != nil {
		log.Printf("config: failed to read %s: %v", path, readErr)
		cfg = make(Config)
	}
	if cfg == nil {
		cfg = make(Config)
	}
	applyDefaults(cfg)

	if !exists {
		if err := writeConfig(path, cfg); err != nil {
			log.Printf("config: failed to write default config: %v", err)
			if readErr == nil {
				readErr = err
			}
		}
	}

	systemMu.Lock()
	system = cfg
	systemMu.Unlock()

	if readErr == nil {
		log.Printf("config: loaded from %s", path)
	}
	return readErr
}

// System returns a defensive clone of the current system config.
func System() Config {
	systemMu.RLock()
	defer systemMu.RUnlock()
	return Clone(system)
}

// Replace installs cfg as the current system config and persists it —
// used by the runtime config-apply commands (see settings.go) so a
// validated mutation takes effect immediately and survives a restart.
func Replace(cfg Config) error {
	path, err := systemConfigPath()
	if err != nil {
		return err
	}
	if err := writeConfig(path, cfg); err != nil {
		return err
	}
	systemMu.Lock()
	system = cfg
	systemMu.Unlock()
	return nil
}

func readConfig(path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, true, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

func writeConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
