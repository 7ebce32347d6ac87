// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/settings.go
// Summary: Validated runtime setters over the system config, and the
// bridge from the generic section-keyed Config into the typed configs
// each domain package (engine, vwm) actually wants.

package config

import (
	"fmt"

	"github.com/skylinewm/skyline/engine"
	"github.com/skylinewm/skyline/layout"
	"github.com/skylinewm/skyline/vwm"
)

// setRange mirrors the original config actor's range-checked setter:
// reject out-of-bounds values with a descriptive error instead of
// clamping them silently.
func setRange(name string, value, min, max float64) error {
	if value < min || value > max {
		return fmt.Errorf("config: invalid %s value %v, must be between %v and %v", name, value, min, max)
	}
	return nil
}

// ApplyAnimate toggles whether layout transitions animate.
func ApplyAnimate(v bool) error {
	cfg := System()
	cfg.Section("settings")["animate"] = v
	return Replace(cfg)
}

// ApplyAnimationDuration sets the transition duration in seconds,
// range-checked against [0, 5] (an unbounded duration would make every
// layout change feel stuck).
func ApplyAnimationDuration(seconds float64) error {
	if err := setRange("animation_duration", seconds, 0.0, 5.0); err != nil {
		return err
	}
	cfg := System()
	cfg.Section("settings")["animation_duration"] = seconds
	return Replace(cfg)
}

// ApplyAnimationFPS sets the transition frame rate, range-checked
// against [0, 240].
func ApplyAnimationFPS(fps float64) error {
	if err := setRange("animation_fps", fps, 0.0, 240.0); err != nil {
		return err
	}
	cfg := System()
	cfg.Section("settings")["animation_fps"] = fps
	return Replace(cfg)
}

// ApplyGaps sets the inner/outer gap sizes, range-checked against
// [0, 200] px (a window manager with a four-figure gap is a
// misconfiguration, not a design a user actually wants).
func ApplyGaps(inner, outer float64) error {
	if err := setRange("gaps.inner", inner, 0.0, 200.0); err != nil {
		return err
	}
	if err := setRange("gaps.outer", outer, 0.0, 200.0); err != nil {
		return err
	}
	cfg := System()
	section := cfg.Section("layout.gaps")
	section["inner"] = inner
	section["outer"] = outer
	return Replace(cfg)
}

// ApplyMouseFollowsFocus sets settings.mouse_follows_focus: whether the
// mouse pointer is moved onto a window when that window gains focus.
func ApplyMouseFollowsFocus(v bool) error {
	cfg := System()
	cfg.Section("settings")["mouse_follows_focus"] = v
	return Replace(cfg)
}

// EngineConfig builds an engine.Config from the loaded system config,
// suitable for passing straight to engine.New/reactor.New.
func EngineConfig(cfg Config) engine.Config {
	orient := layout.StackHorizontal
	if cfg.GetString("layout.stack", "default_orientation", "horizontal") == "vertical" {
		orient = layout.StackVertical
	}
	return engine.Config{
		Gaps: layout.GapConfig{
			Inner: cfg.GetFloat("layout.gaps", "inner", 6.0),
			Outer: cfg.GetFloat("layout.gaps", "outer", 6.0),
		},
		Stack: layout.StackConfig{
			StackOffset:   cfg.GetFloat("layout.stack", "stack_offset", 24.0),
			LineThickness: cfg.GetFloat("layout.stack", "line_thickness", 2.0),
		},
		DefaultRootKind:    layout.Horizontal,
		StackDefaultOrient: orient,
	}
}

// VWMConfig builds a vwm.Config from the loaded system config.
func VWMConfig(cfg Config) vwm.Config {
	corner := vwm.BottomRight
	if cfg.GetString("virtual_workspaces", "hidden_corner", "bottom_right") == "bottom_left" {
		corner = vwm.BottomLeft
	}
	return vwm.Config{
		WorkspaceNames:            cfg.GetStringSlice("virtual_workspaces", "names"),
		DefaultWorkspaceCount:     cfg.GetInt("virtual_workspaces", "count", 4),
		DefaultWorkspace:          cfg.GetInt("virtual_workspaces", "default", 0),
		WorkspaceAutoBackAndForth: cfg.GetBool("virtual_workspaces", "auto_back_and_forth", false),
		HiddenCorner:              corner,
		DefaultDisable:            cfg.GetBool("settings", "default_disable", false),
	}
}
