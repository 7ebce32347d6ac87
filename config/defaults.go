// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/defaults.go
// Summary: Default values for every recognized settings section.

package config

func applyDefaults(cfg Config) {
	if cfg == nil {
		return
	}
	cfg.RegisterDefaults("settings", Section{
		"animate":           true,
		"animation_duration": 0.25,
		"animation_fps":      100.0,
		"mouse_follows_focus": false,
		"mouse_hides_on_focus": false,
		"default_disable":     false,
	})
	cfg.RegisterDefaults("layout.stack", Section{
		"default_orientation": "horizontal",
		"stack_offset":        24.0,
		"line_thickness":      2.0,
	})
	cfg.RegisterDefaults("layout.gaps", Section{
		"inner": 6.0,
		"outer": 6.0,
	})
	cfg.RegisterDefaults("virtual_workspaces", Section{
		"count":                    4,
		"default":                  0,
		"names":                    []interface{}{},
		"auto_back_and_forth":      false,
		"hidden_corner":            "bottom_right",
	})
	cfg.RegisterDefaults("settings.gestures", Section{
		"enabled":                true,
		"swipe_fingers":          4,
		"swipe_min_distance":     0.15,
		"swipe_resistance":       0.3,
	})
}
