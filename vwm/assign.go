// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vwm/assign.go
// Summary: assign_window_with_app_info — routes a newly registered window
// to a workspace using app rules, falling back to the active workspace.

package vwm

import "github.com/skylinewm/skyline/ids"

// Assignment is the outcome of AssignWindow: which workspace the window
// landed on and whether it should be floated rather than tiled.
type Assignment struct {
	Workspace    ids.VirtualWorkspaceId
	Floating     bool
	Manage       bool
	MatchedRule  bool
	RuleSnapshot MatchResult
}

// AssignWindow implements assign_window_with_app_info:
//  1. Ensure the space has been initialized (default workspace set exists).
//  2. Evaluate app rules against w, keeping the best match if any.
//  3. If the matched rule marks the window unmanaged (manage=false),
//     report that and skip workspace/floating bookkeeping entirely; a
//     window no rule matches is managed.
//  4. Resolve the target workspace: the rule's explicit workspace target
//     if it named one and it resolves to a real workspace, else the
//     space's current active workspace.
//  5. Resolve floating: the rule's explicit floating flag if present,
//     else false (tiled is the default placement).
//  6. Record the assignment (window_to_workspace map, rule-decision
//     cache for future re-evaluation) and return it.
func (m *Manager) AssignWindow(space ids.SpaceId, w ids.WindowId, info WindowInfo) Assignment {
	m.EnsureSpaceInitialized(space)

	match, matched := m.BestRule(info)

	if matched && match.Rule.Manage != nil && !*match.Rule.Manage {
		m.lastRuleDecision[spaceWindow{space, w}] = false
		return Assignment{Manage: false, MatchedRule: true, RuleSnapshot: match}
	}

	target := m.resolveWorkspaceTarget(space, match, matched)
	floating := matched && match.Rule.Floating != nil && *match.Rule.Floating

	m.assignToWorkspace(space, w, target)
	m.lastRuleDecision[spaceWindow{space, w}] = true

	return Assignment{
		Workspace:    target,
		Floating:     floating,
		Manage:       true,
		MatchedRule:  matched,
		RuleSnapshot: match,
	}
}

func (m *Manager) resolveWorkspaceTarget(space ids.SpaceId, match MatchResult, matched bool) ids.VirtualWorkspaceId {
	list := m.workspacesBySpace[space]
	if matched && match.Rule.Workspace != nil {
		if id, ok := m.lookupWorkspace(list, *match.Rule.Workspace); ok {
			return id
		}
	}
	if active := m.activeBySpace[space].current; !active.IsNil() {
		return active
	}
	if len(list) > 0 {
		return list[0]
	}
	return ids.NilWorkspace
}

func (m *Manager) lookupWorkspace(list []ids.VirtualWorkspaceId, target WorkspaceTarget) (ids.VirtualWorkspaceId, bool) {
	if target.Index != nil {
		if *target.Index >= 0 && *target.Index < len(list) {
			return list[*target.Index], true
		}
		return ids.NilWorkspace, false
	}
	for _, id := range list {
		if ws, ok := m.workspaces[id]; ok && ws.Name == target.Name {
			return id, true
		}
	}
	return ids.NilWorkspace, false
}

// LastRuleDecision reports whether w was managed (tiled/floated) by the
// last AssignWindow evaluation for it on space, used to detect when a
// stale app-rule decision should be re-evaluated after a config reload.
func (m *Manager) LastRuleDecision(space ids.SpaceId, w ids.WindowId) (bool, bool) {
	v, ok := m.lastRuleDecision[spaceWindow{space, w}]
	return v, ok
}
