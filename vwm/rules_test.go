// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package vwm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBestRule_NoRulesMatches(t *testing.T) {
	m := NewManager(Config{DefaultWorkspaceCount: 1}, nil)
	_, ok := m.BestRule(WindowInfo{AppID: "com.example.app"})
	require.False(t, ok)
}

func TestBestRule_ZeroCriteriaRuleNeverMatches(t *testing.T) {
	m := NewManager(Config{DefaultWorkspaceCount: 1}, []AppRule{{}})
	_, ok := m.BestRule(WindowInfo{AppID: "com.example.app"})
	require.False(t, ok)
}

func TestBestRule_HigherScoreWins(t *testing.T) {
	rules := []AppRule{
		{AppNameSubstr: "term"},
		{AppNameSubstr: "term", AxRole: "AXWindow"},
	}
	m := NewManager(Config{DefaultWorkspaceCount: 1}, rules)
	res, ok := m.BestRule(WindowInfo{AppName: "Terminal", AxRole: "AXWindow"})
	require.True(t, ok)
	require.Equal(t, 1, res.RuleIndex, "two-criteria rule outscores the one-criterion rule")
}

func TestBestRule_TieBreaksOnEarlierRule(t *testing.T) {
	rules := []AppRule{
		{AppID: "com.a.one", AppNameSubstr: "one"},
		{AppID: "com.a.one", AppNameSubstr: "app"},
	}
	m := NewManager(Config{DefaultWorkspaceCount: 1}, rules)
	res, ok := m.BestRule(WindowInfo{AppID: "com.a.one", AppName: "one app"})
	require.True(t, ok)
	require.Equal(t, 0, res.RuleIndex)
}

func TestBestRule_GroupsByAppID(t *testing.T) {
	rules := []AppRule{
		{AppID: "com.example.app", TitleSubstring: "Settings"},
		{AppID: "com.example.app", AppNameSubstr: "example", TitleSubstring: "Settings"},
	}
	m := NewManager(Config{DefaultWorkspaceCount: 1}, rules)
	res, ok := m.BestRule(WindowInfo{AppID: "com.example.app", AppName: "Example", Title: "Settings"})
	require.True(t, ok)
	require.Equal(t, 1, res.RuleIndex, "higher-scoring rule within the same app_id group wins")
}

func TestMatches_TitleRegexInvalidPatternNeverMatches(t *testing.T) {
	m := NewManager(Config{DefaultWorkspaceCount: 1}, []AppRule{{TitleRegex: "("}})
	ok := m.matches(0, m.rules[0], WindowInfo{Title: "anything"})
	require.False(t, ok)
}

func TestMatches_TitleRegexCachesCompiledPattern(t *testing.T) {
	m := NewManager(Config{DefaultWorkspaceCount: 1}, []AppRule{{TitleRegex: "^Foo.*$"}})
	require.True(t, m.matches(0, m.rules[0], WindowInfo{Title: "Foobar"}))
	require.True(t, m.matches(0, m.rules[0], WindowInfo{Title: "Foobaz"}))
	require.False(t, m.matches(0, m.rules[0], WindowInfo{Title: "Bar"}))
}

func TestMatches_AppIDIsCaseInsensitive(t *testing.T) {
	m := NewManager(Config{DefaultWorkspaceCount: 1}, []AppRule{{AppID: "com.Example.App"}})
	require.True(t, m.matches(0, m.rules[0], WindowInfo{AppID: "COM.EXAMPLE.APP"}))
	require.True(t, m.matches(0, m.rules[0], WindowInfo{BundleID: "com.example.app"}))
}

func TestMatches_TitleSubstringIsCaseInsensitive(t *testing.T) {
	m := NewManager(Config{DefaultWorkspaceCount: 1}, []AppRule{{TitleSubstring: "settings"}})
	require.True(t, m.matches(0, m.rules[0], WindowInfo{Title: "App SETTINGS Window"}))
}

func TestMatches_TitleRegexIsCaseInsensitive(t *testing.T) {
	m := NewManager(Config{DefaultWorkspaceCount: 1}, []AppRule{{TitleRegex: "^foo.*$"}})
	require.True(t, m.matches(0, m.rules[0], WindowInfo{Title: "FOOBAR"}))
}

func TestWorkspaceTarget_String(t *testing.T) {
	idx := 2
	require.Equal(t, "#2", WorkspaceTarget{Index: &idx}.String())
	require.Equal(t, "main", WorkspaceTarget{Name: "main"}.String())
}
