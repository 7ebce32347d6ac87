// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: vwm/rules.go
// Summary: App-rule matching, scoring, and tie-break for window-to-
// workspace assignment.

package vwm

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
)

// WindowInfo is the subset of window metadata app rules match against.
type WindowInfo struct {
	AppID    string
	AppName  string
	BundleID string
	Title    string
	AxRole   string
	AxSubrole string
}

// WorkspaceTarget names a workspace either by zero-based index or by name;
// exactly one should be set.
type WorkspaceTarget struct {
	Index *int
	Name  string
}

// AppRule is one entry of the app_rules configuration list. A field left
// empty/nil is not a matching criterion.
type AppRule struct {
	AppID          string
	AppNameSubstr  string
	TitleRegex     string
	TitleSubstring string
	AxRole         string
	AxSubrole      string

	Workspace *WorkspaceTarget
	Floating  *bool
	Manage    *bool
}

func (r AppRule) criteriaCount() int {
	n := 0
	if r.AppID != "" {
		n++
	}
	if r.AppNameSubstr != "" {
		n++
	}
	if r.TitleRegex != "" {
		n++
	}
	if r.TitleSubstring != "" {
		n++
	}
	if r.AxRole != "" {
		n++
	}
	if r.AxSubrole != "" {
		n++
	}
	return n
}

// matches reports whether every criterion r specifies holds for w. A rule
// with zero criteria never matches (it would match everything).
func (m *Manager) matches(ruleIdx int, r AppRule, w WindowInfo) bool {
	if r.criteriaCount() == 0 {
		return false
	}
	if r.AppID != "" && !strings.EqualFold(r.AppID, w.AppID) && !strings.EqualFold(r.AppID, w.BundleID) {
		return false
	}
	if r.AppNameSubstr != "" && !strings.Contains(strings.ToLower(w.AppName), strings.ToLower(r.AppNameSubstr)) {
		return false
	}
	if r.AxRole != "" && r.AxRole != w.AxRole {
		return false
	}
	if r.AxSubrole != "" && r.AxSubrole != w.AxSubrole {
		return false
	}
	if r.TitleSubstring != "" && !strings.Contains(strings.ToLower(w.Title), strings.ToLower(r.TitleSubstring)) {
		return false
	}
	if r.TitleRegex != "" {
		re, err := m.compiledTitleRegex(ruleIdx, r.TitleRegex)
		if err != nil {
			log.Printf("vwm: rule %d: invalid title_regex %q: %v", ruleIdx, r.TitleRegex, err)
			return false
		}
		if !re.MatchString(w.Title) {
			return false
		}
	}
	return true
}

// compiledTitleRegex compiles r.TitleRegex lazily and caches it, since
// rules are re-evaluated on every window registration and app rules rarely
// change at runtime. title_regex matches case-insensitively (spec §4.4).
func (m *Manager) compiledTitleRegex(ruleIdx int, pattern string) (*regexp.Regexp, error) {
	key := strconv.Itoa(ruleIdx) + "|" + pattern
	if cached, ok := m.regexCache.Get(key); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	m.regexCache.Set(key, re, 0)
	return re, nil
}

// MatchResult is the outcome of evaluating app rules against a window.
type MatchResult struct {
	Rule      AppRule
	RuleIndex int
	Score     int
}

// BestRule evaluates all configured rules against w and returns the
// winner per the scoring/tie-break policy: score is the number of
// criteria the matched rule specifies; among equal scores, the
// earlier-defined rule wins; rules for the same app_id are grouped and
// only the highest scorer within that group competes against other
// groups' winners.
func (m *Manager) BestRule(w WindowInfo) (MatchResult, bool) {
	type groupBest struct {
		result    MatchResult
		firstSeen int
	}
	bestByAppID := make(map[string]groupBest)
	var ungrouped []MatchResult

	for idx, rule := range m.rules {
		if !m.matches(idx, rule, w) {
			continue
		}
		score := rule.criteriaCount()
		res := MatchResult{Rule: rule, RuleIndex: idx, Score: score}
		if rule.AppID == "" {
			ungrouped = append(ungrouped, res)
			continue
		}
		if cur, ok := bestByAppID[rule.AppID]; !ok || score > cur.result.Score {
			bestByAppID[rule.AppID] = groupBest{result: res, firstSeen: idx}
		}
	}

	var candidates []MatchResult
	for _, g := range bestByAppID {
		candidates = append(candidates, g.result)
	}
	candidates = append(candidates, ungrouped...)
	if len(candidates) == 0 {
		return MatchResult{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score || (c.Score == best.Score && c.RuleIndex < best.RuleIndex) {
			best = c
		}
	}
	return best, true
}

func (t WorkspaceTarget) String() string {
	if t.Index != nil {
		return fmt.Sprintf("#%d", *t.Index)
	}
	return t.Name
}
