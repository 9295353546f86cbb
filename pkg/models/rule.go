package models

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternType selects how a rule pattern is compared against payloads.
type PatternType string

const (
	PatternRegex   PatternType = "regex"
	PatternKeyword PatternType = "keyword"
	PatternExact   PatternType = "exact"
)

// ActionType selects what happens to a message once a rule matches.
type ActionType string

const (
	ActionStore   ActionType = "store"
	ActionDiscard ActionType = "discard"
	ActionWebhook ActionType = "webhook"
)

// ParsePatternType maps a rule file value to a PatternType.
func ParsePatternType(s string) (PatternType, error) {
	switch PatternType(strings.ToLower(strings.TrimSpace(s))) {
	case PatternRegex:
		return PatternRegex, nil
	case PatternKeyword:
		return PatternKeyword, nil
	case PatternExact:
		return PatternExact, nil
	default:
		return "", fmt.Errorf("unknown pattern type %q", s)
	}
}

// ParseActionType maps a rule file value to an ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(strings.ToLower(strings.TrimSpace(s))) {
	case ActionStore:
		return ActionStore, nil
	case ActionDiscard:
		return ActionDiscard, nil
	case ActionWebhook:
		return ActionWebhook, nil
	default:
		return "", fmt.Errorf("unknown action type %q", s)
	}
}

// AlertRule classifies messages by payload content. Rules are immutable
// after loading. Actions is an ordered, duplicate-free set.
type AlertRule struct {
	ID          string
	Name        string
	PatternType PatternType
	Pattern     string
	Actions     []ActionType
	Enabled     bool

	compiled *regexp.Regexp
}

// Compile precompiles regex patterns case-insensitively. It must be called
// once after loading and before Matches. Non-regex rules compile trivially.
func (r *AlertRule) Compile() error {
	if r.PatternType != PatternRegex || r.Pattern == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + r.Pattern)
	if err != nil {
		return fmt.Errorf("rule %q: invalid regex: %w", r.ID, err)
	}
	r.compiled = re
	return nil
}

// Matches reports whether the payload satisfies the rule pattern.
// Disabled and empty-pattern rules never match. REGEX searches
// case-insensitively, KEYWORD is a case-insensitive substring test, EXACT
// is case-sensitive full-string equality.
func (r *AlertRule) Matches(payload string) bool {
	if !r.Enabled || r.Pattern == "" {
		return false
	}
	switch r.PatternType {
	case PatternRegex:
		if r.compiled == nil {
			return false
		}
		return r.compiled.MatchString(payload)
	case PatternKeyword:
		return strings.Contains(strings.ToLower(payload), strings.ToLower(r.Pattern))
	case PatternExact:
		return payload == r.Pattern
	default:
		return false
	}
}

// HasAction reports whether the rule requests the given action.
func (r *AlertRule) HasAction(action ActionType) bool {
	for _, a := range r.Actions {
		if a == action {
			return true
		}
	}
	return false
}
