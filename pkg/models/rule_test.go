package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleCompile(t *testing.T) {
	valid := AlertRule{ID: "r1", Name: "link-flap", PatternType: PatternRegex, Pattern: `interface \S+ (up|down)`, Actions: []ActionType{ActionStore}, Enabled: true}
	assert.NoError(t, valid.Compile())

	invalid := AlertRule{ID: "r2", Name: "broken", PatternType: PatternRegex, Pattern: `([unterminated`, Actions: []ActionType{ActionStore}, Enabled: true}
	err := invalid.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid regex")
	assert.Contains(t, err.Error(), "r2")

	// Non-regex rules never fail to compile, even with odd patterns.
	keyword := AlertRule{ID: "r3", Name: "kw", PatternType: PatternKeyword, Pattern: `([unterminated`, Enabled: true}
	assert.NoError(t, keyword.Compile())
}

func TestRuleMatches(t *testing.T) {
	tests := []struct {
		name    string
		rule    AlertRule
		payload string
		want    bool
	}{
		{
			name:    "regex match",
			rule:    AlertRule{ID: "r", PatternType: PatternRegex, Pattern: `failed password for \w+`, Enabled: true},
			payload: "Failed password for root from 10.0.0.9",
			want:    true,
		},
		{
			name:    "regex case-insensitive",
			rule:    AlertRule{ID: "r", PatternType: PatternRegex, Pattern: `LINK-3-UPDOWN`, Enabled: true},
			payload: "%link-3-updown: Interface Gi0/1, changed state to down",
			want:    true,
		},
		{
			name:    "regex searches anywhere",
			rule:    AlertRule{ID: "r", PatternType: PatternRegex, Pattern: `auth.*failure`, Enabled: true},
			payload: "pam_unix: authentication failure; user=admin",
			want:    true,
		},
		{
			name:    "keyword substring ignores case",
			rule:    AlertRule{ID: "k", PatternType: PatternKeyword, Pattern: "ERROR", Enabled: true},
			payload: "disk error detected on sda",
			want:    true,
		},
		{
			name:    "keyword absent",
			rule:    AlertRule{ID: "k", PatternType: PatternKeyword, Pattern: "timeout", Enabled: true},
			payload: "all systems nominal",
			want:    false,
		},
		{
			name:    "exact match is case-sensitive",
			rule:    AlertRule{ID: "e", PatternType: PatternExact, Pattern: "System Rebooted", Enabled: true},
			payload: "system rebooted",
			want:    false,
		},
		{
			name:    "exact full string equality",
			rule:    AlertRule{ID: "e", PatternType: PatternExact, Pattern: "system rebooted", Enabled: true},
			payload: "system rebooted",
			want:    true,
		},
		{
			name:    "exact rejects substring",
			rule:    AlertRule{ID: "e", PatternType: PatternExact, Pattern: "system rebooted", Enabled: true},
			payload: "system rebooted unexpectedly",
			want:    false,
		},
		{
			name:    "disabled rule never matches",
			rule:    AlertRule{ID: "d", PatternType: PatternKeyword, Pattern: "error", Enabled: false},
			payload: "error",
			want:    false,
		},
		{
			name:    "empty pattern never matches",
			rule:    AlertRule{ID: "p", PatternType: PatternKeyword, Pattern: "", Enabled: true},
			payload: "anything",
			want:    false,
		},
		{
			name:    "unknown pattern type never matches",
			rule:    AlertRule{ID: "u", PatternType: "glob", Pattern: "*", Enabled: true},
			payload: "anything",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.rule.Compile())
			assert.Equal(t, tt.want, tt.rule.Matches(tt.payload))
		})
	}
}

func TestRuleHasAction(t *testing.T) {
	r := AlertRule{ID: "r", Actions: []ActionType{ActionStore, ActionWebhook}}
	assert.True(t, r.HasAction(ActionStore))
	assert.True(t, r.HasAction(ActionWebhook))
	assert.False(t, r.HasAction(ActionDiscard))
}

func TestParsePatternType(t *testing.T) {
	for _, s := range []string{"regex", "REGEX", " Keyword ", "exact"} {
		_, err := ParsePatternType(s)
		assert.NoError(t, err, s)
	}
	_, err := ParsePatternType("glob")
	assert.Error(t, err)
}

func TestParseActionType(t *testing.T) {
	for _, s := range []string{"store", "DISCARD", " webhook "} {
		_, err := ParseActionType(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseActionType("forward")
	assert.Error(t, err)
}
