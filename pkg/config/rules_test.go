package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutt-telemetry/mutt/pkg/models"
)

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRules(t *testing.T) {
	path := writeRulesFile(t, `
rules:
  - id: r1
    name: auth failures
    pattern_type: keyword
    pattern: authentication failure
    actions: [store, webhook]
  - id: r2
    name: reboots
    pattern_type: exact
    pattern: system rebooted
    actions: [store]
    enabled: false
  - id: r3
    name: link flaps
    pattern_type: regex
    pattern: 'LINK-\d-UPDOWN'
    actions: [store, store, discard]
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, "r1", rules[0].ID)
	assert.Equal(t, models.PatternKeyword, rules[0].PatternType)
	assert.Equal(t, []models.ActionType{models.ActionStore, models.ActionWebhook}, rules[0].Actions)
	assert.True(t, rules[0].Enabled)

	assert.False(t, rules[1].Enabled)

	// Duplicate actions collapse, order preserved.
	assert.Equal(t, []models.ActionType{models.ActionStore, models.ActionDiscard}, rules[2].Actions)
	assert.True(t, rules[2].Matches("%LINK-3-UPDOWN: interface down"))
}

func TestLoadRulesEmptyPath(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Nil(t, rules)
}

func TestLoadRulesMissingFileWarns(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestLoadRulesErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "malformed yaml",
			content: "rules: [broken\n",
			want:    "failed to parse",
		},
		{
			name: "unknown pattern type",
			content: `
rules:
  - id: r1
    name: bad
    pattern_type: glob
    pattern: "*"
    actions: [store]
`,
			want: "unknown pattern type",
		},
		{
			name: "unknown action",
			content: `
rules:
  - id: r1
    name: bad
    pattern_type: keyword
    pattern: x
    actions: [forward]
`,
			want: "unknown action type",
		},
		{
			name: "missing id",
			content: `
rules:
  - name: bad
    pattern_type: keyword
    pattern: x
    actions: [store]
`,
			want: "id is required",
		},
		{
			name: "no actions",
			content: `
rules:
  - id: r1
    name: bad
    pattern_type: keyword
    pattern: x
    actions: []
`,
			want: "at least one action",
		},
		{
			name: "invalid regex",
			content: `
rules:
  - id: r1
    name: bad
    pattern_type: regex
    pattern: '([unclosed'
    actions: [store]
`,
			want: "invalid regex",
		},
		{
			name: "duplicate rule id",
			content: `
rules:
  - id: r1
    name: a
    pattern_type: keyword
    pattern: x
    actions: [store]
  - id: r1
    name: b
    pattern_type: keyword
    pattern: y
    actions: [store]
`,
			want: "duplicate rule id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRulesFile(t, tt.content)
			_, err := LoadRules(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
