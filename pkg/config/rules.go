package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

type rulesFile struct {
	Rules []rawRule `yaml:"rules"`
}

// rawRule keeps Enabled a pointer so an absent key defaults to true.
type rawRule struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	PatternType string   `yaml:"pattern_type"`
	Pattern     string   `yaml:"pattern"`
	Actions     []string `yaml:"actions"`
	Enabled     *bool    `yaml:"enabled"`
}

// LoadRules reads alert rules from a YAML file keyed by `rules`. An empty
// path means no rules are configured; a configured path pointing at a
// missing file logs a warning and yields zero rules. Malformed YAML and
// invalid rules are errors: a bad ruleset should stop the daemon at startup
// rather than silently match nothing.
func LoadRules(path string) ([]*models.AlertRule, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Rules file not found, continuing without rules", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	rules := make([]*models.AlertRule, 0, len(file.Rules))
	seen := make(map[string]bool, len(file.Rules))
	for i, raw := range file.Rules {
		rule, err := buildRule(raw)
		if err != nil {
			return nil, fmt.Errorf("rules file %s, rule %d: %w", path, i+1, err)
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("rules file %s: duplicate rule id %q", path, rule.ID)
		}
		seen[rule.ID] = true
		rules = append(rules, rule)
	}

	logger.Info("Loaded alert rules", "path", path, "rules", len(rules))
	return rules, nil
}

func buildRule(raw rawRule) (*models.AlertRule, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	patternType, err := models.ParsePatternType(raw.PatternType)
	if err != nil {
		return nil, err
	}

	// Actions form an ordered, duplicate-free set.
	actions := make([]models.ActionType, 0, len(raw.Actions))
	seen := make(map[models.ActionType]bool, len(raw.Actions))
	for _, a := range raw.Actions {
		action, err := models.ParseActionType(a)
		if err != nil {
			return nil, err
		}
		if seen[action] {
			continue
		}
		seen[action] = true
		actions = append(actions, action)
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("at least one action is required")
	}

	rule := &models.AlertRule{
		ID:          raw.ID,
		Name:        raw.Name,
		PatternType: patternType,
		Pattern:     raw.Pattern,
		Actions:     actions,
		Enabled:     raw.Enabled == nil || *raw.Enabled,
	}
	if err := rule.Compile(); err != nil {
		return nil, err
	}
	return rule, nil
}
