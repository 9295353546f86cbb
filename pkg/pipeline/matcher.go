package pipeline

import "github.com/mutt-telemetry/mutt/pkg/models"

// PatternMatcher evaluates an immutable rule list against message
// payloads. The list is fixed at construction; changing rules means
// building a new matcher, which keeps matching lock-free.
type PatternMatcher struct {
	rules []*models.AlertRule
}

// NewPatternMatcher returns a matcher over rules. The slice is used as
// given and must not be mutated afterwards.
func NewPatternMatcher(rules []*models.AlertRule) *PatternMatcher {
	return &PatternMatcher{rules: rules}
}

// Match returns the enabled rules whose pattern matches the message
// payload, preserving rule order. No match yields an empty result, which
// is not an error.
func (p *PatternMatcher) Match(msg *models.Message) []*models.AlertRule {
	var matched []*models.AlertRule
	for _, rule := range p.rules {
		if rule.Matches(msg.Payload) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// Rules returns the rule list the matcher was built with.
func (p *PatternMatcher) Rules() []*models.AlertRule {
	return p.rules
}
