package policy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category classifies which part of the standards document a rule enforces.
type Category string

const (
	CategoryQuality          Category = "quality"
	CategorySecurity         Category = "security"
	CategoryPerformance      Category = "performance"
	CategoryTesting          Category = "testing"
	CategoryDeployment       Category = "deployment"
	CategoryMonitoring       Category = "monitoring"
	CategoryIncidentResponse Category = "incident_response"
	CategoryCapacity         Category = "capacity"
)

// Categories lists all valid categories in presentation order.
var Categories = []Category{
	CategoryQuality,
	CategorySecurity,
	CategoryPerformance,
	CategoryTesting,
	CategoryDeployment,
	CategoryMonitoring,
	CategoryIncidentResponse,
	CategoryCapacity,
}

// Operator is the comparison applied between an observed value and a threshold.
type Operator string

const (
	OpLT    Operator = "lt"
	OpLTE   Operator = "lte"
	OpGT    Operator = "gt"
	OpGTE   Operator = "gte"
	OpEQ    Operator = "eq"
	OpInSet Operator = "in_set"
)

// Ordered reports whether the operator requires numeric comparison.
func (o Operator) Ordered() bool {
	switch o {
	case OpLT, OpLTE, OpGT, OpGTE:
		return true
	}
	return false
}

// Severity tiers follow the document's P1-P4 convention: critical and high
// block (fail), medium and low advise (warn).
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Blocking reports whether a failed comparison at this severity should be a
// FAIL rather than a WARN.
func (s Severity) Blocking() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// Threshold is a tagged value: exactly one of Number, Text, or Set is
// populated, and which one is allowed depends on the rule's operator.
type Threshold struct {
	Number *float64
	Text   *string
	Set    []string
}

// NumberThreshold returns a numeric threshold.
func NumberThreshold(n float64) Threshold {
	return Threshold{Number: &n}
}

// TextThreshold returns a string threshold.
func TextThreshold(s string) Threshold {
	return Threshold{Text: &s}
}

// SetThreshold returns a set-membership threshold.
func SetThreshold(members ...string) Threshold {
	return Threshold{Set: members}
}

func (t Threshold) String() string {
	switch {
	case t.Number != nil:
		return strconv.FormatFloat(*t.Number, 'f', -1, 64)
	case t.Text != nil:
		return *t.Text
	case t.Set != nil:
		return "[" + strings.Join(t.Set, ", ") + "]"
	}
	return "<empty>"
}

func (t *Threshold) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!int", "!!float":
			n, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				return fmt.Errorf("invalid numeric threshold %q: %w", node.Value, err)
			}
			t.Number = &n
			return nil
		case "!!str":
			s := node.Value
			t.Text = &s
			return nil
		default:
			return fmt.Errorf("unsupported threshold scalar type %s", node.Tag)
		}
	case yaml.SequenceNode:
		var members []string
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("threshold set members must be scalars")
			}
			members = append(members, item.Value)
		}
		t.Set = members
		return nil
	}
	return fmt.Errorf("threshold must be a number, a string, or a list")
}

func (t Threshold) MarshalYAML() (any, error) {
	switch {
	case t.Number != nil:
		return *t.Number, nil
	case t.Text != nil:
		return *t.Text, nil
	case t.Set != nil:
		return t.Set, nil
	}
	return nil, fmt.Errorf("empty threshold")
}

func (t Threshold) MarshalJSON() ([]byte, error) {
	switch {
	case t.Number != nil:
		return json.Marshal(*t.Number)
	case t.Text != nil:
		return json.Marshal(*t.Text)
	case t.Set != nil:
		return json.Marshal(t.Set)
	}
	return nil, fmt.Errorf("empty threshold")
}

// Rule is one entry of the conformance catalog: a metric, a comparison, and a
// severity tier.
type Rule struct {
	ID          string    `yaml:"id" json:"id"`
	Category    Category  `yaml:"category" json:"category"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	MetricKey   string    `yaml:"metric_key" json:"metric_key"`
	Operator    Operator  `yaml:"operator" json:"operator"`
	Threshold   Threshold `yaml:"threshold" json:"threshold"`
	Severity    Severity  `yaml:"severity" json:"severity"`
}

// Validate checks required fields, enum membership, and that the threshold
// type matches the operator's domain.
func (r Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("missing id")
	}
	if !validCategory(r.Category) {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	if r.MetricKey == "" {
		return fmt.Errorf("missing metric_key")
	}
	if !validSeverity(r.Severity) {
		return fmt.Errorf("unknown severity %q", r.Severity)
	}
	switch r.Operator {
	case OpLT, OpLTE, OpGT, OpGTE:
		if r.Threshold.Number == nil {
			return fmt.Errorf("operator %s requires a numeric threshold, got %s", r.Operator, r.Threshold)
		}
	case OpEQ:
		if r.Threshold.Number == nil && r.Threshold.Text == nil {
			return fmt.Errorf("operator eq requires a number or string threshold, got %s", r.Threshold)
		}
	case OpInSet:
		if len(r.Threshold.Set) == 0 {
			return fmt.Errorf("operator in_set requires a non-empty threshold set")
		}
	case "":
		return fmt.Errorf("missing operator")
	default:
		return fmt.Errorf("unknown operator %q", r.Operator)
	}
	return nil
}

func validCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func validSeverity(s Severity) bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}
