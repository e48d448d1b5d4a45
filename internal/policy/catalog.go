package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is a loaded, validated rule set. It is read-only after Load/Parse;
// rules are kept in file order.
type Catalog struct {
	rules []Rule
	byID  map[string]Rule
}

type catalogFile struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads and parses a catalog file. The file is YAML; JSON documents also
// parse since YAML is a superset.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a Catalog from raw bytes. It fails with MalformedRuleError for
// invalid entries and DuplicateRuleIDError for repeated ids. Pure parse: no
// side effects.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &MalformedRuleError{Reason: err.Error()}
	}
	if len(file.Rules) == 0 {
		return nil, &MalformedRuleError{Reason: "catalog contains no rules"}
	}

	byID := make(map[string]Rule, len(file.Rules))
	for i, r := range file.Rules {
		if err := r.Validate(); err != nil {
			return nil, &MalformedRuleError{RuleID: r.ID, Index: i, Reason: err.Error()}
		}
		if _, exists := byID[r.ID]; exists {
			return nil, &DuplicateRuleIDError{ID: r.ID}
		}
		byID[r.ID] = r
	}

	return &Catalog{rules: file.Rules, byID: byID}, nil
}

// Rules returns the catalog's rules in file order. The returned slice is a
// copy; mutating it does not affect the catalog.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Rule looks up a rule by id.
func (c *Catalog) Rule(id string) (Rule, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Len returns the number of rules in the catalog.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// MetricKeys returns the distinct metric keys referenced by the catalog, in
// first-appearance order.
func (c *Catalog) MetricKeys() []string {
	seen := make(map[string]struct{}, len(c.rules))
	var keys []string
	for _, r := range c.rules {
		if _, ok := seen[r.MetricKey]; ok {
			continue
		}
		seen[r.MetricKey] = struct{}{}
		keys = append(keys, r.MetricKey)
	}
	return keys
}

// Marshal serializes the catalog back to YAML. Reloading the output yields an
// identical rule set (round-trip property).
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(catalogFile{Rules: c.rules})
}
