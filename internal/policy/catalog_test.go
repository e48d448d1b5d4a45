package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const validCatalog = `
rules:
  - id: max-function-length
    category: quality
    description: Functions stay below the documented line budget.
    metric_key: source.max_function_length
    operator: lte
    threshold: 50
    severity: high
  - id: coverage-floor
    category: testing
    metric_key: testing.coverage_percent
    operator: gte
    threshold: 80
    severity: medium
  - id: log-format
    category: monitoring
    metric_key: logging.format
    operator: in_set
    threshold: [json, logfmt]
    severity: low
  - id: deploy-window
    category: deployment
    metric_key: deployment.window
    operator: eq
    threshold: business-hours
    severity: critical
`

func TestParse_ValidCatalog(t *testing.T) {
	catalog, err := Parse([]byte(validCatalog))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if catalog.Len() != 4 {
		t.Fatalf("want 4 rules, got %d", catalog.Len())
	}

	r, ok := catalog.Rule("max-function-length")
	if !ok {
		t.Fatal("rule max-function-length not found")
	}
	if r.Category != CategoryQuality {
		t.Errorf("want category quality, got %s", r.Category)
	}
	if r.Operator != OpLTE {
		t.Errorf("want operator lte, got %s", r.Operator)
	}
	if r.Threshold.Number == nil || *r.Threshold.Number != 50 {
		t.Errorf("want numeric threshold 50, got %s", r.Threshold)
	}

	set, _ := catalog.Rule("log-format")
	if diff := cmp.Diff([]string{"json", "logfmt"}, set.Threshold.Set); diff != "" {
		t.Errorf("threshold set mismatch (-want +got):\n%s", diff)
	}

	eq, _ := catalog.Rule("deploy-window")
	if eq.Threshold.Text == nil || *eq.Threshold.Text != "business-hours" {
		t.Errorf("want string threshold business-hours, got %s", eq.Threshold)
	}
}

func TestParse_RulesKeepFileOrder(t *testing.T) {
	catalog, err := Parse([]byte(validCatalog))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := []string{"max-function-length", "coverage-floor", "log-format", "deploy-window"}
	var got []string
	for _, r := range catalog.Rules() {
		got = append(got, r.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rule order mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_DuplicateRuleID(t *testing.T) {
	doc := `
rules:
  - id: same-id
    category: quality
    metric_key: a
    operator: lt
    threshold: 1
    severity: low
  - id: same-id
    category: quality
    metric_key: b
    operator: lt
    threshold: 2
    severity: low
`
	_, err := Parse([]byte(doc))
	var dup *DuplicateRuleIDError
	if !errors.As(err, &dup) {
		t.Fatalf("want DuplicateRuleIDError, got %v", err)
	}
	if dup.ID != "same-id" {
		t.Errorf("want duplicated id same-id, got %q", dup.ID)
	}
}

func TestParse_MalformedRules(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing metric_key",
			doc: `
rules:
  - id: r1
    category: quality
    operator: lt
    threshold: 5
    severity: low
`,
		},
		{
			name: "unknown category",
			doc: `
rules:
  - id: r1
    category: vibes
    metric_key: a
    operator: lt
    threshold: 5
    severity: low
`,
		},
		{
			name: "unknown operator",
			doc: `
rules:
  - id: r1
    category: quality
    metric_key: a
    operator: approx
    threshold: 5
    severity: low
`,
		},
		{
			name: "string threshold for ordered operator",
			doc: `
rules:
  - id: r1
    category: quality
    metric_key: a
    operator: lt
    threshold: fifty
    severity: low
`,
		},
		{
			name: "scalar threshold for in_set",
			doc: `
rules:
  - id: r1
    category: quality
    metric_key: a
    operator: in_set
    threshold: json
    severity: low
`,
		},
		{
			name: "unknown severity",
			doc: `
rules:
  - id: r1
    category: quality
    metric_key: a
    operator: lt
    threshold: 5
    severity: urgent
`,
		},
		{
			name: "empty catalog",
			doc:  `rules: []`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			var malformed *MalformedRuleError
			if !errors.As(err, &malformed) {
				t.Fatalf("want MalformedRuleError, got %v", err)
			}
		})
	}
}

func TestParse_MalformedRuleNamesOffender(t *testing.T) {
	doc := `
rules:
  - id: fine
    category: quality
    metric_key: a
    operator: lt
    threshold: 5
    severity: low
  - id: broken
    category: quality
    metric_key: b
    operator: lt
    threshold: nope
    severity: low
`
	_, err := Parse([]byte(doc))
	var malformed *MalformedRuleError
	if !errors.As(err, &malformed) {
		t.Fatalf("want MalformedRuleError, got %v", err)
	}
	if malformed.RuleID != "broken" {
		t.Errorf("want offending rule id broken, got %q", malformed.RuleID)
	}
}

func TestCatalog_RoundTrip(t *testing.T) {
	catalog, err := Parse([]byte(validCatalog))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	data, err := catalog.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	reloaded, err := Parse(data)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}

	if diff := cmp.Diff(catalog.Rules(), reloaded.Rules()); diff != "" {
		t.Errorf("round-trip mismatch (-orig +reloaded):\n%s", diff)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standards.yaml")
	if err := os.WriteFile(path, []byte(validCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if catalog.Len() != 4 {
		t.Errorf("want 4 rules, got %d", catalog.Len())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("want error for missing catalog file")
	}
}

func TestCatalog_MetricKeysDedupedInOrder(t *testing.T) {
	doc := `
rules:
  - id: r1
    category: quality
    metric_key: shared.metric
    operator: lt
    threshold: 5
    severity: low
  - id: r2
    category: quality
    metric_key: other.metric
    operator: lt
    threshold: 5
    severity: low
  - id: r3
    category: quality
    metric_key: shared.metric
    operator: lt
    threshold: 9
    severity: low
`
	catalog, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := []string{"shared.metric", "other.metric"}
	if diff := cmp.Diff(want, catalog.MetricKeys()); diff != "" {
		t.Errorf("metric keys mismatch (-want +got):\n%s", diff)
	}
}
