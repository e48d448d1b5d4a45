package engine

import (
	"errors"
	"testing"

	"standcheck/internal/evidence"
	"standcheck/internal/policy"
)

func numericRule(op policy.Operator, threshold float64, sev policy.Severity) policy.Rule {
	return policy.Rule{
		ID:        "test-rule",
		Category:  policy.CategoryQuality,
		MetricKey: "test.metric",
		Operator:  op,
		Threshold: policy.NumberThreshold(threshold),
		Severity:  sev,
	}
}

func TestCompare_OrderedOperators(t *testing.T) {
	tests := []struct {
		name      string
		op        policy.Operator
		threshold float64
		observed  float64
		want      bool
	}{
		{"lt below", policy.OpLT, 50, 40, true},
		{"lt at boundary", policy.OpLT, 50, 50, false},
		{"lt above", policy.OpLT, 50, 60, false},
		{"lte at boundary", policy.OpLTE, 50, 50, true},
		{"lte above", policy.OpLTE, 50, 50.1, false},
		{"gt above", policy.OpGT, 80, 90, true},
		{"gt at boundary", policy.OpGT, 80, 80, false},
		{"gte at boundary", policy.OpGTE, 80, 80, true},
		{"gte below", policy.OpGTE, 80, 79.9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compare(numericRule(tt.op, tt.threshold, policy.SeverityHigh), evidence.NumberValue(tt.observed))
			if err != nil {
				t.Fatalf("compare error: %v", err)
			}
			if got != tt.want {
				t.Errorf("want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCompare_OrderedOperatorRejectsString(t *testing.T) {
	_, err := compare(numericRule(policy.OpLT, 50, policy.SeverityHigh), evidence.StringValue("fast"))
	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("want TypeMismatchError, got %v", err)
	}
	if mismatch.RuleID != "test-rule" || mismatch.MetricKey != "test.metric" {
		t.Errorf("mismatch error missing identifiers: %+v", mismatch)
	}
}

func TestCompare_Eq(t *testing.T) {
	numRule := numericRule(policy.OpEQ, 3, policy.SeverityLow)

	if ok, err := compare(numRule, evidence.NumberValue(3)); err != nil || !ok {
		t.Errorf("eq 3 == 3: want true, got %v err %v", ok, err)
	}
	// Tolerance is zero.
	if ok, err := compare(numRule, evidence.NumberValue(3.0000001)); err != nil || ok {
		t.Errorf("eq with tolerance: want false, got %v err %v", ok, err)
	}
	if _, err := compare(numRule, evidence.StringValue("3")); err == nil {
		t.Error("eq numeric threshold vs string observation: want type mismatch")
	}

	strRule := policy.Rule{
		ID:        "str-rule",
		MetricKey: "test.metric",
		Operator:  policy.OpEQ,
		Threshold: policy.TextThreshold("business-hours"),
		Severity:  policy.SeverityLow,
	}
	if ok, err := compare(strRule, evidence.StringValue("business-hours")); err != nil || !ok {
		t.Errorf("eq string match: want true, got %v err %v", ok, err)
	}
	if ok, err := compare(strRule, evidence.StringValue("Business-Hours")); err != nil || ok {
		t.Errorf("eq string is exact: want false, got %v err %v", ok, err)
	}
	if _, err := compare(strRule, evidence.NumberValue(7)); err == nil {
		t.Error("eq string threshold vs numeric observation: want type mismatch")
	}
}

func TestCompare_InSet(t *testing.T) {
	rule := policy.Rule{
		ID:        "set-rule",
		MetricKey: "logging.format",
		Operator:  policy.OpInSet,
		Threshold: policy.SetThreshold("json", "logfmt"),
		Severity:  policy.SeverityLow,
	}

	if ok, err := compare(rule, evidence.StringValue("json")); err != nil || !ok {
		t.Errorf("member: want true, got %v err %v", ok, err)
	}
	if ok, err := compare(rule, evidence.StringValue("plain")); err != nil || ok {
		t.Errorf("non-member: want false, got %v err %v", ok, err)
	}
}

func TestCompare_InSetNumericObservation(t *testing.T) {
	rule := policy.Rule{
		ID:        "set-rule",
		MetricKey: "deployment.replicas",
		Operator:  policy.OpInSet,
		Threshold: policy.SetThreshold("2", "3", "5"),
		Severity:  policy.SeverityLow,
	}
	// Numbers compare via their canonical display form.
	if ok, err := compare(rule, evidence.NumberValue(3)); err != nil || !ok {
		t.Errorf("numeric member: want true, got %v err %v", ok, err)
	}
	if ok, err := compare(rule, evidence.NumberValue(4)); err != nil || ok {
		t.Errorf("numeric non-member: want false, got %v err %v", ok, err)
	}
}
