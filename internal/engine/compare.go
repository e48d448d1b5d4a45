package engine

import (
	"fmt"

	"standcheck/internal/evidence"
	"standcheck/internal/policy"
)

// TypeMismatchError reports an observed value whose type does not fit the
// rule's operator (e.g. a string observation for a numeric comparison). It is
// per-rule and non-fatal: the rule's result becomes a fail with this error as
// the reason, so a misconfigured rule never silently passes.
type TypeMismatchError struct {
	RuleID    string
	MetricKey string
	Operator  policy.Operator
	Observed  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("rule %s: operator %s needs a compatible value for %s, observed %q",
		e.RuleID, e.Operator, e.MetricKey, e.Observed)
}

// compare applies a rule's operator to the observed value. The threshold side
// is already shape-checked at catalog load; only the observed side can
// mismatch here.
func compare(rule policy.Rule, observed evidence.Value) (bool, error) {
	mismatch := func() error {
		return &TypeMismatchError{
			RuleID:    rule.ID,
			MetricKey: rule.MetricKey,
			Operator:  rule.Operator,
			Observed:  observed.String(),
		}
	}

	switch rule.Operator {
	case policy.OpLT, policy.OpLTE, policy.OpGT, policy.OpGTE:
		if !observed.IsNumber() {
			return false, mismatch()
		}
		got, want := observed.Number(), *rule.Threshold.Number
		switch rule.Operator {
		case policy.OpLT:
			return got < want, nil
		case policy.OpLTE:
			return got <= want, nil
		case policy.OpGT:
			return got > want, nil
		default:
			return got >= want, nil
		}

	case policy.OpEQ:
		// Exact equality: numeric tolerance is zero, strings match exactly.
		if rule.Threshold.Number != nil {
			if !observed.IsNumber() {
				return false, mismatch()
			}
			return observed.Number() == *rule.Threshold.Number, nil
		}
		if observed.IsNumber() {
			return false, mismatch()
		}
		return observed.String() == *rule.Threshold.Text, nil

	case policy.OpInSet:
		got := observed.String()
		for _, member := range rule.Threshold.Set {
			if got == member {
				return true, nil
			}
		}
		return false, nil
	}

	return false, fmt.Errorf("rule %s: unknown operator %q", rule.ID, rule.Operator)
}
