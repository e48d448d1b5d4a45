package policy

import "fmt"

// MalformedRuleError reports a catalog entry that is missing required fields
// or whose threshold type does not match its operator. Catalog load errors
// are fatal: the run aborts before any evaluation.
type MalformedRuleError struct {
	// RuleID is the offending entry's id when one was parsed; otherwise empty
	// and Index identifies the entry by position.
	RuleID string
	Index  int
	Reason string
}

func (e *MalformedRuleError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("malformed rule %q: %s", e.RuleID, e.Reason)
	}
	return fmt.Sprintf("malformed rule at index %d: %s", e.Index, e.Reason)
}

// DuplicateRuleIDError reports two catalog entries sharing an id.
type DuplicateRuleIDError struct {
	ID string
}

func (e *DuplicateRuleIDError) Error() string {
	return fmt.Sprintf("duplicate rule id %q", e.ID)
}
