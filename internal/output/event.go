package output

import "standcheck/internal/policy"

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - rule.result
// - run.finished
//
// Aggregate sinks (human console, JSON document) pick the final Report off
// the run.finished event instead.
type Event struct {
	Type string `json:"type"`
	*policy.RuleResult
	Rules      int      `json:"rules,omitempty"`
	Collectors []string `json:"collectors,omitempty"`
	RunID      string   `json:"run_id,omitempty"`
	ExitCode   int      `json:"exit_code,omitempty"`

	// Report rides along on run.finished for aggregate sinks; it is not part
	// of the streamed event shape.
	Report *policy.Report `json:"-"`
}

func eventFromResult(r policy.RuleResult) Event {
	return Event{Type: "rule.result", RuleResult: &r}
}
