package policy

import (
	"time"

	"standcheck/internal/evidence"
)

// Outcome is the verdict for one rule.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeWarn Outcome = "warn"
	// OutcomeNotEvaluated means no Evidence exists for the rule's metric key,
	// either because no collector covers it or because collection failed.
	OutcomeNotEvaluated Outcome = "not_evaluated"
)

// RuleResult pairs a rule with the evidence it was judged against.
type RuleResult struct {
	Rule     Rule               `json:"rule"`
	Evidence *evidence.Evidence `json:"evidence,omitempty"`
	Outcome  Outcome            `json:"outcome"`
	// Reason is always populated for non-pass outcomes.
	Reason string `json:"reason,omitempty"`
}

// SeverityCounts holds per-severity counts of non-passing results.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

func (c *SeverityCounts) add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	}
}

// Summary aggregates a run's outcomes.
type Summary struct {
	Rules        int            `json:"rules"`
	Pass         int            `json:"pass"`
	Fail         int            `json:"fail"`
	Warn         int            `json:"warn"`
	NotEvaluated int            `json:"not_evaluated"`
	BySeverity   SeverityCounts `json:"non_pass_by_severity"`
}

// Report is the immutable product of one evaluation run. A new run produces a
// new Report; nothing mutates one after NewReport returns.
type Report struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Results    []RuleResult `json:"results"`
	Summary    Summary      `json:"summary"`
}

// NewReport assembles a Report from ordered results and computes the summary.
func NewReport(runID string, started, finished time.Time, results []RuleResult) *Report {
	rep := &Report{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		Results:    results,
	}
	rep.Summary.Rules = len(results)
	for _, res := range results {
		switch res.Outcome {
		case OutcomePass:
			rep.Summary.Pass++
		case OutcomeFail:
			rep.Summary.Fail++
		case OutcomeWarn:
			rep.Summary.Warn++
		case OutcomeNotEvaluated:
			rep.Summary.NotEvaluated++
		}
		if res.Outcome != OutcomePass {
			rep.Summary.BySeverity.add(res.Rule.Severity)
		}
	}
	return rep
}

// ExitCode maps a report to the gate contract:
//
//	0 = all rules passed or were not evaluated
//	1 = at least one fail at critical/high severity
//	2 = only warns or lower-severity fails
//
// not_evaluated never contributes to 1 or 2 on its own. Fatal errors (catalog
// load, aborted run) use exit code 3 and never reach this mapping.
func (r *Report) ExitCode() int {
	code := 0
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeFail:
			if res.Rule.Severity.Blocking() {
				return 1
			}
			code = 2
		case OutcomeWarn:
			code = 2
		}
	}
	return code
}
