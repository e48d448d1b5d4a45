package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"standcheck/internal/policy"
)

// RenderJSON renders a report as a single indented JSON document. Field order
// is fixed by the Report struct, so the same Report always renders to
// byte-identical output.
func RenderJSON(rep *policy.Report) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

var operatorSymbols = map[policy.Operator]string{
	policy.OpLT:    "<",
	policy.OpLTE:   "<=",
	policy.OpGT:    ">",
	policy.OpGTE:   ">=",
	policy.OpEQ:    "==",
	policy.OpInSet: "in",
}

// WantDescription renders a rule's comparison in display form, e.g. "< 50".
func WantDescription(rule policy.Rule) string {
	sym, ok := operatorSymbols[rule.Operator]
	if !ok {
		sym = string(rule.Operator)
	}
	return sym + " " + rule.Threshold.String()
}

var outcomeLabels = map[policy.Outcome]string{
	policy.OutcomePass:         "PASS",
	policy.OutcomeFail:         "FAIL",
	policy.OutcomeWarn:         "WARN",
	policy.OutcomeNotEvaluated: "SKIP",
}

func outcomeLabel(o policy.Outcome) string {
	if label, ok := outcomeLabels[o]; ok {
		return label
	}
	return strings.ToUpper(string(o))
}

func outcomeColor(o policy.Outcome) *color.Color {
	switch o {
	case policy.OutcomePass:
		return color.New(color.FgGreen)
	case policy.OutcomeFail:
		return color.New(color.FgRed, color.Bold)
	case policy.OutcomeWarn:
		return color.New(color.FgYellow)
	}
	return color.New(color.Faint)
}

// RenderHuman renders a report for people: blocking failures first, then
// every rule grouped by category, then a summary line.
func RenderHuman(rep *policy.Report) string {
	var b strings.Builder
	bold := color.New(color.Bold)

	var blocking []policy.RuleResult
	for _, res := range rep.Results {
		if res.Outcome == policy.OutcomeFail && res.Rule.Severity.Blocking() {
			blocking = append(blocking, res)
		}
	}
	if len(blocking) > 0 {
		bold.Fprintln(&b, "Blocking failures")
		for _, res := range blocking {
			writeResultLine(&b, res)
		}
		fmt.Fprintln(&b)
	}

	for _, cat := range policy.Categories {
		var inCategory []policy.RuleResult
		for _, res := range rep.Results {
			if res.Rule.Category == cat {
				inCategory = append(inCategory, res)
			}
		}
		if len(inCategory) == 0 {
			continue
		}
		bold.Fprintln(&b, strings.ToUpper(string(cat)))
		for _, res := range inCategory {
			writeResultLine(&b, res)
		}
		fmt.Fprintln(&b)
	}

	s := rep.Summary
	fmt.Fprintf(&b, "%d rules: %d pass, %d fail, %d warn, %d not evaluated\n",
		s.Rules, s.Pass, s.Fail, s.Warn, s.NotEvaluated)
	return b.String()
}

func writeResultLine(b *strings.Builder, res policy.RuleResult) {
	label := outcomeColor(res.Outcome).Sprintf("[%s]", outcomeLabel(res.Outcome))
	fmt.Fprintf(b, "  %s %s", label, res.Rule.ID)
	if res.Outcome == policy.OutcomePass {
		if res.Evidence != nil {
			fmt.Fprintf(b, " (%s = %s)", res.Rule.MetricKey, res.Evidence.Value.String())
		}
		fmt.Fprintln(b)
		return
	}
	if res.Outcome == policy.OutcomeFail || res.Outcome == policy.OutcomeWarn {
		fmt.Fprintf(b, " [%s]", res.Rule.Severity)
	}
	if res.Reason != "" {
		fmt.Fprintf(b, ": %s", res.Reason)
	}
	fmt.Fprintln(b)
}
