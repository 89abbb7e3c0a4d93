package harness

import (
	"fmt"
	"strings"

	"github.com/inv-mschultz/edgy-sub001/internal/analysis"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/textmatch"
)

// AssertionError is returned when an assertion fails.
// It includes the report's findings to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Findings []ir.Finding // All findings of the run
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Findings) > 0 {
		fmt.Fprintf(&buf, "\nFindings:\n")
		for i, f := range e.Findings {
			screen := ""
			if f.Ref != nil {
				screen = f.Ref.ScreenName
			}
			fmt.Fprintf(&buf, "  [%d] %s %s on %s: %s\n", i+1, f.Severity, f.RuleID, screen, f.Title)
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the report.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(report *analysis.Report, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFindingCount:
			err = assertFindingCount(report, assertion)
		case AssertFindingPresent:
			err = assertFindingPresent(report, assertion)
		case AssertNoFindings:
			err = assertNoFindings(report, assertion)
		case AssertMissingScreen:
			err = assertMissingScreen(report, assertion)
		case AssertMissingScreenCount:
			err = assertMissingScreenCount(report, assertion)
		case AssertPatternDetected:
			err = assertPatternDetected(report, assertion)
		case AssertFlowDetected:
			err = assertFlowDetected(report, assertion)
		case AssertWarningCount:
			err = assertWarningCount(report, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// matchesFinding applies the finding filters of a.
func matchesFinding(f ir.Finding, a Assertion) bool {
	if a.Rule != "" && f.RuleID != a.Rule {
		return false
	}
	if a.Category != "" && !textmatch.ContainsFold(f.Category, a.Category) {
		return false
	}
	if a.Severity != "" && string(f.Severity) != a.Severity {
		return false
	}
	if a.Screen != "" {
		if f.Ref == nil || (f.Ref.ScreenID != a.Screen && f.Ref.ScreenName != a.Screen) {
			return false
		}
	}
	return true
}

func matchingFindings(report *analysis.Report, a Assertion) []ir.Finding {
	var out []ir.Finding
	for _, f := range report.Findings {
		if matchesFinding(f, a) {
			out = append(out, f)
		}
	}
	return out
}

// describeFilter renders the finding filters for error messages.
func describeFilter(a Assertion) string {
	var parts []string
	if a.Rule != "" {
		parts = append(parts, "rule="+a.Rule)
	}
	if a.Category != "" {
		parts = append(parts, "category~"+a.Category)
	}
	if a.Screen != "" {
		parts = append(parts, "screen="+a.Screen)
	}
	if a.Severity != "" {
		parts = append(parts, "severity="+a.Severity)
	}
	if len(parts) == 0 {
		return "any finding"
	}
	return "findings with " + strings.Join(parts, ", ")
}

func assertFindingCount(report *analysis.Report, a Assertion) error {
	got := len(matchingFindings(report, a))
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFindingCount,
		Expected: fmt.Sprintf("%d %s", *a.Count, describeFilter(a)),
		Actual:   fmt.Sprintf("%d", got),
		Findings: report.Findings,
	}
}

func assertFindingPresent(report *analysis.Report, a Assertion) error {
	if len(matchingFindings(report, a)) > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFindingPresent,
		Expected: "at least one of " + describeFilter(a),
		Actual:   "none found",
		Findings: report.Findings,
	}
}

func assertNoFindings(report *analysis.Report, a Assertion) error {
	matched := matchingFindings(report, a)
	if len(matched) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoFindings,
		Expected: "no " + describeFilter(a),
		Actual:   fmt.Sprintf("%d found, first %q", len(matched), matched[0].Title),
		Findings: report.Findings,
	}
}

func assertMissingScreen(report *analysis.Report, a Assertion) error {
	var reported []string
	for _, m := range report.MissingScreens {
		if a.FlowType != "" && m.FlowType != a.FlowType {
			continue
		}
		if m.ScreenID == a.ExpectedScreen {
			return nil
		}
		reported = append(reported, m.ScreenID)
	}
	return &AssertionError{
		Type:     AssertMissingScreen,
		Expected: fmt.Sprintf("missing screen %q %s", a.ExpectedScreen, flowScope(a.FlowType)),
		Actual:   fmt.Sprintf("missing screens %v", reported),
		Findings: report.Findings,
	}
}

func assertMissingScreenCount(report *analysis.Report, a Assertion) error {
	got := 0
	for _, m := range report.MissingScreens {
		if a.FlowType == "" || m.FlowType == a.FlowType {
			got++
		}
	}
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertMissingScreenCount,
		Expected: fmt.Sprintf("%d missing screens %s", *a.Count, flowScope(a.FlowType)),
		Actual:   fmt.Sprintf("%d", got),
		Findings: report.Findings,
	}
}

func flowScope(flowType string) string {
	if flowType == "" {
		return "in any flow"
	}
	return "in flow " + flowType
}

func assertPatternDetected(report *analysis.Report, a Assertion) error {
	want := a.Min
	if want == 0 {
		want = 1
	}
	for _, s := range report.Screens {
		if s.ID != a.Screen && s.Name != a.Screen {
			continue
		}
		got := 0
		for _, p := range s.Patterns {
			if string(p.Type) == a.Pattern {
				got++
			}
		}
		if got >= want {
			return nil
		}
		return &AssertionError{
			Type:     AssertPatternDetected,
			Expected: fmt.Sprintf("at least %d %s pattern(s) on %s", want, a.Pattern, a.Screen),
			Actual:   fmt.Sprintf("%d", got),
			Findings: report.Findings,
		}
	}
	return &AssertionError{
		Type:     AssertPatternDetected,
		Expected: fmt.Sprintf("screen %s", a.Screen),
		Actual:   "screen not in report",
		Findings: report.Findings,
	}
}

func assertFlowDetected(report *analysis.Report, a Assertion) error {
	var got []string
	for _, d := range report.DetectedFlows {
		if d.FlowType == a.FlowType {
			return nil
		}
		got = append(got, d.FlowType)
	}
	return &AssertionError{
		Type:     AssertFlowDetected,
		Expected: "flow type " + a.FlowType,
		Actual:   fmt.Sprintf("detected %v", got),
		Findings: report.Findings,
	}
}

func assertWarningCount(report *analysis.Report, a Assertion) error {
	if len(report.Warnings) == *a.Count {
		return nil
	}
	var got []string
	for _, w := range report.Warnings {
		got = append(got, w.Location)
	}
	return &AssertionError{
		Type:     AssertWarningCount,
		Expected: fmt.Sprintf("%d warnings", *a.Count),
		Actual:   fmt.Sprintf("%d at %v", len(report.Warnings), got),
		Findings: report.Findings,
	}
}
