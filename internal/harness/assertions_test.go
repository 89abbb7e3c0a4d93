package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inv-mschultz/edgy-sub001/internal/analysis"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

func intPtr(n int) *int { return &n }

func sampleReport() *analysis.Report {
	return &analysis.Report{
		Screens: []analysis.ScreenResult{
			{ID: "s-login", Name: "Login", Patterns: []ir.DetectedPattern{
				{Type: ir.PatternFormField, ElementID: "email"},
				{Type: ir.PatternFormField, ElementID: "password"},
				{Type: ir.PatternForm, ElementID: "login"},
			}},
			{ID: "s-dashboard", Name: "Dashboard"},
		},
		DetectedFlows: []ir.DetectedFlowType{{FlowType: "authentication", Prefix: "login", Keyword: "login"}},
		Findings: []ir.Finding{
			{ID: "finding-1", RuleID: "form-error-state", Category: "error-state", Severity: ir.SeverityWarning, Title: "No error state",
				Ref: &ir.ElementRef{ScreenID: "s-login", ScreenName: "Login"}},
			{ID: "finding-2", RuleID: "input-validation-state", Category: "error-state", Severity: ir.SeverityInfo, Title: "Input has no error state",
				Ref: &ir.ElementRef{ScreenID: "s-login", ScreenName: "Login"}},
		},
		MissingScreens: []ir.MissingScreenFinding{
			{ID: "missing-screen-1", FlowType: "authentication", ScreenID: "signup"},
			{ID: "missing-screen-2", FlowType: "authentication", ScreenID: "forgot-password"},
		},
		Warnings: []ir.Warning{{Location: "trigger.any_of[0]", Message: "bad"}},
	}
}

func TestEvaluateAssertions_Passing(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertFindingCount, Count: intPtr(2)},
		{Type: AssertFindingCount, Category: "ERROR", Screen: "Login", Count: intPtr(2)},
		{Type: AssertFindingCount, Severity: "critical", Count: intPtr(0)},
		{Type: AssertFindingPresent, Rule: "form-error-state", Screen: "s-login"},
		{Type: AssertNoFindings, Screen: "Dashboard"},
		{Type: AssertMissingScreen, ExpectedScreen: "forgot-password"},
		{Type: AssertMissingScreen, FlowType: "authentication", ExpectedScreen: "signup"},
		{Type: AssertMissingScreenCount, FlowType: "authentication", Count: intPtr(2)},
		{Type: AssertMissingScreenCount, FlowType: "checkout", Count: intPtr(0)},
		{Type: AssertPatternDetected, Screen: "Login", Pattern: "form-field", Min: 2},
		{Type: AssertPatternDetected, Screen: "s-login", Pattern: "form"},
		{Type: AssertFlowDetected, FlowType: "authentication"},
		{Type: AssertWarningCount, Count: intPtr(1)},
	}

	assert.Empty(t, EvaluateAssertions(sampleReport(), assertions))
}

func TestEvaluateAssertions_Failing(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"finding count", Assertion{Type: AssertFindingCount, Rule: "form-error-state", Count: intPtr(3)}, "Assertion failed: finding_count"},
		{"finding present", Assertion{Type: AssertFindingPresent, Category: "empty"}, "none found"},
		{"no findings", Assertion{Type: AssertNoFindings, Screen: "Login"}, `2 found, first "No error state"`},
		{"missing screen", Assertion{Type: AssertMissingScreen, FlowType: "authentication", ExpectedScreen: "login"}, "missing screens [signup forgot-password]"},
		{"missing screen in other flow", Assertion{Type: AssertMissingScreen, FlowType: "checkout", ExpectedScreen: "signup"}, "in flow checkout"},
		{"missing screen count", Assertion{Type: AssertMissingScreenCount, Count: intPtr(1)}, "Assertion failed: missing_screen_count"},
		{"pattern below min", Assertion{Type: AssertPatternDetected, Screen: "Login", Pattern: "form", Min: 2}, "at least 2 form pattern(s) on Login"},
		{"pattern unknown screen", Assertion{Type: AssertPatternDetected, Screen: "Settings", Pattern: "list"}, "screen not in report"},
		{"flow detected", Assertion{Type: AssertFlowDetected, FlowType: "checkout"}, "detected [authentication]"},
		{"warning count", Assertion{Type: AssertWarningCount, Count: intPtr(0)}, "1 at [trigger.any_of[0]]"},
		{"unknown type", Assertion{Type: "trace_count"}, `unknown assertion type "trace_count"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleReport(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionError_ListsFindings(t *testing.T) {
	report := sampleReport()
	err := assertFindingPresent(report, Assertion{Type: AssertFindingPresent, Rule: "destructive-confirmation"})
	require.Error(t, err)

	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, AssertFindingPresent, ae.Type)
	assert.Len(t, ae.Findings, 2)

	msg := err.Error()
	assert.Contains(t, msg, "Expected: at least one of findings with rule=destructive-confirmation")
	assert.Contains(t, msg, "[1] warning form-error-state on Login: No error state")
	assert.Contains(t, msg, "[2] info input-validation-state on Login: Input has no error state")
}

func TestAssertionError_NoFindingsSection(t *testing.T) {
	err := (&AssertionError{Type: AssertWarningCount, Expected: "0 warnings", Actual: "1"}).Error()
	assert.NotContains(t, err, "Findings:")
	assert.Equal(t, "Assertion failed: warning_count\n  Expected: 0 warnings\n  Actual: 1\n", err)
}
