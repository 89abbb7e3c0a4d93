package store

import (
	"path/filepath"
	"testing"

	"github.com/inv-mschultz/edgy-sub001/internal/analysis"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestReport creates a report with one of everything.
func createTestReport(runID string) *analysis.Report {
	return &analysis.Report{
		Version:         ir.ReportVersion,
		AnalyzerVersion: ir.AnalyzerVersion,
		RunID:           runID,
		CorpusHash:      "corpus-hash",
		ScreensHash:     "screens-hash",
		FindingsHash:    "findings-hash",
		Screens:         []analysis.ScreenResult{{ID: "s1", Name: "Dashboard"}},
		Findings: []ir.Finding{
			{
				ID:             "finding-1",
				RuleID:         "destructive-confirmation",
				Category:       "destructive-action",
				Severity:       ir.SeverityCritical,
				Title:          `"Delete Account" on Dashboard is not confirmed`,
				Description:    "no confirmation dialog",
				Recommendation: "Add a dialog.",
				Ref:            &ir.ElementRef{ScreenID: "s1", ScreenName: "Dashboard", ElementID: "e1", ElementName: "Delete Account"},
			},
			{
				ID:       "finding-2",
				RuleID:   "list-empty-state",
				Category: "empty-state",
				Severity: ir.SeverityWarning,
				Title:    "No empty state",
			},
		},
		MissingScreens: []ir.MissingScreenFinding{{
			ID:             "missing-screen-1",
			FlowType:       "authentication",
			FlowName:       "Authentication",
			ScreenID:       "forgot-password",
			ScreenName:     "Forgot password",
			Severity:       ir.SeverityWarning,
			Title:          "Missing Forgot password screen in Authentication flow",
			Recommendation: `Add a "Forgot password" screen to the Authentication flow.`,
			Components:     []ir.SuggestedComponent{{Component: "Input", Variant: "Email", DisplayName: "Input / Email"}},
			Placeholder:    ir.Placeholder{Width: 390, Height: 844},
		}},
		Warnings: []ir.Warning{{RuleID: "broken", Location: "trigger.any_of[0]", Pattern: "(", Message: "bad"}},
	}
}
