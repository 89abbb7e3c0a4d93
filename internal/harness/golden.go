package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/inv-mschultz/edgy-sub001/internal/analysis"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// ReportSnapshot is the part of a report compared against golden files.
// Hashes and per-screen detail are left out so golden files stay readable.
type ReportSnapshot struct {
	ScenarioName   string                    `json:"scenario_name"`
	DetectedFlows  []ir.DetectedFlowType     `json:"detected_flows"`
	Findings       []ir.Finding              `json:"findings"`
	MissingScreens []ir.MissingScreenFinding `json:"missing_screens"`
	Warnings       []ir.Warning              `json:"warnings"`
}

// NewReportSnapshot extracts a snapshot. Nil slices become empty so the
// canonical form is the same for a report built in code or decoded.
func NewReportSnapshot(name string, report *analysis.Report) ReportSnapshot {
	s := ReportSnapshot{
		ScenarioName:   name,
		DetectedFlows:  report.DetectedFlows,
		Findings:       report.Findings,
		MissingScreens: report.MissingScreens,
		Warnings:       report.Warnings,
	}
	if s.DetectedFlows == nil {
		s.DetectedFlows = []ir.DetectedFlowType{}
	}
	if s.Findings == nil {
		s.Findings = []ir.Finding{}
	}
	if s.MissingScreens == nil {
		s.MissingScreens = []ir.MissingScreenFinding{}
	}
	if s.Warnings == nil {
		s.Warnings = []ir.Warning{}
	}
	return s
}

// RunWithGolden executes a scenario and compares its report snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be executed. A snapshot mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(NewReportSnapshot(scenarioName, result.Report))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
