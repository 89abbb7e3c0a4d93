package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/inv-mschultz/edgy-sub001/internal/analysis"
	"github.com/inv-mschultz/edgy-sub001/internal/idgen"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Report is the analysis report the assertions ran against.
	Report *analysis.Report `json:"report"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs with a fixed run ID and a fresh in-memory store. The
// report is persisted and read back, so a scenario also fails when the
// store loses findings.
//
// Setup failures (corpus, screens, analysis) are returned as errors;
// assertion failures are recorded on the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := scenario.LoadCorpus()
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	screens, err := scenario.LoadScreens()
	if err != nil {
		return nil, fmt.Errorf("failed to load screens: %w", err)
	}

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}
	opts := []analysis.Option{
		analysis.WithLogger(logger),
		analysis.WithRunIDGenerator(idgen.NewStaticGenerator(runID)),
	}
	if len(scenario.FlowTypes) > 0 {
		types := make([]ir.DetectedFlowType, 0, len(scenario.FlowTypes))
		for _, b := range scenario.FlowTypes {
			types = append(types, ir.DetectedFlowType{FlowType: b.FlowType, Prefix: b.Prefix})
		}
		opts = append(opts, analysis.WithFlowTypes(types...))
	}

	analyzer, err := analysis.New(c.Rules, c.Flows, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build analyzer: %w", err)
	}
	report, err := analyzer.Run(ctx, screens)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	result := NewResult()
	result.Report = report

	if err := checkPersistence(ctx, report, scenario.Name); err != nil {
		result.AddError(err.Error())
	}

	for _, msg := range EvaluateAssertions(report, scenario.Assertions) {
		result.AddError(msg)
	}

	logger.Info("scenario completed",
		"scenario", scenario.Name,
		"findings", len(report.Findings),
		"missing_screens", len(report.MissingScreens),
		"pass", result.Pass,
	)
	return result, nil
}

// checkPersistence saves the report to an in-memory store and verifies
// that every finding and missing screen comes back.
func checkPersistence(ctx context.Context, report *analysis.Report, source string) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.SaveReport(ctx, report, "scenario:"+source); err != nil {
		return err
	}
	findings, err := st.ReadFindings(ctx, report.RunID)
	if err != nil {
		return err
	}
	if len(findings) != len(report.Findings) {
		return fmt.Errorf("store returned %d findings, report has %d", len(findings), len(report.Findings))
	}
	missing, err := st.ReadMissingScreens(ctx, report.RunID)
	if err != nil {
		return err
	}
	if len(missing) != len(report.MissingScreens) {
		return fmt.Errorf("store returned %d missing screens, report has %d", len(missing), len(report.MissingScreens))
	}
	return nil
}
