package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inv-mschultz/edgy-sub001/internal/compiler"
	"github.com/inv-mschultz/edgy-sub001/internal/engine"
	"github.com/inv-mschultz/edgy-sub001/internal/expect"
	"github.com/inv-mschultz/edgy-sub001/internal/finding"
	"github.com/inv-mschultz/edgy-sub001/internal/flow"
	"github.com/inv-mschultz/edgy-sub001/internal/idgen"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/pattern"
	"github.com/inv-mschultz/edgy-sub001/internal/tree"
)

// Analyzer runs the pipeline with a fixed rule corpus.
//
// Thread-safety model:
//   - New: builds read-only matcher and checker state
//   - Run: serialised; the finding counters belong to the running call
type Analyzer struct {
	rules      []ir.Rule
	flows      []ir.FlowRule
	corpusHash string

	detector *pattern.Detector
	matcher  *engine.Matcher
	checker  *expect.Checker
	findings *finding.Generator
	missing  *flow.MissingGenerator

	runIDs    idgen.RunIDGenerator
	logger    *slog.Logger
	flowTypes []ir.DetectedFlowType // Host-supplied; nil means detect
	keywords  pattern.KeywordTable

	mu sync.Mutex
}

// Option configures optional Analyzer parameters.
type Option func(*Analyzer)

// WithLogger sets the logger for the analyzer and its stages.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithRunIDGenerator sets the run ID source.
//
// Default: idgen.UUIDv7Generator
// Use idgen.NewFixedGenerator("run-1") for golden tests.
func WithRunIDGenerator(gen idgen.RunIDGenerator) Option {
	return func(a *Analyzer) {
		a.runIDs = gen
	}
}

// WithFlowTypes supplies the flow types present in the screen set instead
// of detecting them from flow rule keywords.
func WithFlowTypes(types ...ir.DetectedFlowType) Option {
	return func(a *Analyzer) {
		a.flowTypes = append([]ir.DetectedFlowType{}, types...)
	}
}

// WithKeywords replaces the pattern detector's keyword table.
func WithKeywords(table pattern.KeywordTable) Option {
	return func(a *Analyzer) {
		a.keywords = table
	}
}

// New creates an Analyzer. Rules and flows are validated and copied; an
// invalid rule fails construction, since only a malformed corpus may stop
// an analysis.
func New(rules []ir.Rule, flows []ir.FlowRule, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		rules:  append([]ir.Rule(nil), rules...),
		flows:  append([]ir.FlowRule(nil), flows...),
		runIDs: idgen.UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	var errs []error
	for i := range a.rules {
		for _, err := range compiler.Validate(a.rules[i]) {
			errs = append(errs, fmt.Errorf("rule %s: %w", a.rules[i].ID, err))
		}
	}
	for i := range a.flows {
		for _, err := range compiler.Validate(a.flows[i]) {
			errs = append(errs, fmt.Errorf("flow %s: %w", a.flows[i].FlowType, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	hash, err := ir.CorpusHash(a.rules, a.flows)
	if err != nil {
		return nil, err
	}
	a.corpusHash = hash

	a.detector = pattern.NewDetector(a.keywords)
	a.matcher = engine.NewMatcher(a.rules, engine.WithLogger(a.logger))
	a.checker = expect.NewChecker(a.matcher.Rules(), expect.WithLogger(a.logger))
	a.findings = finding.NewGenerator(finding.WithLogger(a.logger))
	a.missing = flow.NewMissingGenerator(flow.WithLogger(a.logger))
	return a, nil
}

// CorpusHash returns the hash of the analyzer's rules and flows.
func (a *Analyzer) CorpusHash() string {
	return a.corpusHash
}

// Run analyses screens. It fails only when ctx is cancelled or the report
// cannot be hashed; malformed screen data never fails a run.
func (a *Analyzer) Run(ctx context.Context, screens []ir.Screen) (*Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.findings.Reset()
	a.missing.Reset()

	report := &Report{
		Version:         ir.ReportVersion,
		AnalyzerVersion: ir.AnalyzerVersion,
		RunID:           a.runIDs.Generate(),
		CorpusHash:      a.corpusHash,
		Screens:         []ScreenResult{},
		Flows:           []FlowGroup{},
		Findings:        []ir.Finding{},
		MissingScreens:  []ir.MissingScreenFinding{},
		Warnings:        []ir.Warning{},
	}

	screensHash, err := ir.ScreensHash(screens)
	if err != nil {
		return nil, err
	}
	report.ScreensHash = screensHash

	a.logger.Debug("analysis started", "run_id", report.RunID, "screens", len(screens), "rules", len(a.rules))

	groups := flow.GroupByFlow(screens)
	for _, key := range groups.Keys {
		g := FlowGroup{Prefix: key}
		for _, s := range groups.Groups[key] {
			g.Screens = append(g.Screens, s.ID)
		}
		report.Flows = append(report.Flows, g)
	}

	for i := range screens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, findings := a.analyzeScreen(&screens[i], groups)
		report.Screens = append(report.Screens, result)
		report.Findings = append(report.Findings, findings...)
	}

	detected := a.flowTypes
	if detected == nil {
		detected = flow.DetectFlowTypes(groups, a.flows)
	}
	report.DetectedFlows = append([]ir.DetectedFlowType{}, detected...)
	report.MissingScreens = append(report.MissingScreens, a.missing.Generate(screens, detected, a.flows)...)

	report.Warnings = append(report.Warnings, paintWarnings(screens)...)
	report.Warnings = append(report.Warnings, a.matcher.Warnings()...)
	report.Warnings = append(report.Warnings, a.checker.Warnings()...)
	report.Warnings = append(report.Warnings, a.missing.Warnings()...)

	findingsHash, err := ir.FindingsHash(report.Findings, report.MissingScreens)
	if err != nil {
		return nil, err
	}
	report.FindingsHash = findingsHash

	a.logger.Info("analysis complete",
		"run_id", report.RunID,
		"screens", len(screens),
		"findings", len(report.Findings),
		"missing_screens", len(report.MissingScreens),
		"warnings", len(report.Warnings),
	)
	return report, nil
}

func (a *Analyzer) analyzeScreen(screen *ir.Screen, groups ir.FlowGroups) (ScreenResult, []ir.Finding) {
	patterns := a.detector.Detect(&screen.Root)
	triggered := a.matcher.Match(screen.ID, patterns)
	unmet := a.checker.Check(triggered, screen, patterns, flow.Siblings(*screen, groups))
	findings := a.findings.Generate(unmet, screen)

	result := ScreenResult{
		ID:        screen.ID,
		Name:      screen.Name,
		Flow:      flow.ExtractPrefix(screen.Name),
		Patterns:  append([]ir.DetectedPattern{}, patterns...),
		Triggered: []string{},
		Findings:  []string{},
	}
	for _, t := range triggered {
		result.Triggered = append(result.Triggered, t.RuleID)
	}
	for _, f := range findings {
		result.Findings = append(result.Findings, f.ID)
	}

	a.logger.Debug("screen analysed",
		"screen", screen.Name,
		"patterns", len(patterns),
		"triggered", len(triggered),
		"unmet", len(unmet),
	)
	return result, findings
}

// paintWarnings lists the paints the decoder could not read. They were
// treated as carrying no cue, so the run still completes.
func paintWarnings(screens []ir.Screen) []ir.Warning {
	var out []ir.Warning
	for i := range screens {
		screenID := screens[i].ID
		tree.Walk(&screens[i].Root, func(n tree.Node) bool {
			el := n.Element
			for _, group := range []struct {
				field  string
				paints []ir.Paint
			}{{"fills", el.Fills}, {"strokes", el.Strokes}} {
				for j, p := range group.paints {
					if p.Unrecognized == "" {
						continue
					}
					out = append(out, ir.Warning{
						Location: fmt.Sprintf("screens[%s].elements[%s].%s[%d]", screenID, el.ID, group.field, j),
						Pattern:  p.Unrecognized,
						Message:  "unrecognised paint; treated as carrying no cue",
					})
				}
			}
			return true
		})
	}
	return out
}
