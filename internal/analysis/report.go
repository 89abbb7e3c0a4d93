package analysis

import (
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// Report is the result of one analysis run.
type Report struct {
	Version         string                    `json:"version"`
	AnalyzerVersion string                    `json:"analyzer_version"`
	RunID           string                    `json:"run_id"`
	CorpusHash      string                    `json:"corpus_hash"`
	ScreensHash     string                    `json:"screens_hash"`
	FindingsHash    string                    `json:"findings_hash"`
	Screens         []ScreenResult            `json:"screens"`
	Flows           []FlowGroup               `json:"flows"`
	DetectedFlows   []ir.DetectedFlowType     `json:"detected_flows"`
	Findings        []ir.Finding              `json:"findings"`
	MissingScreens  []ir.MissingScreenFinding `json:"missing_screens"`
	Warnings        []ir.Warning              `json:"warnings"`
}

// ScreenResult summarises what the pipeline saw on one screen.
type ScreenResult struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Flow      string               `json:"flow"`
	Patterns  []ir.DetectedPattern `json:"patterns"`
	Triggered []string             `json:"triggered"` // Rule IDs, one per triggering instance
	Findings  []string             `json:"findings"`  // Finding IDs
}

// FlowGroup lists the screen IDs sharing a flow prefix.
type FlowGroup struct {
	Prefix  string   `json:"prefix"`
	Screens []string `json:"screens"`
}

// Counts tallies findings and missing screens by severity.
type Counts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// Total returns the sum of all severities.
func (c Counts) Total() int {
	return c.Critical + c.Warning + c.Info
}

func (c *Counts) add(s ir.Severity) {
	switch s {
	case ir.SeverityCritical:
		c.Critical++
	case ir.SeverityWarning:
		c.Warning++
	default:
		c.Info++
	}
}

// Counts tallies the report's findings and missing screens together.
func (r *Report) Counts() Counts {
	var c Counts
	for _, f := range r.Findings {
		c.add(f.Severity)
	}
	for _, m := range r.MissingScreens {
		c.add(m.Severity)
	}
	return c
}

// FindingsFor returns the findings reported on one screen, in order.
func (r *Report) FindingsFor(screenID string) []ir.Finding {
	var out []ir.Finding
	for _, f := range r.Findings {
		if f.Ref != nil && f.Ref.ScreenID == screenID {
			out = append(out, f)
		}
	}
	return out
}

// HasBlocking reports whether any finding meets or exceeds min severity.
func (r *Report) HasBlocking(min ir.Severity) bool {
	rank := map[ir.Severity]int{ir.SeverityInfo: 1, ir.SeverityWarning: 2, ir.SeverityCritical: 3}
	threshold, ok := rank[min]
	if !ok {
		return false
	}
	for _, f := range r.Findings {
		if rank[f.Severity] >= threshold {
			return true
		}
	}
	for _, m := range r.MissingScreens {
		if rank[m.Severity] >= threshold {
			return true
		}
	}
	return false
}
