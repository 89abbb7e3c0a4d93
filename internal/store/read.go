package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// Run is the stored summary of one analysis run.
type Run struct {
	ID              string `json:"id"`
	Seq             int64  `json:"seq"`
	Source          string `json:"source,omitempty"`
	CorpusHash      string `json:"corpus_hash"`
	ScreensHash     string `json:"screens_hash"`
	FindingsHash    string `json:"findings_hash"`
	AnalyzerVersion string `json:"analyzer_version"`
	ReportVersion   string `json:"report_version"`
	Screens         int    `json:"screens"`
	Findings        int    `json:"findings"`
	MissingScreens  int    `json:"missing_screens"`
	Warnings        int    `json:"warnings"`
}

const runColumns = `id, seq, source, corpus_hash, screens_hash, findings_hash, analyzer_version,
	report_version, screen_count, finding_count, missing_count, warning_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	err := row.Scan(
		&r.ID, &r.Seq, &r.Source, &r.CorpusHash, &r.ScreensHash, &r.FindingsHash,
		&r.AnalyzerVersion, &r.ReportVersion, &r.Screens, &r.Findings, &r.MissingScreens, &r.Warnings,
	)
	return r, err
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
//
// Returns empty slice (not nil) if no runs are stored.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	return s.listRuns(ctx, nil, limit)
}

// ListRunsForSource is ListRuns restricted to runs of one screens source.
func (s *Store) ListRunsForSource(ctx context.Context, source string, limit int) ([]Run, error) {
	return s.listRuns(ctx, &source, limit)
}

func (s *Store) listRuns(ctx context.Context, source *string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}
	if source != nil {
		query += ` WHERE source = ?`
		args = append(args, *source)
	}
	query += ` ORDER BY seq DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run summary.
// Returns ErrRunNotFound if the run does not exist.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// LatestRun returns the most recently saved run.
// Returns ErrRunNotFound if the store is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT 1`)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// ReadFindings returns a run's findings in report order.
//
// Returns empty slice (not nil) if the run has no findings.
func (s *Store) ReadFindings(ctx context.Context, runID string) ([]ir.Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, rule_id, category, severity, title, description, recommendation,
		       screen_id, screen_name, element_id, element_name
		FROM findings
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	findings := []ir.Finding{}
	for rows.Next() {
		var f ir.Finding
		var severity string
		ref := &ir.ElementRef{}
		if err := rows.Scan(
			&f.ID, &f.RuleID, &f.Category, &severity, &f.Title, &f.Description, &f.Recommendation,
			&ref.ScreenID, &ref.ScreenName, &ref.ElementID, &ref.ElementName,
		); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		f.Severity = ir.Severity(severity)
		if *ref != (ir.ElementRef{}) {
			f.Ref = ref
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate findings: %w", err)
	}
	return findings, nil
}

// ReadMissingScreens returns a run's missing-screen findings in report order.
//
// Returns empty slice (not nil) if the run has none.
func (s *Store) ReadMissingScreens(ctx context.Context, runID string) ([]ir.MissingScreenFinding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, flow_type, flow_name, screen_id, screen_name, severity, title, description,
		       recommendation, components, placeholder_width, placeholder_height
		FROM missing_screens
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query missing screens: %w", err)
	}
	defer rows.Close()

	out := []ir.MissingScreenFinding{}
	for rows.Next() {
		var m ir.MissingScreenFinding
		var severity, components string
		if err := rows.Scan(
			&m.ID, &m.FlowType, &m.FlowName, &m.ScreenID, &m.ScreenName, &severity, &m.Title,
			&m.Description, &m.Recommendation, &components, &m.Placeholder.Width, &m.Placeholder.Height,
		); err != nil {
			return nil, fmt.Errorf("scan missing screen: %w", err)
		}
		m.Severity = ir.Severity(severity)
		if m.Components, err = unmarshalComponents(components); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate missing screens: %w", err)
	}
	return out, nil
}

// ReadWarnings returns a run's warnings in report order.
func (s *Store) ReadWarnings(ctx context.Context, runID string) ([]ir.Warning, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, location, pattern, message
		FROM warnings
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	out := []ir.Warning{}
	for rows.Next() {
		var w ir.Warning
		if err := rows.Scan(&w.RuleID, &w.Location, &w.Pattern, &w.Message); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warnings: %w", err)
	}
	return out, nil
}

// RuleFrequency counts findings per rule across all stored runs, most
// frequent first (ties by rule ID).
func (s *Store) RuleFrequency(ctx context.Context) (map[string]int, []string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, COUNT(*) AS n
		FROM findings
		GROUP BY rule_id
		ORDER BY n DESC, rule_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("query rule frequency: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	var order []string
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, nil, fmt.Errorf("scan rule frequency: %w", err)
		}
		counts[id] = n
		order = append(order, id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rule frequency: %w", err)
	}
	return counts, order, nil
}
