package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/inv-mschultz/edgy-sub001/internal/analysis"
)

// SaveReport records a run and everything it produced in one transaction.
// source names the analysed screens file (may be empty).
//
// Uses ON CONFLICT(id) DO NOTHING on the run row: saving the same run twice
// is silently ignored, and its child rows are not rewritten.
func (s *Store) SaveReport(ctx context.Context, report *analysis.Report, source string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return fmt.Errorf("save report: next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, source, corpus_hash, screens_hash, findings_hash, analyzer_version, report_version,
		 screen_count, finding_count, missing_count, warning_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		report.RunID,
		seq,
		source,
		report.CorpusHash,
		report.ScreensHash,
		report.FindingsHash,
		report.AnalyzerVersion,
		report.Version,
		len(report.Screens),
		len(report.Findings),
		len(report.MissingScreens),
		len(report.Warnings),
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tx.Commit()
	}

	if err := writeFindings(ctx, tx, report); err != nil {
		return err
	}
	if err := writeMissingScreens(ctx, tx, report); err != nil {
		return err
	}
	if err := writeWarnings(ctx, tx, report); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save report: commit: %w", err)
	}
	return nil
}

func writeFindings(ctx context.Context, tx *sql.Tx, report *analysis.Report) error {
	for i, f := range report.Findings {
		var screenID, screenName, elementID, elementName string
		if f.Ref != nil {
			screenID, screenName = f.Ref.ScreenID, f.Ref.ScreenName
			elementID, elementName = f.Ref.ElementID, f.Ref.ElementName
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO findings
			(run_id, seq, id, rule_id, category, severity, title, description, recommendation,
			 screen_id, screen_name, element_id, element_name)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			report.RunID, i, f.ID, f.RuleID, f.Category, string(f.Severity),
			f.Title, f.Description, f.Recommendation,
			screenID, screenName, elementID, elementName,
		)
		if err != nil {
			return fmt.Errorf("write finding %s: %w", f.ID, err)
		}
	}
	return nil
}

func writeMissingScreens(ctx context.Context, tx *sql.Tx, report *analysis.Report) error {
	for i, m := range report.MissingScreens {
		components, err := marshalComponents(m.Components)
		if err != nil {
			return fmt.Errorf("write missing screen %s: %w", m.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO missing_screens
			(run_id, seq, id, flow_type, flow_name, screen_id, screen_name, severity, title,
			 description, recommendation, components, placeholder_width, placeholder_height)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			report.RunID, i, m.ID, m.FlowType, m.FlowName, m.ScreenID, m.ScreenName,
			string(m.Severity), m.Title, m.Description, m.Recommendation, components,
			m.Placeholder.Width, m.Placeholder.Height,
		)
		if err != nil {
			return fmt.Errorf("write missing screen %s: %w", m.ID, err)
		}
	}
	return nil
}

func writeWarnings(ctx context.Context, tx *sql.Tx, report *analysis.Report) error {
	for i, w := range report.Warnings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO warnings (run_id, seq, rule_id, location, pattern, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`, report.RunID, i, w.RuleID, w.Location, w.Pattern, w.Message)
		if err != nil {
			return fmt.Errorf("write warning: %w", err)
		}
	}
	return nil
}

// DeleteRun removes a run and, through ON DELETE CASCADE, its child rows.
// Returns ErrRunNotFound if the run does not exist.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}
