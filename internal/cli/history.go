package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/store"
)

// ErrCodeRunNotFound is reported when --run names an unknown run.
const ErrCodeRunNotFound = "E014"

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	Limit     int
	Source    string // only runs of this screens file
	Run       string // show one run's findings; "latest" for the newest
	Frequency bool   // findings per rule across all runs
}

// RunDetail is one stored run with its findings.
type RunDetail struct {
	Run            store.Run                 `json:"run"`
	Findings       []ir.Finding              `json:"findings"`
	MissingScreens []ir.MissingScreenFinding `json:"missing_screens"`
	Warnings       []ir.Warning              `json:"warnings"`
}

// RuleCount is one row of the --frequency table.
type RuleCount struct {
	RuleID string `json:"rule_id"`
	Count  int    `json:"count"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show analysis runs recorded with analyze --db",
		Long: `List analysis runs recorded in a run history database.

Examples:
  edgy history --db ./edgy.db
  edgy history --db ./edgy.db --limit 5
  edgy history --db ./edgy.db --source screens.json
  edgy history --db ./edgy.db --run latest
  edgy history --db ./edgy.db --frequency --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "run history database (required)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "only list runs of this screens file")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show the findings of one run (run ID or \"latest\")")
	cmd.Flags().BoolVar(&opts.Frequency, "frequency", false, "count findings per rule across all runs")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Run != "" && opts.Frequency {
		return commandError(formatter, ErrCodeUsage, "--run and --frequency cannot be combined", nil)
	}
	if _, err := os.Stat(opts.Database); err != nil {
		return commandError(formatter, ErrCodeStore, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case opts.Frequency:
		return showFrequency(ctx, st, formatter)
	case opts.Run != "":
		return showRun(ctx, st, opts.Run, formatter)
	default:
		return listRuns(ctx, st, opts, formatter)
	}
}

func listRuns(ctx context.Context, st *store.Store, opts *HistoryOptions, formatter *OutputFormatter) error {
	var (
		runs []store.Run
		err  error
	)
	if opts.Source != "" {
		runs, err = st.ListRunsForSource(ctx, opts.Source, opts.Limit)
	} else {
		runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error(), nil)
	}
	if formatter.Structured() {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %d screen(s)  %d finding(s)  %d missing  %d warning(s)  %s\n",
			r.ID, r.Screens, r.Findings, r.MissingScreens, r.Warnings, r.Source)
	}
	return nil
}

func showRun(ctx context.Context, st *store.Store, runID string, formatter *OutputFormatter) error {
	var (
		run store.Run
		err error
	)
	if runID == "latest" {
		run, err = st.LatestRun(ctx)
	} else {
		run, err = st.GetRun(ctx, runID)
	}
	if errors.Is(err, store.ErrRunNotFound) {
		return commandError(formatter, ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", runID), nil)
	}
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error(), nil)
	}

	detail := RunDetail{Run: run}
	if detail.Findings, err = st.ReadFindings(ctx, run.ID); err != nil {
		return commandError(formatter, ErrCodeStore, err.Error(), nil)
	}
	if detail.MissingScreens, err = st.ReadMissingScreens(ctx, run.ID); err != nil {
		return commandError(formatter, ErrCodeStore, err.Error(), nil)
	}
	if detail.Warnings, err = st.ReadWarnings(ctx, run.ID); err != nil {
		return commandError(formatter, ErrCodeStore, err.Error(), nil)
	}

	if formatter.Structured() {
		return formatter.Encode(CLIResponse{Status: "ok", Data: detail, RunID: run.ID})
	}
	renderRunDetail(formatter.Writer, detail)
	return nil
}

func renderRunDetail(w io.Writer, d RunDetail) {
	fmt.Fprintf(w, "Run %s (analyzer %s, corpus %s)\n", d.Run.ID, d.Run.AnalyzerVersion, shortHash(d.Run.CorpusHash))
	if d.Run.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", d.Run.Source)
	}
	fmt.Fprintln(w)
	if len(d.Findings) == 0 && len(d.MissingScreens) == 0 {
		fmt.Fprintln(w, "✓ no findings")
	}
	for _, f := range d.Findings {
		if f.Ref != nil {
			fmt.Fprintf(w, "[%s] %s (%s on %s)\n", f.Severity, f.Title, f.RuleID, f.Ref.ScreenName)
		} else {
			fmt.Fprintf(w, "[%s] %s (%s)\n", f.Severity, f.Title, f.RuleID)
		}
	}
	for _, m := range d.MissingScreens {
		fmt.Fprintf(w, "[%s] %s\n", m.Severity, m.Title)
	}
	for _, warn := range d.Warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", warn.Location, warn.Message)
	}
}

func showFrequency(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	counts, order, err := st.RuleFrequency(ctx)
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error(), nil)
	}
	rows := make([]RuleCount, 0, len(order))
	for _, id := range order {
		rows = append(rows, RuleCount{RuleID: id, Count: counts[id]})
	}
	if formatter.Structured() {
		return formatter.Success(rows)
	}

	w := formatter.Writer
	if len(rows) == 0 {
		fmt.Fprintln(w, "No findings recorded.")
		return nil
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%6d  %s\n", r.Count, r.RuleID)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
