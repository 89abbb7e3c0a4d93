package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/inv-mschultz/edgy-sub001/internal/analysis"
	"github.com/inv-mschultz/edgy-sub001/internal/corpus"
	"github.com/inv-mschultz/edgy-sub001/internal/idgen"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/store"
	"github.com/inv-mschultz/edgy-sub001/internal/textmatch"
)

// CLI error codes not covered by corpus load errors.
const (
	ErrCodeGeneric   = corpus.ErrCodeGeneric
	ErrCodeScreens   = "E010" // Screens unreadable or malformed
	ErrCodeStore     = "E011" // Run history database error
	ErrCodeAnalysis  = "E012" // Analyzer rejected the corpus or the run failed
	ErrCodeUsage     = "E013" // Invalid flag value
	ErrCodeBlocking  = "E_FINDINGS"
	stdinScreensPath = "-"
)

// DefaultDebounce is how long --watch waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Rules    string   // corpus path; empty means the built-in corpus
	Database string   // optional run history database
	Flows    []string // prefix=flow_type bindings
	FailOn   string   // minimum severity that fails the command
	Watch    bool

	// Debounce delays re-analysis after a change in watch mode.
	Debounce time.Duration

	// RunIDGenerator allows overriding run IDs (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator idgen.RunIDGenerator
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	return newAnalyzeCommand(&AnalyzeOptions{RootOptions: rootOpts, Debounce: DefaultDebounce})
}

func newAnalyzeCommand(opts *AnalyzeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <screens.json|->",
		Short: "Analyze screens for missing edge cases",
		Long: `Analyze extracted screens against a rule corpus and report findings.

Screens are read from a JSON file (a bare array or {"screens": [...]}),
or from stdin when the argument is "-".

Exit codes:
  0 - Analysis completed (and nothing reached --fail-on)
  1 - Findings at or above --fail-on severity
  2 - Command error (unreadable screens, invalid corpus, database error)

Examples:
  edgy analyze screens.json
  edgy analyze screens.json --rules ./rules --format json
  edgy analyze screens.json --flow login=authentication --fail-on critical
  edgy analyze screens.json --db ./edgy.db --watch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "rule corpus directory or document (default: built-in corpus)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringArrayVar(&opts.Flows, "flow", nil, "assign a flow type to a flow prefix (prefix=flow_type), repeatable")
	cmd.Flags().StringVar(&opts.FailOn, "fail-on", "", "exit 1 when a finding reaches this severity (critical|warning|info)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-run when the screens file or the corpus changes")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, screensPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.FailOn != "" && !ir.ValidSeverities[ir.Severity(opts.FailOn)] {
		return commandError(formatter, ErrCodeUsage, fmt.Sprintf("invalid --fail-on %q: must be critical, warning or info", opts.FailOn), nil)
	}
	if _, err := parseFlowBindings(opts.Flows); err != nil {
		return commandError(formatter, ErrCodeUsage, err.Error(), nil)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Watch {
		if screensPath == stdinScreensPath {
			return commandError(formatter, ErrCodeUsage, "--watch needs a screens file, not stdin", nil)
		}
		return watchAnalyze(ctx, opts, screensPath, cmd, formatter, logger)
	}

	report, err := analyzeOnce(ctx, opts, screensPath, cmd.InOrStdin(), logger)
	if err != nil {
		return reportAnalyzeError(formatter, err)
	}
	if err := writeReport(formatter, report); err != nil {
		return err
	}

	if opts.FailOn != "" && report.HasBlocking(ir.Severity(opts.FailOn)) {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: findings at or above %s", ErrCodeBlocking, opts.FailOn))
	}
	return nil
}

// analyzeError carries the CLI error code for a failed analysis.
type analyzeError struct {
	code string
	err  error
}

func (e *analyzeError) Error() string { return e.err.Error() }
func (e *analyzeError) Unwrap() error { return e.err }

func reportAnalyzeError(formatter *OutputFormatter, err error) error {
	code := ErrCodeAnalysis
	var ae *analyzeError
	if errors.As(err, &ae) {
		code = ae.code
	}
	return commandError(formatter, code, err.Error(), nil)
}

// analyzeOnce loads the corpus and screens, runs the pipeline and records
// the run when a database is configured.
func analyzeOnce(ctx context.Context, opts *AnalyzeOptions, screensPath string, stdin io.Reader, logger *slog.Logger) (*analysis.Report, error) {
	c, err := loadCorpus(opts.Rules)
	if err != nil {
		return nil, err
	}
	logger.Debug("corpus loaded", "rules", len(c.Rules), "flows", len(c.Flows), "hash", c.Hash)

	screens, err := readScreens(screensPath, stdin)
	if err != nil {
		return nil, &analyzeError{code: ErrCodeScreens, err: err}
	}

	gen := opts.RunIDGenerator
	if gen == nil {
		gen = idgen.UUIDv7Generator{}
	}
	analyzerOpts := []analysis.Option{
		analysis.WithLogger(logger),
		analysis.WithRunIDGenerator(gen),
	}
	flows, _ := parseFlowBindings(opts.Flows)
	if len(flows) > 0 {
		analyzerOpts = append(analyzerOpts, analysis.WithFlowTypes(flows...))
	}

	analyzer, err := analysis.New(c.Rules, c.Flows, analyzerOpts...)
	if err != nil {
		return nil, &analyzeError{code: ErrCodeAnalysis, err: err}
	}
	report, err := analyzer.Run(ctx, screens)
	if err != nil {
		return nil, &analyzeError{code: ErrCodeAnalysis, err: err}
	}

	if opts.Database != "" {
		if err := saveReport(ctx, opts.Database, report, screensPath); err != nil {
			return nil, &analyzeError{code: ErrCodeStore, err: err}
		}
		logger.Debug("run recorded", "db", opts.Database, "run_id", report.RunID)
	}
	return report, nil
}

// loadCorpus loads the corpus at path, or the built-in corpus when path is
// empty. Load errors keep their corpus error code.
func loadCorpus(path string) (*corpus.Corpus, error) {
	if path == "" {
		c, err := corpus.Builtin()
		if err != nil {
			return nil, &analyzeError{code: corpusErrorCode(err), err: err}
		}
		return c, nil
	}
	c, errs := corpus.Load(path, corpus.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, &analyzeError{code: corpusErrorCode(errs[0]), err: errs[0]}
	}
	return c, nil
}

func corpusErrorCode(err error) string {
	var le *corpus.LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return corpus.ErrCodeGeneric
}

func readScreens(path string, stdin io.Reader) ([]ir.Screen, error) {
	if path == stdinScreensPath {
		return analysis.DecodeScreens(stdin)
	}
	return analysis.LoadScreens(path)
}

func saveReport(ctx context.Context, dbPath string, report *analysis.Report, source string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.SaveReport(ctx, report, source)
}

// parseFlowBindings parses prefix=flow_type pairs. Prefixes are folded the
// same way flow grouping folds them.
func parseFlowBindings(raw []string) ([]ir.DetectedFlowType, error) {
	var out []ir.DetectedFlowType
	for _, r := range raw {
		prefix, flowType, ok := strings.Cut(r, "=")
		prefix, flowType = strings.TrimSpace(prefix), strings.TrimSpace(flowType)
		if !ok || prefix == "" || flowType == "" {
			return nil, fmt.Errorf("invalid --flow %q: want prefix=flow_type", r)
		}
		out = append(out, ir.DetectedFlowType{FlowType: flowType, Prefix: textmatch.Fold(prefix)})
	}
	return out, nil
}

// commandError prints an error and returns it as a command error (exit 2).
func commandError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return renderedError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// writeReport renders a report in the configured format.
func writeReport(formatter *OutputFormatter, report *analysis.Report) error {
	if formatter.Structured() {
		return formatter.Encode(CLIResponse{Status: "ok", Data: report, RunID: report.RunID})
	}
	renderReport(formatter.Writer, report)
	return nil
}

// watchAnalyze runs the analysis, then again after every debounced change to
// the screens file or the corpus, until ctx is cancelled or a signal arrives.
func watchAnalyze(parent context.Context, opts *AnalyzeOptions, screensPath string, cmd *cobra.Command, formatter *OutputFormatter, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "watch init failed", nil)
	}
	defer watcher.Close()

	filter, err := addWatches(watcher, screensPath, opts.Rules)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("watch failed: %v", err), nil)
	}

	run := func() {
		report, err := analyzeOnce(ctx, opts, screensPath, nil, logger)
		if err != nil {
			_ = reportAnalyzeError(formatter, err)
			return
		}
		if err := writeReport(formatter, report); err != nil {
			logger.Error("write report", "error", err)
		}
	}
	run()

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	var timer *time.Timer
	trigger := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !filter.relevant(ev) {
				continue
			}
			logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case <-trigger:
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

// watchFilter decides which file system events trigger a re-run.
type watchFilter struct {
	screens string // cleaned screens file path
	rules   string // cleaned corpus path; "" when using the built-in corpus
}

func (f watchFilter) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if name == f.screens {
		return true
	}
	if f.rules == "" {
		return false
	}
	return name == f.rules || strings.HasPrefix(name, f.rules+string(filepath.Separator))
}

// addWatches watches the screens file's directory and the corpus. Editors
// often replace files by rename, so directories are watched rather than
// files.
func addWatches(w *fsnotify.Watcher, screensPath, rulesPath string) (watchFilter, error) {
	filter := watchFilter{screens: filepath.Clean(screensPath)}
	if err := w.Add(filepath.Dir(filter.screens)); err != nil {
		return filter, err
	}
	if rulesPath == "" {
		return filter, nil
	}

	filter.rules = filepath.Clean(rulesPath)
	info, err := os.Stat(filter.rules)
	if err != nil {
		return filter, err
	}
	if !info.IsDir() {
		return filter, w.Add(filepath.Dir(filter.rules))
	}
	return filter, filepath.WalkDir(filter.rules, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != filter.rules && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
