package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inv-mschultz/edgy-sub001/internal/compiler"
	"github.com/inv-mschultz/edgy-sub001/internal/corpus"
)

// ValidationIssue is one corpus error found by validate.
type ValidationIssue struct {
	Code     string `json:"code"`
	Document string `json:"document,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Errors   []ValidationIssue      `json:"errors,omitempty"`
	Warnings []compiler.LintWarning `json:"warnings,omitempty"`
	Rules    int                    `json:"rules"`
	Flows    int                    `json:"flows"`
	Hash     string                 `json:"corpus_hash,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [rules]",
		Short: "Validate a rule corpus without analyzing screens",
		Long: `Validate a rule corpus: syntax, schema, duplicate ids and templates.

Every document is checked and all errors are reported. A valid corpus is
also linted for problems that do not stop a load, such as trigger regexes
that do not compile. With no argument the built-in corpus is validated.

Exit codes:
  0 - Corpus valid (warnings do not fail)
  1 - Corpus invalid
  2 - Command error (path not found)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	var (
		c    *corpus.Corpus
		errs []error
	)
	if path == "" {
		formatter.VerboseLog("Validating built-in corpus")
		builtin, err := corpus.Builtin()
		c = builtin
		if err != nil {
			errs = []error{err}
		}
	} else {
		formatter.VerboseLog("Validating corpus at %s", path)
		c, errs = corpus.Load(path, corpus.LoadModeCollectAll)
	}

	if len(errs) == 1 {
		var le *corpus.LoadError
		if errors.As(errs[0], &le) && le.Code == corpus.ErrCodeNotFound {
			return commandError(formatter, le.Code, le.Message, map[string]string{"path": le.Document})
		}
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, issuesFromErrors(errs))
	}

	result := ValidationResult{
		Valid: true,
		Rules: len(c.Rules),
		Flows: len(c.Flows),
		Hash:  c.Hash,
	}
	// Compiled IR must also pass the Go-side checks.
	var issues []ValidationIssue
	for i := range c.Rules {
		for _, ve := range compiler.Validate(&c.Rules[i]) {
			issues = append(issues, ValidationIssue{Code: ve.Code, Document: c.Rules[i].Source, Field: ve.Field, Message: ve.Message})
		}
	}
	for i := range c.Flows {
		for _, ve := range compiler.Validate(&c.Flows[i]) {
			issues = append(issues, ValidationIssue{Code: ve.Code, Field: ve.Field, Message: ve.Message})
		}
	}
	if len(issues) > 0 {
		return outputValidationErrors(formatter, issues)
	}
	result.Warnings = compiler.Lint(c.Rules, c.Flows)

	return outputValidateSuccess(formatter, result)
}

// issuesFromErrors converts corpus load errors into validation issues.
func issuesFromErrors(errs []error) []ValidationIssue {
	issues := make([]ValidationIssue, 0, len(errs))
	for _, err := range errs {
		var le *corpus.LoadError
		if !errors.As(err, &le) {
			issues = append(issues, ValidationIssue{Code: corpus.ErrCodeGeneric, Message: err.Error()})
			continue
		}
		issue := ValidationIssue{Code: le.Code, Document: le.Document, Message: le.Message}
		if le.Pos.IsValid() {
			issue.Line = le.Pos.Line()
		}
		issues = append(issues, issue)
	}
	return issues
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Structured() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Corpus valid: %d rule(s), %d flow(s)\n", result.Rules, result.Flows)
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, lw := range result.Warnings {
			if lw.RuleID != "" {
				fmt.Fprintf(w, "  %s: %s %s: %s\n", lw.Level, lw.RuleID, lw.Field, lw.Message)
			} else {
				fmt.Fprintf(w, "  %s: %s: %s\n", lw.Level, lw.Field, lw.Message)
			}
		}
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	failure := renderedError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))

	if formatter.Structured() {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)

	for _, issue := range issues {
		switch {
		case issue.Document != "" && issue.Line > 0:
			fmt.Fprintf(w, "%s, line %d\n", issue.Document, issue.Line)
		case issue.Document != "":
			fmt.Fprintln(w, issue.Document)
		}
		if issue.Field != "" {
			fmt.Fprintf(w, "  %s: %s: %s\n\n", issue.Code, issue.Field, issue.Message)
		} else {
			fmt.Fprintf(w, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}

	return failure
}
