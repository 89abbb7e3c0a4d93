package engine

import (
	"fmt"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// PatternError is a rule regex that failed to compile. It is never returned
// from matching; the Matcher records it as a warning and skips the clause.
type PatternError struct {
	RuleID  string
	Clause  int    // Index into trigger.any_of
	Pattern string // The offending regex as authored
	Err     error
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("rule %s: trigger.any_of[%d]: %v", e.RuleID, e.Clause, e.Err)
}

// Unwrap returns the underlying regexp error.
func (e *PatternError) Unwrap() error {
	return e.Err
}

// Warning converts the error into the report's warning shape.
func (e *PatternError) Warning() ir.Warning {
	return ir.Warning{
		RuleID:   e.RuleID,
		Location: fmt.Sprintf("trigger.any_of[%d]", e.Clause),
		Pattern:  e.Pattern,
		Message:  fmt.Sprintf("%v; clause skipped", e.Err),
	}
}
