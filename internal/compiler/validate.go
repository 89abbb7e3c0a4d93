package compiler

import (
	"fmt"
	"strings"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// Rule errors (E101-E119)
	ErrRuleIDEmpty          = "E101" // id is required
	ErrRuleCategoryEmpty    = "E102" // category is required
	ErrRuleTitleEmpty       = "E103" // title is required
	ErrInvalidSeverity      = "E104" // severity not critical|warning|info
	ErrInvalidSatisfy       = "E105" // satisfy not all|any
	ErrNoTriggerClauses     = "E106" // trigger.any_of is empty
	ErrInvalidTriggerClause = "E107" // clause kind/fields mismatch
	ErrNoExpectations       = "E108" // expect is empty
	ErrInvalidExpectation   = "E109" // expectation kind/fields mismatch

	// FlowRule errors (E110-E119)
	ErrFlowTypeEmpty         = "E110" // flow_type is required
	ErrNoExpectedScreens     = "E111" // screens is empty
	ErrExpectedScreenInvalid = "E112" // screen id/name/predicates missing
	ErrDuplicateScreenID     = "E113" // duplicate expected screen id
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled IR against the rules CompileRule and
// CompileFlowRule enforce. Corpus documents are already checked at compile
// time; Validate covers rules and flows built in Go.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch val := v.(type) {
	case *ir.Rule:
		return validateRule(val)
	case ir.Rule:
		return validateRule(&val)
	case *ir.FlowRule:
		return validateFlowRule(val)
	case ir.FlowRule:
		return validateFlowRule(&val)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateRule(rule *ir.Rule) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if strings.TrimSpace(rule.ID) == "" {
		add("id", ErrRuleIDEmpty, "id is required and must be non-empty")
	}
	if strings.TrimSpace(rule.Category) == "" {
		add("category", ErrRuleCategoryEmpty, "category is required and must be non-empty")
	}
	if strings.TrimSpace(rule.Title) == "" {
		add("title", ErrRuleTitleEmpty, "title is required and must be non-empty")
	}
	if rule.Severity != "" && !ir.ValidSeverities[rule.Severity] {
		add("severity", ErrInvalidSeverity, "invalid severity %q", rule.Severity)
	}
	if rule.Satisfy != "" && rule.Satisfy != ir.SatisfyAll && rule.Satisfy != ir.SatisfyAny {
		add("satisfy", ErrInvalidSatisfy, "invalid satisfy mode %q, must be \"all\" or \"any\"", rule.Satisfy)
	}

	if len(rule.Trigger.AnyOf) == 0 {
		add("trigger.any_of", ErrNoTriggerClauses, "at least one trigger clause is required")
	}
	for i, c := range rule.Trigger.AnyOf {
		field := fmt.Sprintf("trigger.any_of[%d]", i)
		switch c.Kind {
		case ir.ClausePattern:
			if c.Pattern == "" {
				add(field, ErrInvalidTriggerClause, "pattern clause requires a pattern type")
			}
		case ir.ClauseNamePatterns:
			if len(c.NamePatterns) == 0 {
				add(field, ErrInvalidTriggerClause, "name_patterns clause requires at least one pattern")
			}
		case ir.ClauseComponentNames:
			if len(c.ComponentNames) == 0 {
				add(field, ErrInvalidTriggerClause, "component_names clause requires at least one name")
			}
		case ir.ClauseCoOccurs:
			if len(c.CoOccurs) != 2 {
				add(field, ErrInvalidTriggerClause, "co_occurs clause requires exactly two pattern types")
			}
		default:
			add(field, ErrInvalidTriggerClause, "unknown clause kind %q", c.Kind)
		}
	}

	if len(rule.Expect) == 0 {
		add("expect", ErrNoExpectations, "at least one expectation is required")
	}
	for i, e := range rule.Expect {
		field := fmt.Sprintf("expect[%d]", i)
		switch e.Kind {
		case ir.ExpectCompanionPattern:
			if len(e.Patterns) == 0 {
				add(field, ErrInvalidExpectation, "companion_pattern requires patterns")
			}
		case ir.ExpectElementPresent, ir.ExpectSiblingScreen:
			if len(e.NamePatterns) == 0 {
				add(field, ErrInvalidExpectation, "%s requires name_patterns", e.Kind)
			}
		case ir.ExpectSiblingCue:
			if e.Cue == "" || e.Cue == ir.CueNone {
				add(field, ErrInvalidExpectation, "sibling_cue requires a cue")
			}
		default:
			add(field, ErrInvalidExpectation, "unknown expectation kind %q", e.Kind)
		}
	}
	return errs
}

func validateFlowRule(flow *ir.FlowRule) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if strings.TrimSpace(flow.FlowType) == "" {
		add("flow_type", ErrFlowTypeEmpty, "flow_type is required and must be non-empty")
	}
	if len(flow.Screens) == 0 {
		add("screens", ErrNoExpectedScreens, "at least one expected screen is required")
	}
	seen := make(map[string]bool)
	for i, s := range flow.Screens {
		field := fmt.Sprintf("screens[%d]", i)
		if strings.TrimSpace(s.ID) == "" {
			add(field+".id", ErrExpectedScreenInvalid, "id is required")
		} else if seen[s.ID] {
			add(field+".id", ErrDuplicateScreenID, "duplicate expected screen id %q", s.ID)
		}
		seen[s.ID] = true
		if strings.TrimSpace(s.Name) == "" {
			add(field+".name", ErrExpectedScreenInvalid, "name is required")
		}
		if len(s.NamePatterns) == 0 && len(s.Components) == 0 {
			add(field, ErrExpectedScreenInvalid, "name_patterns or components are required to detect the screen")
		}
		if s.Severity != "" && !ir.ValidSeverities[s.Severity] {
			add(field+".severity", ErrInvalidSeverity, "invalid severity %q", s.Severity)
		}
	}
	return errs
}
