package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/inv-mschultz/edgy-sub001/internal/finding"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// CompileRule parses one entry of a document's rules list into an ir.Rule.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is expected to have been conformed to the schema first, so
// shape errors are already ruled out; CompileRule still checks what the
// schema cannot express, such as template syntax.
//
//	doc, _ := schema.Conform(ctx.CompileBytes(src))
//	rule, err := CompileRule(doc.LookupPath(cue.ParsePath("rules[0]")))
func CompileRule(v cue.Value) (*ir.Rule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rule := &ir.Rule{}
	var err error

	if rule.ID, err = requiredString(v, "id"); err != nil {
		return nil, err
	}
	if rule.Category, err = requiredString(v, "category"); err != nil {
		return nil, err
	}
	if rule.Title, err = requiredString(v, "title"); err != nil {
		return nil, err
	}
	if rule.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if rule.Recommendation, err = optionalString(v, "recommendation"); err != nil {
		return nil, err
	}

	severity, err := optionalString(v, "severity")
	if err != nil {
		return nil, err
	}
	rule.Severity = ir.Severity(severity)
	if rule.Severity != "" && !ir.ValidSeverities[rule.Severity] {
		return nil, &CompileError{
			Field:   "severity",
			Message: fmt.Sprintf("invalid severity %q (want critical, warning or info)", severity),
			Pos:     v.LookupPath(cue.ParsePath("severity")).Pos(),
		}
	}

	if rule.Required, err = boolField(v, "required", true); err != nil {
		return nil, err
	}
	satisfy, err := defaultedString(v, "satisfy", string(ir.SatisfyAll))
	if err != nil {
		return nil, err
	}
	rule.Satisfy = ir.SatisfyMode(satisfy)

	if err := checkTemplates(v, rule); err != nil {
		return nil, err
	}

	if rule.Trigger, err = parseTrigger(v); err != nil {
		return nil, err
	}
	if len(rule.Trigger.AnyOf) == 0 {
		return nil, &CompileError{
			Field:   "trigger.any_of",
			Message: "at least one trigger clause is required",
			Pos:     v.Pos(),
		}
	}

	err = eachElem(v, "expect", func(i int, elem cue.Value) error {
		exp, err := parseExpectation(elem, fmt.Sprintf("expect[%d]", i))
		if err != nil {
			return err
		}
		rule.Expect = append(rule.Expect, exp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(rule.Expect) == 0 {
		return nil, &CompileError{
			Field:   "expect",
			Message: "at least one expectation is required",
			Pos:     v.Pos(),
		}
	}

	return rule, nil
}

// checkTemplates parses and trial-renders the authored text fields so a
// broken template fails the load rather than the run.
func checkTemplates(v cue.Value, rule *ir.Rule) error {
	fields := []struct {
		name string
		text string
	}{
		{"title", rule.Title},
		{"description", rule.Description},
		{"recommendation", rule.Recommendation},
	}
	for _, f := range fields {
		if _, err := finding.ParseTemplate(f.name, f.text); err != nil {
			return &CompileError{
				Field:   f.name,
				Message: fmt.Sprintf("invalid template: %v", err),
				Pos:     v.LookupPath(cue.ParsePath(f.name)).Pos(),
			}
		}
	}
	return nil
}

// parseTrigger extracts the any_of clause list. Each clause carries exactly
// one of pattern, name_patterns, component_names or co_occurs.
func parseTrigger(v cue.Value) (ir.Trigger, error) {
	var trigger ir.Trigger
	err := eachElem(v, "trigger.any_of", func(i int, elem cue.Value) error {
		field := fmt.Sprintf("trigger.any_of[%d]", i)
		clause, err := parseClause(elem, field)
		if err != nil {
			return err
		}
		trigger.AnyOf = append(trigger.AnyOf, clause)
		return nil
	})
	return trigger, err
}

func parseClause(v cue.Value, field string) (ir.TriggerClause, error) {
	var present []ir.ClauseKind
	for _, k := range []ir.ClauseKind{ir.ClausePattern, ir.ClauseNamePatterns, ir.ClauseComponentNames, ir.ClauseCoOccurs} {
		if v.LookupPath(cue.ParsePath(string(k))).Exists() {
			present = append(present, k)
		}
	}
	if len(present) != 1 {
		return ir.TriggerClause{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("clause must set exactly one of pattern, name_patterns, component_names, co_occurs (found %d)", len(present)),
			Pos:     v.Pos(),
		}
	}

	clause := ir.TriggerClause{Kind: present[0]}
	switch clause.Kind {
	case ir.ClausePattern:
		s, err := requiredString(v, "pattern")
		if err != nil {
			return clause, prefixField(err, field)
		}
		clause.Pattern = ir.PatternType(s)
	case ir.ClauseNamePatterns:
		list, err := stringList(v, "name_patterns")
		if err != nil {
			return clause, prefixField(err, field)
		}
		clause.NamePatterns = list
	case ir.ClauseComponentNames:
		list, err := stringList(v, "component_names")
		if err != nil {
			return clause, prefixField(err, field)
		}
		clause.ComponentNames = list
	case ir.ClauseCoOccurs:
		list, err := stringList(v, "co_occurs")
		if err != nil {
			return clause, prefixField(err, field)
		}
		if len(list) != 2 {
			return clause, &CompileError{
				Field:   field + ".co_occurs",
				Message: fmt.Sprintf("co_occurs needs exactly two pattern types, got %d", len(list)),
				Pos:     v.Pos(),
			}
		}
		clause.CoOccurs = []ir.PatternType{ir.PatternType(list[0]), ir.PatternType(list[1])}
	}
	return clause, nil
}

func parseExpectation(v cue.Value, field string) (ir.Expectation, error) {
	var exp ir.Expectation

	kind, err := requiredString(v, "kind")
	if err != nil {
		return exp, prefixField(err, field)
	}
	exp.Kind = ir.ExpectationKind(kind)

	patterns, err := stringList(v, "patterns")
	if err != nil {
		return exp, prefixField(err, field)
	}
	for _, p := range patterns {
		exp.Patterns = append(exp.Patterns, ir.PatternType(p))
	}
	if exp.NamePatterns, err = stringList(v, "name_patterns"); err != nil {
		return exp, prefixField(err, field)
	}
	if exp.Components, err = stringList(v, "components"); err != nil {
		return exp, prefixField(err, field)
	}
	cueName, err := optionalString(v, "cue")
	if err != nil {
		return exp, prefixField(err, field)
	}
	exp.Cue = ir.Cue(cueName)
	if exp.Reason, err = optionalString(v, "reason"); err != nil {
		return exp, prefixField(err, field)
	}

	missing := ""
	switch exp.Kind {
	case ir.ExpectCompanionPattern:
		if len(exp.Patterns) == 0 {
			missing = "patterns"
		}
	case ir.ExpectElementPresent, ir.ExpectSiblingScreen:
		if len(exp.NamePatterns) == 0 {
			missing = "name_patterns"
		}
	case ir.ExpectSiblingCue:
		if exp.Cue == "" || exp.Cue == ir.CueNone {
			missing = "cue"
		}
	default:
		return exp, &CompileError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("unknown expectation kind %q", kind),
			Pos:     v.Pos(),
		}
	}
	if missing != "" {
		return exp, &CompileError{
			Field:   field + "." + missing,
			Message: fmt.Sprintf("%s expectation requires %s", exp.Kind, missing),
			Pos:     v.Pos(),
		}
	}
	return exp, nil
}

// prefixField qualifies a nested CompileError's field with its parent path.
func prefixField(err error, prefix string) error {
	if ce, ok := err.(*CompileError); ok {
		return &CompileError{Field: prefix + "." + ce.Field, Message: ce.Message, Pos: ce.Pos}
	}
	return err
}
