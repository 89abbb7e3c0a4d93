package compiler

import (
	"fmt"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/textmatch"
)

// LintWarning is a corpus problem that does not stop a load.
//
// Lint findings are warnings, not errors, because the corpus still works:
// a clause with a bad regex is skipped at match time, and a pattern type the
// built-in detector never emits may come from a custom keyword table.
type LintWarning struct {
	RuleID  string `json:"rule_id,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Level   string `json:"level"` // "warning" or "info"
}

const (
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// Lint inspects compiled rules and flow rules for problems the schema
// cannot catch. Results follow corpus order.
func Lint(rules []ir.Rule, flows []ir.FlowRule) []LintWarning {
	known := make(map[ir.PatternType]bool, len(ir.KnownPatternTypes))
	for _, t := range ir.KnownPatternTypes {
		known[t] = true
	}

	var out []LintWarning
	for _, r := range rules {
		usable := 0
		for i, c := range r.Trigger.AnyOf {
			field := fmt.Sprintf("trigger.any_of[%d]", i)
			ok := true
			for _, t := range clausePatternTypes(c) {
				if !known[t] {
					out = append(out, LintWarning{RuleID: r.ID, Field: field, Level: LevelInfo,
						Message: fmt.Sprintf("pattern type %q is not emitted by the built-in detector", t)})
				}
			}
			if _, idx, err := textmatch.CompileAll(c.NamePatterns); err != nil {
				ok = false
				out = append(out, LintWarning{RuleID: r.ID, Field: fmt.Sprintf("%s.name_patterns[%d]", field, idx), Level: LevelWarning,
					Message: fmt.Sprintf("%v; the clause will be skipped", err)})
			}
			if ok {
				usable++
			}
		}
		if usable == 0 && len(r.Trigger.AnyOf) > 0 {
			out = append(out, LintWarning{RuleID: r.ID, Field: "trigger.any_of", Level: LevelWarning,
				Message: "every trigger clause is invalid; the rule can never fire"})
		}

		for i, e := range r.Expect {
			field := fmt.Sprintf("expect[%d]", i)
			for _, t := range e.Patterns {
				if !known[t] {
					out = append(out, LintWarning{RuleID: r.ID, Field: field, Level: LevelInfo,
						Message: fmt.Sprintf("pattern type %q is not emitted by the built-in detector", t)})
				}
			}
			if _, idx, err := textmatch.CompileAll(e.NamePatterns); err != nil {
				out = append(out, LintWarning{RuleID: r.ID, Field: fmt.Sprintf("%s.name_patterns[%d]", field, idx), Level: LevelWarning,
					Message: fmt.Sprintf("%v; the pattern will be ignored", err)})
			}
		}
	}

	for _, f := range flows {
		if len(f.Keywords) == 0 {
			out = append(out, LintWarning{Field: "flows." + f.FlowType, Level: LevelInfo,
				Message: "no keywords; the flow type is only checked when supplied explicitly"})
		}
		for i, s := range f.Screens {
			if _, idx, err := textmatch.CompileAll(s.NamePatterns); err != nil {
				out = append(out, LintWarning{Field: fmt.Sprintf("flows.%s.screens[%d].name_patterns[%d]", f.FlowType, i, idx), Level: LevelWarning,
					Message: fmt.Sprintf("%v; the pattern will be ignored", err)})
			}
		}
	}
	return out
}

func clausePatternTypes(c ir.TriggerClause) []ir.PatternType {
	switch c.Kind {
	case ir.ClausePattern:
		return []ir.PatternType{c.Pattern}
	case ir.ClauseCoOccurs:
		return c.CoOccurs
	}
	return nil
}
