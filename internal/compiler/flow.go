package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// CompileFlowRule parses one entry of a document's flows list.
func CompileFlowRule(v cue.Value) (*ir.FlowRule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	flow := &ir.FlowRule{}
	var err error

	if flow.FlowType, err = requiredString(v, "flow_type"); err != nil {
		return nil, err
	}
	if flow.Name, err = optionalString(v, "name"); err != nil {
		return nil, err
	}
	if flow.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if flow.Keywords, err = stringList(v, "keywords"); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	err = eachElem(v, "screens", func(i int, elem cue.Value) error {
		field := fmt.Sprintf("screens[%d]", i)
		screen, err := parseExpectedScreen(elem, field)
		if err != nil {
			return err
		}
		if seen[screen.ID] {
			return &CompileError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate expected screen id %q", screen.ID),
				Pos:     elem.Pos(),
			}
		}
		seen[screen.ID] = true
		flow.Screens = append(flow.Screens, screen)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(flow.Screens) == 0 {
		return nil, &CompileError{
			Field:   "screens",
			Message: "at least one expected screen is required",
			Pos:     v.Pos(),
		}
	}
	return flow, nil
}

func parseExpectedScreen(v cue.Value, field string) (ir.ExpectedScreen, error) {
	var s ir.ExpectedScreen
	var err error

	if s.ID, err = requiredString(v, "id"); err != nil {
		return s, prefixField(err, field)
	}
	if s.Name, err = requiredString(v, "name"); err != nil {
		return s, prefixField(err, field)
	}
	if s.Description, err = optionalString(v, "description"); err != nil {
		return s, prefixField(err, field)
	}
	if s.Required, err = boolField(v, "required", true); err != nil {
		return s, prefixField(err, field)
	}
	severity, err := optionalString(v, "severity")
	if err != nil {
		return s, prefixField(err, field)
	}
	s.Severity = ir.Severity(severity)
	if s.Severity != "" && !ir.ValidSeverities[s.Severity] {
		return s, &CompileError{
			Field:   field + ".severity",
			Message: fmt.Sprintf("invalid severity %q", severity),
			Pos:     v.Pos(),
		}
	}
	if s.NamePatterns, err = stringList(v, "name_patterns"); err != nil {
		return s, prefixField(err, field)
	}
	if s.Components, err = stringList(v, "components"); err != nil {
		return s, prefixField(err, field)
	}
	if len(s.NamePatterns) == 0 && len(s.Components) == 0 {
		return s, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expected screen %q needs name_patterns or components to detect it", s.ID),
			Pos:     v.Pos(),
		}
	}

	err = eachElem(v, "suggestions", func(i int, elem cue.Value) error {
		sf := fmt.Sprintf("%s.suggestions[%d]", field, i)
		component, err := requiredString(elem, "component")
		if err != nil {
			return prefixField(err, sf)
		}
		variant, err := optionalString(elem, "variant")
		if err != nil {
			return prefixField(err, sf)
		}
		s.Suggestions = append(s.Suggestions, ir.ComponentSuggestion{Component: component, Variant: variant})
		return nil
	})
	return s, err
}
