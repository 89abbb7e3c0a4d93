package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// conform compiles src in a fresh context and unifies it with the schema.
func conform(t *testing.T, src string) (cue.Value, error) {
	t.Helper()
	ctx := cuecontext.New()
	schema, err := NewSchema(ctx)
	require.NoError(t, err)
	return schema.Conform(ctx.CompileString(src, cue.Filename("test.cue")))
}

func mustConform(t *testing.T, src string) cue.Value {
	t.Helper()
	v, err := conform(t, src)
	require.NoError(t, err)
	return v
}

func elem(list string, i int) cue.Path {
	return cue.MakePath(cue.Str(list), cue.Index(i))
}

const formErrorRule = `
rules: [{
	id:       "form-error-state"
	category: "error-state"
	title:    "{{.Screen}} has no error state"
	recommendation: "Design an error variant of {{.Screen}}."
	trigger: any_of: [
		{pattern: "form"},
		{name_patterns: ["(?i)login", "sign ?in"]},
		{component_names: ["Input"]},
		{co_occurs: ["list", "search"]},
	]
	expect: [{kind: "sibling_cue", cue: "error", components: ["input"], reason: "no sibling shows an error"}]
}]
`

func TestCompileRule(t *testing.T) {
	doc := mustConform(t, formErrorRule)

	rule, err := CompileRule(doc.LookupPath(elem("rules", 0)))
	require.NoError(t, err)

	assert.Equal(t, "form-error-state", rule.ID)
	assert.Equal(t, "error-state", rule.Category)
	assert.True(t, rule.Required, "required defaults to true")
	assert.Equal(t, ir.SatisfyAll, rule.Satisfy, "satisfy defaults to all")
	assert.Empty(t, rule.Severity)

	require.Len(t, rule.Trigger.AnyOf, 4)
	assert.Equal(t, ir.TriggerClause{Kind: ir.ClausePattern, Pattern: ir.PatternForm}, rule.Trigger.AnyOf[0])
	assert.Equal(t, []string{"(?i)login", "sign ?in"}, rule.Trigger.AnyOf[1].NamePatterns)
	assert.Equal(t, []string{"Input"}, rule.Trigger.AnyOf[2].ComponentNames)
	assert.Equal(t, []ir.PatternType{ir.PatternList, ir.PatternSearch}, rule.Trigger.AnyOf[3].CoOccurs)

	require.Len(t, rule.Expect, 1)
	assert.Equal(t, ir.Expectation{
		Kind:       ir.ExpectSiblingCue,
		Cue:        ir.CueError,
		Components: []string{"input"},
		Reason:     "no sibling shows an error",
	}, rule.Expect[0])
}

func TestCompileRuleExplicitFields(t *testing.T) {
	doc := mustConform(t, `
rules: [{
	id: "delete-confirm", category: "destructive-action", title: "Unconfirmed delete"
	severity: "critical", required: false, satisfy: "any"
	trigger: any_of: [{pattern: "destructive-action"}]
	expect: [
		{kind: "companion_pattern", patterns: ["confirmation-dialog", "modal"]},
		{kind: "sibling_screen", name_patterns: ["confirm"]},
	]
}]`)

	rule, err := CompileRule(doc.LookupPath(elem("rules", 0)))
	require.NoError(t, err)
	assert.Equal(t, ir.SeverityCritical, rule.Severity)
	assert.False(t, rule.Required)
	assert.Equal(t, ir.SatisfyAny, rule.Satisfy)
	assert.Equal(t, []ir.PatternType{ir.PatternConfirmationDialog, ir.PatternModal}, rule.Expect[0].Patterns)
}

func TestConformRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown top-level field", `rulez: []`},
		{"unknown rule field", `rules: [{id: "a", category: "c", title: "t", colour: "red", trigger: any_of: [{pattern: "form"}], expect: [{kind: "sibling_cue", cue: "error"}]}]`},
		{"missing id", `rules: [{category: "c", title: "t", trigger: any_of: [{pattern: "form"}], expect: [{kind: "sibling_cue", cue: "error"}]}]`},
		{"empty any_of", `rules: [{id: "a", category: "c", title: "t", trigger: any_of: [], expect: [{kind: "sibling_cue", cue: "error"}]}]`},
		{"clause with two kinds", `rules: [{id: "a", category: "c", title: "t", trigger: any_of: [{pattern: "form", name_patterns: ["x"]}], expect: [{kind: "sibling_cue", cue: "error"}]}]`},
		{"co_occurs of three", `rules: [{id: "a", category: "c", title: "t", trigger: any_of: [{co_occurs: ["a", "b", "c"]}], expect: [{kind: "sibling_cue", cue: "error"}]}]`},
		{"bad severity", `rules: [{id: "a", category: "c", title: "t", severity: "fatal", trigger: any_of: [{pattern: "form"}], expect: [{kind: "sibling_cue", cue: "error"}]}]`},
		{"bad expectation kind", `rules: [{id: "a", category: "c", title: "t", trigger: any_of: [{pattern: "form"}], expect: [{kind: "vibes"}]}]`},
		{"no expectations", `rules: [{id: "a", category: "c", title: "t", trigger: any_of: [{pattern: "form"}], expect: []}]`},
		{"flow without screens", `flows: [{flow_type: "checkout", screens: []}]`},
		{"empty expectation name pattern", `rules: [{id: "a", category: "c", title: "t", trigger: any_of: [{pattern: "form"}], expect: [{kind: "element_present", name_patterns: [""]}]}]`},
		{"empty expected screen name pattern", `flows: [{flow_type: "checkout", screens: [{id: "cart", name: "Cart", name_patterns: ["cart", ""]}]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := conform(t, tt.src)
			require.Error(t, err)
			var ce *CompileError
			assert.True(t, errors.As(err, &ce), "schema failures are CompileErrors")
		})
	}
}

func TestCompileRuleRejectsBrokenTemplate(t *testing.T) {
	doc := mustConform(t, `
rules: [{
	id: "a", category: "c", title: "{{.Screen"
	trigger: any_of: [{pattern: "form"}]
	expect: [{kind: "sibling_cue", cue: "error"}]
}]`)

	_, err := CompileRule(doc.LookupPath(elem("rules", 0)))
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "title", ce.Field)
	assert.Contains(t, ce.Message, "invalid template")
}

func TestCompileRuleExpectationNeedsFields(t *testing.T) {
	doc := mustConform(t, `
rules: [{
	id: "a", category: "c", title: "t"
	trigger: any_of: [{pattern: "form"}]
	expect: [{kind: "companion_pattern"}]
}]`)

	_, err := CompileRule(doc.LookupPath(elem("rules", 0)))
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "expect[0].patterns", ce.Field)
}

func TestCompileRuleKeepsInvalidRegex(t *testing.T) {
	// Bad regexes are a match-time warning, not a load error.
	doc := mustConform(t, `
rules: [{
	id: "a", category: "c", title: "t"
	trigger: any_of: [{name_patterns: ["delete("]}, {pattern: "button"}]
	expect: [{kind: "companion_pattern", patterns: ["modal"]}]
}]`)

	rule, err := CompileRule(doc.LookupPath(elem("rules", 0)))
	require.NoError(t, err)
	assert.Len(t, rule.Trigger.AnyOf, 2)
}

const authFlow = `
flows: [{
	flow_type: "authentication"
	name:      "Authentication"
	keywords:  ["login", "sign in"]
	screens: [
		{id: "login", name: "Login", name_patterns: ["log ?in"]},
		{
			id: "forgot-password", name: "Forgot password", required: false
			name_patterns: ["forgot", "reset"]
			suggestions: [{component: "Input", variant: "Email"}, {component: "Button"}]
		},
	]
}]
`

func TestCompileFlowRule(t *testing.T) {
	doc := mustConform(t, authFlow)

	flow, err := CompileFlowRule(doc.LookupPath(elem("flows", 0)))
	require.NoError(t, err)

	assert.Equal(t, "authentication", flow.FlowType)
	assert.Equal(t, "Authentication", flow.DisplayName())
	assert.Equal(t, []string{"login", "sign in"}, flow.Keywords)
	require.Len(t, flow.Screens, 2)
	assert.True(t, flow.Screens[0].Required)
	assert.False(t, flow.Screens[1].Required)
	assert.Equal(t, []ir.ComponentSuggestion{{Component: "Input", Variant: "Email"}, {Component: "Button"}}, flow.Screens[1].Suggestions)
}

func TestCompileFlowRuleRejectsUndetectableScreen(t *testing.T) {
	doc := mustConform(t, `flows: [{flow_type: "checkout", screens: [{id: "cart", name: "Cart"}]}]`)

	_, err := CompileFlowRule(doc.LookupPath(elem("flows", 0)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs name_patterns or components")
}

func TestCompileFlowRuleRejectsDuplicateScreenIDs(t *testing.T) {
	doc := mustConform(t, `flows: [{flow_type: "checkout", screens: [
		{id: "cart", name: "Cart", name_patterns: ["cart"]},
		{id: "cart", name: "Basket", name_patterns: ["basket"]},
	]}]`)

	_, err := CompileFlowRule(doc.LookupPath(elem("flows", 0)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate expected screen id "cart"`)
}

func TestCompileErrorFormatting(t *testing.T) {
	assert.Equal(t, "title: title is required", (&CompileError{Field: "title", Message: "title is required"}).Error())
}
