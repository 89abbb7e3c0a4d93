package expect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

var red = ir.RGB(0.9, 0.1, 0.1)

func screen(id, name string, children ...ir.Element) ir.Screen {
	return ir.Screen{
		ID:     id,
		Name:   name,
		Width:  375,
		Height: 812,
		Root:   ir.Element{ID: id + ":root", Name: name, Kind: ir.KindFrame, Children: children},
	}
}

func input(id, name string, paints ...ir.Paint) ir.Element {
	return ir.Element{ID: id, Name: name, Kind: ir.KindInstance, Component: "TextField", Strokes: paints}
}

func errorRule() *ir.Rule {
	return &ir.Rule{
		ID:       "form-error-state",
		Category: "error-state",
		Required: true,
		Satisfy:  ir.SatisfyAll,
		Expect: []ir.Expectation{{
			Kind:   ir.ExpectSiblingCue,
			Cue:    ir.CueError,
			Reason: "no error sibling",
		}},
	}
}

func triggered(r *ir.Rule, p ir.DetectedPattern) ir.TriggeredRule {
	return ir.TriggeredRule{Rule: r, RuleID: r.ID, Patterns: []ir.DetectedPattern{p}}
}

func TestCheck_SiblingCue(t *testing.T) {
	rule := errorRule()
	login := screen("1", "Login", input("e", "Email"), input("p", "Password"))
	form := ir.DetectedPattern{Type: ir.PatternForm, ElementID: "1:root"}
	tr := []ir.TriggeredRule{triggered(rule, form)}
	c := NewChecker([]*ir.Rule{rule})

	t.Run("alone in flow is unmet", func(t *testing.T) {
		unmet := c.Check(tr, &login, nil, []ir.Screen{login})
		require.Len(t, unmet, 1)
		assert.Equal(t, "no error sibling", unmet[0].Reason)
		assert.Equal(t, "form-error-state", unmet[0].Triggered.RuleID)
	})

	t.Run("sibling without cue is unmet", func(t *testing.T) {
		loading := screen("2", "Login - Loading", input("e", "Email"), input("p", "Password"))
		unmet := c.Check(tr, &login, nil, []ir.Screen{login, loading})
		assert.Len(t, unmet, 1)
	})

	t.Run("one error sibling is enough", func(t *testing.T) {
		loading := screen("2", "Login - Loading", input("e", "Email"))
		failed := screen("3", "Login - Error", input("e", "Email", red), input("p", "Password"))
		unmet := c.Check(tr, &login, nil, []ir.Screen{login, loading, failed})
		assert.Empty(t, unmet)
	})

	t.Run("error text counts", func(t *testing.T) {
		msg := ir.Element{ID: "m", Name: "Error message", Kind: ir.KindText, Text: "Wrong password", Fills: []ir.Paint{red}}
		failed := screen("3", "Login - Error", input("e", "Email"), msg)
		unmet := c.Check(tr, &login, nil, []ir.Screen{login, failed})
		assert.Empty(t, unmet)
	})

	t.Run("the error variant itself is met", func(t *testing.T) {
		failed := screen("3", "Login - Error", input("e", "Email", red), input("p", "Password"))
		onFailed := []ir.TriggeredRule{triggered(rule, ir.DetectedPattern{Type: ir.PatternForm, ElementID: "3:root"})}
		unmet := c.Check(onFailed, &failed, nil, []ir.Screen{login, failed})
		assert.Empty(t, unmet)
	})

	t.Run("the error variant alone is unmet", func(t *testing.T) {
		failed := screen("3", "Login - Error", input("e", "Email", red))
		unmet := c.Check(tr, &failed, nil, []ir.Screen{failed})
		assert.Len(t, unmet, 1)
	})

	t.Run("cue already on base is not new", func(t *testing.T) {
		base := screen("1", "Login", input("e", "Email", red))
		failed := screen("3", "Login - Error", input("e", "Email", red))
		unmet := c.Check(tr, &base, nil, []ir.Screen{base, failed})
		assert.Len(t, unmet, 1)
	})
}

func TestCheck_SiblingCueComponentFilter(t *testing.T) {
	rule := errorRule()
	rule.Expect[0].Components = []string{"input", "textfield"}
	c := NewChecker([]*ir.Rule{rule})

	login := screen("1", "Login", input("e", "Email"))
	tr := []ir.TriggeredRule{triggered(rule, ir.DetectedPattern{Type: ir.PatternFormField, ElementID: "e"})}

	redBanner := ir.Element{ID: "b", Name: "Banner", Kind: ir.KindInstance, Component: "Banner", Fills: []ir.Paint{red}}
	other := screen("2", "Login - Error", input("e", "Email"), redBanner)
	assert.Len(t, c.Check(tr, &login, nil, []ir.Screen{other}), 1, "filtered out family does not count")

	matching := screen("3", "Login - Error", input("e", "Email", red))
	assert.Empty(t, c.Check(tr, &login, nil, []ir.Screen{matching}))
}

func TestCheck_CompanionPattern(t *testing.T) {
	rule := &ir.Rule{
		ID:      "destructive-confirmation",
		Satisfy: ir.SatisfyAll,
		Expect: []ir.Expectation{{
			Kind:     ir.ExpectCompanionPattern,
			Patterns: []ir.PatternType{ir.PatternConfirmationDialog},
		}},
	}
	c := NewChecker([]*ir.Rule{rule})
	dash := screen("1", "Dashboard")
	del := ir.DetectedPattern{Type: ir.PatternDestructiveAction, ElementID: "d"}
	tr := []ir.TriggeredRule{triggered(rule, del)}

	unmet := c.Check(tr, &dash, []ir.DetectedPattern{del}, nil)
	require.Len(t, unmet, 1)
	assert.Equal(t, "no confirmation-dialog on the same screen", unmet[0].Reason)

	withDialog := []ir.DetectedPattern{del, {Type: ir.PatternConfirmationDialog, ElementID: "dlg"}}
	assert.Empty(t, c.Check(tr, &dash, withDialog, nil))
}

func TestCheck_CompanionIgnoresTriggerItself(t *testing.T) {
	rule := &ir.Rule{
		ID:     "two-lists",
		Expect: []ir.Expectation{{Kind: ir.ExpectCompanionPattern, Patterns: []ir.PatternType{ir.PatternList}}},
	}
	list := ir.DetectedPattern{Type: ir.PatternList, ElementID: "l"}
	s := screen("1", "Items")
	c := NewChecker([]*ir.Rule{rule})

	assert.Len(t, c.Check([]ir.TriggeredRule{triggered(rule, list)}, &s, []ir.DetectedPattern{list}, nil), 1)
}

func TestCheck_ElementPresent(t *testing.T) {
	rule := &ir.Rule{
		ID:     "empty-copy",
		Expect: []ir.Expectation{{Kind: ir.ExpectElementPresent, NamePatterns: []string{"(?i)no results"}}},
	}
	c := NewChecker([]*ir.Rule{rule})
	tr := []ir.TriggeredRule{triggered(rule, ir.DetectedPattern{Type: ir.PatternList})}

	bare := screen("1", "Search")
	assert.Len(t, c.Check(tr, &bare, nil, nil), 1)

	copyText := ir.Element{ID: "t", Name: "Body", Kind: ir.KindText, Text: "No Results found"}
	withCopy := screen("1", "Search", copyText)
	assert.Empty(t, c.Check(tr, &withCopy, nil, nil))
}

func TestCheck_SatisfyAny(t *testing.T) {
	rule := &ir.Rule{
		ID:      "destructive-confirmation",
		Satisfy: ir.SatisfyAny,
		Expect: []ir.Expectation{
			{Kind: ir.ExpectCompanionPattern, Patterns: []ir.PatternType{ir.PatternConfirmationDialog}, Reason: "no dialog"},
			{Kind: ir.ExpectSiblingScreen, NamePatterns: []string{"confirm"}, Reason: "no confirm screen"},
		},
	}
	c := NewChecker([]*ir.Rule{rule})
	settings := screen("1", "Settings")
	tr := []ir.TriggeredRule{triggered(rule, ir.DetectedPattern{Type: ir.PatternDestructiveAction, ElementID: "d"})}

	unmet := c.Check(tr, &settings, nil, []ir.Screen{settings})
	require.Len(t, unmet, 1, "any reports one combined entry")
	assert.Equal(t, "no dialog; no confirm screen", unmet[0].Reason)
	assert.Equal(t, ir.ExpectCompanionPattern, unmet[0].Expectation.Kind)

	confirm := screen("2", "Settings - Confirm delete")
	assert.Empty(t, c.Check(tr, &settings, nil, []ir.Screen{settings, confirm}))
}

func TestCheck_SatisfyAllReportsEach(t *testing.T) {
	rule := &ir.Rule{
		ID:      "r",
		Satisfy: ir.SatisfyAll,
		Expect: []ir.Expectation{
			{Kind: ir.ExpectSiblingScreen, NamePatterns: []string{"loading"}},
			{Kind: ir.ExpectSiblingScreen, NamePatterns: []string{"empty"}},
		},
	}
	s := screen("1", "Inbox")
	loading := screen("2", "Inbox - Loading")
	tr := []ir.TriggeredRule{triggered(rule, ir.DetectedPattern{Type: ir.PatternList})}

	unmet := NewChecker([]*ir.Rule{rule}).Check(tr, &s, nil, []ir.Screen{s, loading})
	require.Len(t, unmet, 1)
	assert.Equal(t, "no sibling screen named like empty", unmet[0].Reason)
}

func TestCheck_InvalidPatternIgnored(t *testing.T) {
	rule := &ir.Rule{
		ID: "r",
		Expect: []ir.Expectation{{
			Kind:         ir.ExpectSiblingScreen,
			NamePatterns: []string{"(broken", "error"},
		}},
	}
	c := NewChecker([]*ir.Rule{rule})

	require.Len(t, c.Warnings(), 1)
	assert.Equal(t, "expect[0].name_patterns[0]", c.Warnings()[0].Location)

	s := screen("1", "Login")
	sib := screen("2", "Login - Error")
	tr := []ir.TriggeredRule{triggered(rule, ir.DetectedPattern{Type: ir.PatternForm})}
	assert.NotPanics(t, func() {
		assert.Empty(t, c.Check(tr, &s, nil, []ir.Screen{s, sib}))
	})
}

func TestCheck_NilInputs(t *testing.T) {
	c := NewChecker(nil)
	assert.Empty(t, c.Check(nil, nil, nil, nil))

	s := screen("1", "Login")
	orphan := ir.TriggeredRule{RuleID: "detached"}
	assert.Empty(t, c.Check([]ir.TriggeredRule{orphan}, &s, nil, nil))
}
