// Package expect evaluates the expectations of triggered rules.
//
// Same-screen expectations (companion_pattern, element_present) look at the
// triggering screen only. Cross-screen expectations (sibling_cue,
// sibling_screen) look at the other screens of the same flow group; one
// satisfying sibling is enough. A screen alone in its flow therefore never
// meets a cross-screen expectation.
package expect

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/textmatch"
	"github.com/inv-mschultz/edgy-sub001/internal/tree"
	"github.com/inv-mschultz/edgy-sub001/internal/visual"
)

// Checker holds the compiled expectation regexes of a rule set. It is
// read-only after NewChecker and safe for concurrent use.
type Checker struct {
	patterns map[string]*regexp.Regexp
	warnings []ir.Warning
	logger   *slog.Logger
}

// Option configures optional Checker parameters.
type Option func(*Checker)

// WithLogger sets the logger used to report ignored patterns.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker precompiles every expectation regex in rules. A malformed
// regex is ignored (it can never match) and reported through Warnings.
func NewChecker(rules []*ir.Rule, opts ...Option) *Checker {
	c := &Checker{
		patterns: make(map[string]*regexp.Regexp),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, r := range rules {
		for ei, e := range r.Expect {
			for pi, p := range e.NamePatterns {
				if _, ok := c.patterns[p]; ok {
					continue
				}
				re, err := textmatch.CompilePattern(p)
				if err != nil {
					c.warnings = append(c.warnings, ir.Warning{
						RuleID:   r.ID,
						Location: fmt.Sprintf("expect[%d].name_patterns[%d]", ei, pi),
						Pattern:  p,
						Message:  fmt.Sprintf("%v; pattern ignored", err),
					})
					c.logger.Warn("ignoring expectation pattern", "rule", r.ID, "pattern", p, "error", err)
					continue
				}
				c.patterns[p] = re
			}
		}
	}
	return c
}

// Warnings returns the expectation patterns that failed to compile.
func (c *Checker) Warnings() []ir.Warning {
	return c.warnings
}

// Check evaluates every triggered rule against screen and its flow siblings.
// patterns are the patterns detected on screen. siblings may include screen
// itself; it is skipped.
//
// With satisfy "all" each unmet expectation is reported on its own. With
// satisfy "any" a single UnmetExpectation is reported when none is met,
// carrying the first expectation and the combined reasons.
func (c *Checker) Check(triggered []ir.TriggeredRule, screen *ir.Screen, patterns []ir.DetectedPattern, siblings []ir.Screen) []ir.UnmetExpectation {
	if screen == nil {
		return nil
	}
	sc := &scope{
		checker:  c,
		screen:   screen,
		patterns: patterns,
		siblings: others(screen, siblings),
	}

	var out []ir.UnmetExpectation
	for _, t := range triggered {
		if t.Rule == nil || len(t.Rule.Expect) == 0 {
			continue
		}

		var unmet []ir.UnmetExpectation
		met := false
		for _, e := range t.Rule.Expect {
			if sc.met(t, e) {
				met = true
				continue
			}
			unmet = append(unmet, ir.UnmetExpectation{Triggered: t, Expectation: e, Reason: Reason(e)})
		}

		if t.Rule.Satisfy == ir.SatisfyAny {
			if met {
				continue
			}
			out = append(out, combine(unmet))
			continue
		}
		out = append(out, unmet...)
	}
	return out
}

// scope carries the per-screen lookups; sibling element lists are built on
// first use.
type scope struct {
	checker  *Checker
	screen   *ir.Screen
	patterns []ir.DetectedPattern
	siblings []ir.Screen

	base         []*ir.Element
	siblingElems [][]*ir.Element
}

func (s *scope) met(t ir.TriggeredRule, e ir.Expectation) bool {
	if e.CrossScreen() && len(s.siblings) == 0 {
		return false
	}
	switch e.Kind {
	case ir.ExpectCompanionPattern:
		return s.hasCompanion(t.Primary(), e.Patterns)
	case ir.ExpectElementPresent:
		return s.hasElement(e.NamePatterns)
	case ir.ExpectSiblingCue:
		return s.siblingHasCue(e.Cue, e.Components)
	case ir.ExpectSiblingScreen:
		return s.siblingNamed(e.NamePatterns)
	}
	return false
}

// hasCompanion reports whether the screen has a pattern of one of types
// other than the triggering instance itself.
func (s *scope) hasCompanion(primary ir.DetectedPattern, types []ir.PatternType) bool {
	for _, p := range s.patterns {
		if p.Type == primary.Type && p.ElementID == primary.ElementID {
			continue
		}
		for _, t := range types {
			if p.Type == t {
				return true
			}
		}
	}
	return false
}

func (s *scope) hasElement(patterns []string) bool {
	res := s.checker.compiled(patterns)
	if len(res) == 0 {
		return false
	}
	return tree.Any(&s.screen.Root, func(el *ir.Element) bool {
		return el.IsVisible() && textmatch.MatchAny(res, el.Name, el.Text)
	})
}

// siblingHasCue reports whether the flow shows cue as a distinct state:
// some sibling carries it where this screen does not, or this screen
// carries it where a sibling does not. In the second case the screen is
// itself the variant, such as "Login - Error" next to "Login".
func (s *scope) siblingHasCue(cue ir.Cue, components []string) bool {
	if s.base == nil {
		s.base = visual.Elements(&s.screen.Root)
		for i := range s.siblings {
			s.siblingElems = append(s.siblingElems, visual.Elements(&s.siblings[i].Root))
		}
	}

	filters := components
	if len(filters) == 0 {
		filters = []string{""}
	}
	for _, sib := range s.siblingElems {
		for _, f := range filters {
			if visual.SiblingHasNewCue(s.base, sib, cue, f) || visual.SiblingHasNewCue(sib, s.base, cue, f) {
				return true
			}
		}
	}
	return false
}

func (s *scope) siblingNamed(patterns []string) bool {
	res := s.checker.compiled(patterns)
	for _, sib := range s.siblings {
		if textmatch.MatchAny(res, sib.Name) {
			return true
		}
	}
	return false
}

// compiled returns the regexes for patterns, compiling any the Checker was
// not built with. Invalid patterns are dropped.
func (c *Checker) compiled(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, ok := c.patterns[p]; ok {
			res = append(res, re)
			continue
		}
		if re, err := textmatch.CompilePattern(p); err == nil {
			res = append(res, re)
		}
	}
	return res
}

// others returns siblings without screen itself.
func others(screen *ir.Screen, siblings []ir.Screen) []ir.Screen {
	out := make([]ir.Screen, 0, len(siblings))
	for _, s := range siblings {
		if s.ID == screen.ID && s.Name == screen.Name {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Reason returns the expectation's authored reason, or a generic one
// derived from its kind.
func Reason(e ir.Expectation) string {
	if e.Reason != "" {
		return e.Reason
	}
	switch e.Kind {
	case ir.ExpectCompanionPattern:
		return fmt.Sprintf("no %s on the same screen", joinTypes(e.Patterns))
	case ir.ExpectElementPresent:
		return fmt.Sprintf("no element matching %s on the same screen", strings.Join(e.NamePatterns, ", "))
	case ir.ExpectSiblingCue:
		return fmt.Sprintf("no sibling screen shows a new %s cue", e.Cue)
	case ir.ExpectSiblingScreen:
		return fmt.Sprintf("no sibling screen named like %s", strings.Join(e.NamePatterns, ", "))
	}
	return "expectation not met"
}

func joinTypes(types []ir.PatternType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, " or ")
}

func combine(unmet []ir.UnmetExpectation) ir.UnmetExpectation {
	out := unmet[0]
	if len(unmet) == 1 {
		return out
	}
	reasons := make([]string, len(unmet))
	for i, u := range unmet {
		reasons[i] = u.Reason
	}
	out.Reason = strings.Join(reasons, "; ")
	return out
}
