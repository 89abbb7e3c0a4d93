package engine

import (
	"io"
	"log/slog"
	"regexp"
	"sort"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/textmatch"
)

// Matcher evaluates a fixed rule set against detected patterns. Build one
// per run with NewMatcher; it is read-only afterwards and safe for
// concurrent use by per-screen workers.
type Matcher struct {
	rules    []compiledRule
	warnings []ir.Warning
	logger   *slog.Logger
}

// MatcherOption configures optional Matcher parameters.
type MatcherOption func(*Matcher)

// WithLogger sets the logger used to report skipped clauses.
func WithLogger(logger *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		m.logger = logger
	}
}

type compiledRule struct {
	rule    *ir.Rule
	clauses []compiledClause // Valid clauses only
}

type compiledClause struct {
	index  int
	clause ir.TriggerClause
	names  []*regexp.Regexp
}

// NewMatcher compiles the rules' trigger clauses. Rules are copied; the
// caller's slice is not retained.
func NewMatcher(rules []ir.Rule, opts ...MatcherOption) *Matcher {
	m := &Matcher{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(m)
	}

	owned := make([]ir.Rule, len(rules))
	copy(owned, rules)

	for i := range owned {
		r := &owned[i]
		cr := compiledRule{rule: r}
		for ci, c := range r.Trigger.AnyOf {
			cc := compiledClause{index: ci, clause: c}
			if c.Kind == ir.ClauseNamePatterns {
				res, bad, err := textmatch.CompileAll(c.NamePatterns)
				if err != nil {
					pe := &PatternError{RuleID: r.ID, Clause: ci, Pattern: c.NamePatterns[bad], Err: err}
					m.warnings = append(m.warnings, pe.Warning())
					m.logger.Warn("skipping trigger clause", "rule", r.ID, "clause", ci, "error", err)
					continue
				}
				cc.names = res
			}
			cr.clauses = append(cr.clauses, cc)
		}
		m.rules = append(m.rules, cr)
	}
	return m
}

// Warnings returns the clauses skipped while compiling, in rule order.
func (m *Matcher) Warnings() []ir.Warning {
	return m.warnings
}

// Rules returns the matcher's rules in declaration order.
func (m *Matcher) Rules() []*ir.Rule {
	out := make([]*ir.Rule, len(m.rules))
	for i, cr := range m.rules {
		out[i] = cr.rule
	}
	return out
}

// MatchRules is a convenience wrapper for one-off matching.
func MatchRules(patterns []ir.DetectedPattern, rules []ir.Rule) ([]ir.TriggeredRule, []ir.Warning) {
	m := NewMatcher(rules)
	return m.Match("", patterns), m.Warnings()
}

// hit is one triggering instance before ordering.
type hit struct {
	order     int // Index of the primary pattern in the input
	triggered ir.TriggeredRule
}

// Match returns the triggered rules for one screen's patterns: one per
// (rule, triggering pattern) pair. When several clauses of a rule match the
// same pattern, the first clause claims it.
func (m *Matcher) Match(screenID string, patterns []ir.DetectedPattern) []ir.TriggeredRule {
	var out []ir.TriggeredRule
	for _, cr := range m.rules {
		var hits []hit
		claimed := make(map[int]bool)

		for _, cc := range cr.clauses {
			for _, h := range matchClause(cc, patterns) {
				if claimed[h.order] {
					continue
				}
				claimed[h.order] = true
				h.triggered.Rule = cr.rule
				h.triggered.RuleID = cr.rule.ID
				h.triggered.ScreenID = screenID
				h.triggered.Clause = cc.index
				hits = append(hits, h)
			}
		}

		sort.SliceStable(hits, func(i, j int) bool { return hits[i].order < hits[j].order })
		for _, h := range hits {
			out = append(out, h.triggered)
		}
		if len(hits) > 0 {
			m.logger.Debug("rule triggered", "rule", cr.rule.ID, "screen", screenID, "hits", len(hits))
		}
	}
	return out
}

func matchClause(cc compiledClause, patterns []ir.DetectedPattern) []hit {
	var hits []hit
	single := func(i int) {
		hits = append(hits, hit{order: i, triggered: ir.TriggeredRule{Patterns: []ir.DetectedPattern{patterns[i]}}})
	}

	switch cc.clause.Kind {
	case ir.ClausePattern:
		for i, p := range patterns {
			if p.Type == cc.clause.Pattern {
				single(i)
			}
		}

	case ir.ClauseNamePatterns:
		for i, p := range patterns {
			if textmatch.MatchAny(cc.names, p.ElementName(), p.Label, elementText(p)) {
				single(i)
			}
		}

	case ir.ClauseComponentNames:
		for i, p := range patterns {
			if p.Element == nil {
				continue
			}
			if _, ok := textmatch.ContainsAnyFold(p.Element.Family(), cc.clause.ComponentNames); ok {
				single(i)
			}
		}

	case ir.ClauseCoOccurs:
		if len(cc.clause.CoOccurs) != 2 {
			return nil
		}
		a, b := cc.clause.CoOccurs[0], cc.clause.CoOccurs[1]
		for i, p := range patterns {
			if p.Type != a {
				continue
			}
			if j := partner(patterns, b, i); j >= 0 {
				hits = append(hits, hit{order: i, triggered: ir.TriggeredRule{
					Patterns: []ir.DetectedPattern{p, patterns[j]},
				}})
			}
		}
	}
	return hits
}

// partner finds the first pattern of type t other than the one at self.
func partner(patterns []ir.DetectedPattern, t ir.PatternType, self int) int {
	for j, p := range patterns {
		if j != self && p.Type == t {
			return j
		}
	}
	return -1
}

func elementText(p ir.DetectedPattern) string {
	if p.Element == nil {
		return ""
	}
	return p.Element.Text
}
