package flow

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/inv-mschultz/edgy-sub001/internal/idgen"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/textmatch"
	"github.com/inv-mschultz/edgy-sub001/internal/tree"
)

// MissingGenerator reports expected screens that no extracted screen
// satisfies. Its ID counter ("missing-screen-1", ...) is independent of the
// per-screen finding counter; call Reset at the start of every run.
type MissingGenerator struct {
	ids      *idgen.Counter
	logger   *slog.Logger
	warnings []ir.Warning
	warned   map[string]bool
}

// Option configures optional MissingGenerator parameters.
type Option func(*MissingGenerator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *MissingGenerator) {
		g.logger = logger
	}
}

// NewMissingGenerator creates a generator whose counter starts at zero.
func NewMissingGenerator(opts ...Option) *MissingGenerator {
	g := &MissingGenerator{
		ids:    idgen.NewCounter("missing-screen"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		warned: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Reset rewinds the ID counter and clears collected warnings.
func (g *MissingGenerator) Reset() {
	g.ids.Reset()
	g.warnings = nil
	g.warned = make(map[string]bool)
}

// Warnings returns the expected-screen patterns that failed to compile
// since the last Reset.
func (g *MissingGenerator) Warnings() []ir.Warning {
	return g.warnings
}

// Generate checks every expected screen of each detected flow type against
// the whole screen set. A flow type is processed once however many groups
// it was detected in; types without a flow rule are skipped.
func (g *MissingGenerator) Generate(screens []ir.Screen, detected []ir.DetectedFlowType, flows []ir.FlowRule) []ir.MissingScreenFinding {
	byType := make(map[string]*ir.FlowRule, len(flows))
	for i := range flows {
		if _, ok := byType[flows[i].FlowType]; !ok {
			byType[flows[i].FlowType] = &flows[i]
		}
	}

	placeholder := ir.Placeholder{Width: ir.DefaultPlaceholderWidth, Height: ir.DefaultPlaceholderHeight}
	if len(screens) > 0 {
		placeholder = ir.Placeholder{Width: screens[0].Width, Height: screens[0].Height}
	}

	var out []ir.MissingScreenFinding
	done := make(map[string]bool)
	for _, d := range detected {
		if done[d.FlowType] {
			continue
		}
		done[d.FlowType] = true

		rule, ok := byType[d.FlowType]
		if !ok {
			g.logger.Debug("no flow rule for detected type", "flow_type", d.FlowType)
			continue
		}
		for si, expected := range rule.Screens {
			patterns := g.compile(rule.FlowType, si, expected)
			if screenExists(patterns, expected.Components, screens) {
				continue
			}
			out = append(out, g.finding(rule, expected, placeholder))
		}
	}
	return out
}

func (g *MissingGenerator) finding(rule *ir.FlowRule, expected ir.ExpectedScreen, placeholder ir.Placeholder) ir.MissingScreenFinding {
	name := expected.Name
	if name == "" {
		name = expected.ID
	}
	return ir.MissingScreenFinding{
		ID:             g.ids.Next(),
		FlowType:       rule.FlowType,
		FlowName:       rule.DisplayName(),
		ScreenID:       expected.ID,
		ScreenName:     name,
		Severity:       ir.ResolveSeverity(expected.Severity, expected.Required),
		Title:          fmt.Sprintf("Missing %s screen in %s flow", name, rule.DisplayName()),
		Description:    expected.Description,
		Recommendation: fmt.Sprintf("Add a %q screen to the %s flow.", name, rule.DisplayName()),
		Components:     suggestions(expected),
		Placeholder:    placeholder,
	}
}

// suggestions lists the components to place on the placeholder: the
// declared suggestions, or the detection component families when none are
// declared.
func suggestions(expected ir.ExpectedScreen) []ir.SuggestedComponent {
	src := expected.Suggestions
	if len(src) == 0 {
		for _, c := range expected.Components {
			src = append(src, ir.ComponentSuggestion{Component: c})
		}
	}
	out := make([]ir.SuggestedComponent, 0, len(src))
	for _, s := range src {
		out = append(out, ir.SuggestedComponent{
			Component:   s.Component,
			Variant:     s.Variant,
			DisplayName: s.DisplayName(),
		})
	}
	return out
}

func (g *MissingGenerator) compile(flowType string, index int, expected ir.ExpectedScreen) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(expected.NamePatterns))
	for pi, p := range expected.NamePatterns {
		re, err := textmatch.CompilePattern(p)
		if err != nil {
			key := fmt.Sprintf("%s\x00%d\x00%d", flowType, index, pi)
			if !g.warned[key] {
				g.warned[key] = true
				g.warnings = append(g.warnings, ir.Warning{
					Location: fmt.Sprintf("flows[%s].screens[%d].name_patterns[%d]", flowType, index, pi),
					Pattern:  p,
					Message:  fmt.Sprintf("%v; pattern ignored", err),
				})
				g.logger.Warn("ignoring expected-screen pattern", "flow_type", flowType, "screen", expected.ID, "error", err)
			}
			continue
		}
		res = append(res, re)
	}
	return res
}

// ScreenExists reports whether any screen satisfies expected. Invalid name
// patterns are ignored.
func ScreenExists(expected ir.ExpectedScreen, screens []ir.Screen) bool {
	res := make([]*regexp.Regexp, 0, len(expected.NamePatterns))
	for _, p := range expected.NamePatterns {
		if re, err := textmatch.CompilePattern(p); err == nil {
			res = append(res, re)
		}
	}
	return screenExists(res, expected.Components, screens)
}

// screenExists tests, for each screen in turn, the name patterns against
// the screen name, then every element name, then every element text; then
// the component substrings against every element's component family.
func screenExists(patterns []*regexp.Regexp, components []string, screens []ir.Screen) bool {
	for i := range screens {
		s := &screens[i]
		flat := tree.Flatten(&s.Root)

		if len(patterns) > 0 {
			if textmatch.MatchAny(patterns, s.Name) {
				return true
			}
			for _, el := range flat {
				if textmatch.MatchAny(patterns, el.Name) {
					return true
				}
			}
			for _, el := range flat {
				if textmatch.MatchAny(patterns, el.Text) {
					return true
				}
			}
		}

		for _, el := range flat {
			if el.Component == "" {
				continue
			}
			if _, ok := textmatch.ContainsAnyFold(el.Component, components); ok {
				return true
			}
		}
	}
	return false
}
