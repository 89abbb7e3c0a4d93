// Package finding turns unmet expectations into user-facing findings.
package finding

import (
	"io"
	"log/slog"
	"sync"
	"text/template"

	"github.com/inv-mschultz/edgy-sub001/internal/idgen"
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// Generator maps unmet expectations 1:1 onto findings with sequential IDs
// ("finding-1", "finding-2", ...). Call Reset at the start of every run.
type Generator struct {
	ids    *idgen.Counter
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*template.Template
}

// Option configures optional Generator parameters.
type Option func(*Generator)

// WithLogger sets the logger used to report template failures.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a generator whose counter starts at zero.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		ids:    idgen.NewCounter("finding"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:  make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Reset rewinds the ID counter.
func (g *Generator) Reset() {
	g.ids.Reset()
}

// Generate produces one Finding per unmet expectation, in order.
func (g *Generator) Generate(unmet []ir.UnmetExpectation, screen *ir.Screen) []ir.Finding {
	if len(unmet) == 0 {
		return nil
	}
	out := make([]ir.Finding, 0, len(unmet))
	for _, u := range unmet {
		out = append(out, g.generate(u, screen))
	}
	return out
}

func (g *Generator) generate(u ir.UnmetExpectation, screen *ir.Screen) ir.Finding {
	rule := u.Triggered.Rule
	if rule == nil {
		rule = &ir.Rule{ID: u.Triggered.RuleID}
	}
	primary := u.Triggered.Primary()

	data := TemplateData{
		Pattern:  string(primary.Type),
		Element:  elementLabel(primary),
		Reason:   u.Reason,
		Rule:     rule.ID,
		Category: rule.Category,
	}
	ref := &ir.ElementRef{ElementID: primary.ElementID, ElementName: primary.ElementName()}
	if screen != nil {
		data.Screen = screen.Name
		ref.ScreenID = screen.ID
		ref.ScreenName = screen.Name
	}

	title := g.text(rule.ID, "title", rule.Title, data)
	if title == "" {
		title = rule.ID
	}
	description := g.text(rule.ID, "description", rule.Description, data)
	if description == "" {
		description = u.Reason
	}

	return ir.Finding{
		ID:             g.ids.Next(),
		RuleID:         rule.ID,
		Category:       rule.Category,
		Severity:       ir.ResolveSeverity(rule.Severity, rule.Required),
		Title:          title,
		Description:    description,
		Recommendation: g.text(rule.ID, "recommendation", rule.Recommendation, data),
		Ref:            ref,
	}
}

// text renders one authored field. A template that fails to render yields
// the raw text; rule corpora are checked at load time so this only happens
// for rules built in code.
func (g *Generator) text(ruleID, field, text string, data TemplateData) string {
	if text == "" {
		return ""
	}
	key := ruleID + "\x00" + field + "\x00" + text

	g.mu.Lock()
	tmpl, ok := g.cache[key]
	if !ok {
		var err error
		tmpl, err = template.New(field).Parse(text)
		if err != nil {
			tmpl = nil
			g.logger.Warn("unparseable rule template", "rule", ruleID, "field", field, "error", err)
		}
		g.cache[key] = tmpl
	}
	g.mu.Unlock()

	if tmpl == nil {
		return text
	}
	out, err := render(tmpl, data)
	if err != nil {
		g.logger.Warn("rule template failed", "rule", ruleID, "field", field, "error", err)
		return text
	}
	return out
}

// elementLabel names the triggering element for humans.
func elementLabel(p ir.DetectedPattern) string {
	if name := p.ElementName(); name != "" {
		return name
	}
	if p.Label != "" {
		return p.Label
	}
	return string(p.Type)
}
