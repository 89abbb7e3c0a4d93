package finding

import (
	"io"
	"strings"
	"text/template"
)

// TemplateData is the value rule text templates are executed against.
//
//	title: "No error state for {{.Element}} on {{.Screen}}"
type TemplateData struct {
	Screen   string // Screen name
	Element  string // Triggering element name, label, or pattern type
	Pattern  string // Triggering pattern type
	Reason   string // Why the expectation is unmet
	Rule     string // Rule ID
	Category string
}

var sampleData = TemplateData{
	Screen:   "Screen",
	Element:  "Element",
	Pattern:  "pattern",
	Reason:   "reason",
	Rule:     "rule",
	Category: "category",
}

// ParseTemplate parses text and executes it once against sample data, so
// both syntax errors and references to unknown fields surface at load time.
func ParseTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, err
	}
	if err := tmpl.Execute(io.Discard, sampleData); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func render(tmpl *template.Template, data TemplateData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
