package ir

import "strings"

// ElementKind is the node type reported by the design tool.
type ElementKind string

const (
	KindFrame     ElementKind = "FRAME"
	KindGroup     ElementKind = "GROUP"
	KindSection   ElementKind = "SECTION"
	KindText      ElementKind = "TEXT"
	KindInstance  ElementKind = "INSTANCE"
	KindComponent ElementKind = "COMPONENT"
	KindRectangle ElementKind = "RECTANGLE"
	KindEllipse   ElementKind = "ELLIPSE"
	KindVector    ElementKind = "VECTOR"
	KindImage     ElementKind = "IMAGE"
)

// Element is one node in a screen's visual tree.
//
// Child order is meaningful: sibling and proximity heuristics rely on it.
// An element is owned by exactly one parent; trees never share nodes.
type Element struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Kind                ElementKind       `json:"type"`
	Visible             *bool             `json:"visible,omitempty"` // nil = visible
	X                   float64           `json:"x"`
	Y                   float64           `json:"y"`
	Width               float64           `json:"width"`
	Height              float64           `json:"height"`
	Component           string            `json:"component,omitempty"`            // Bound component family, e.g. "Button"
	ComponentProperties map[string]string `json:"component_properties,omitempty"` // Variant properties, e.g. {"State": "Destructive"}
	Text                string            `json:"text,omitempty"`
	Fills               []Paint           `json:"fills,omitempty"`
	Strokes             []Paint           `json:"strokes,omitempty"`
	Children            []Element         `json:"children,omitempty"`
}

// IsVisible reports whether the element is shown. Absent visibility means shown.
func (e *Element) IsVisible() bool {
	return e.Visible == nil || *e.Visible
}

// IsText reports whether the element is a text node.
func (e *Element) IsText() bool {
	return strings.EqualFold(string(e.Kind), string(KindText))
}

// IsInstance reports whether the element is bound to a reusable component.
func (e *Element) IsInstance() bool {
	return e.Component != ""
}

// Family returns the lower-cased bound component family, or "" when unbound.
func (e *Element) Family() string {
	return strings.ToLower(strings.TrimSpace(e.Component))
}

// Property returns a component variant property by case-insensitive key.
func (e *Element) Property(key string) (string, bool) {
	for k, v := range e.ComponentProperties {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Screen is one top-level design artifact with its own element tree.
// Screens are immutable once decoded; the pipeline only reads them.
type Screen struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Order  int     `json:"order"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Root   Element `json:"root"`
}
