package tree

import "github.com/inv-mschultz/edgy-sub001/internal/ir"

// FlatElement is an element with a path breadcrumb instead of children.
type FlatElement struct {
	ID        string         `json:"id"           yaml:"id"`
	Name      string         `json:"name"         yaml:"name"`
	Kind      ir.ElementKind `json:"type"         yaml:"type"`
	Component string         `json:"component,omitempty" yaml:"component,omitempty"`
	Text      string         `json:"text,omitempty"      yaml:"text,omitempty"`
	Path      string         `json:"path"         yaml:"path"`
	Depth     int            `json:"depth"        yaml:"depth"`

	Element *ir.Element `json:"-" yaml:"-"`
}

// PathSeparator joins element names in a FlatElement path.
const PathSeparator = " > "

// Flatten converts a tree into a flat pre-order list. Each entry's Path joins
// the names from the root down to the element with " > ".
func Flatten(root *ir.Element) []FlatElement {
	var out []FlatElement
	// paths[d] holds the breadcrumb of the most recent node at depth d; in
	// pre-order that is always the current node's ancestor.
	var paths []string
	Walk(root, func(n Node) bool {
		path := n.Element.Name
		if n.Depth > 0 {
			path = paths[n.Depth-1] + PathSeparator + n.Element.Name
		}
		paths = append(paths[:n.Depth], path)

		out = append(out, FlatElement{
			ID:        n.Element.ID,
			Name:      n.Element.Name,
			Kind:      n.Element.Kind,
			Component: n.Element.Component,
			Text:      n.Element.Text,
			Path:      path,
			Depth:     n.Depth,
			Element:   n.Element,
		})
		return true
	})
	return out
}
