// Package pattern detects structural and semantic UI roles (buttons, form
// fields, forms, lists, destructive actions, dialogs) in a screen's element
// tree.
//
// Detection is heuristic and driven by names: layer names, bound component
// families and text are tokenised and looked up in a KeywordTable, and a few
// structural rules (forms, lists, destructive actions, confirmation dialogs)
// look at how those matches are arranged. A single element may yield several
// patterns; a red "Delete Account" button is both a button and a destructive
// action.
package pattern

import (
	"strings"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/tree"
	"github.com/inv-mschultz/edgy-sub001/internal/visual"
)

// Minimum sizes for the structural rules.
const (
	MinListItems      = 3 // Repeated children needed for an unnamed list
	MinNamedListItems = 2 // Children needed when the container is named like a list
	MinFormFields     = 2
)

// atomic patterns are not re-detected inside an element that already has
// them: the label layer inside a button is not another button.
var atomic = map[ir.PatternType]bool{
	ir.PatternButton:            true,
	ir.PatternLink:              true,
	ir.PatternTextInput:         true,
	ir.PatternFormField:         true,
	ir.PatternToggle:            true,
	ir.PatternSearch:            true,
	ir.PatternDestructiveAction: true,
	ir.PatternImage:             true,
}

// Detector finds patterns using a keyword table.
type Detector struct {
	keywords KeywordTable
}

// NewDetector creates a detector. A nil table selects DefaultKeywords.
func NewDetector(keywords KeywordTable) *Detector {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	return &Detector{keywords: keywords}
}

// Detect runs the default detector over root.
func Detect(root *ir.Element) []ir.DetectedPattern {
	return NewDetector(nil).Detect(root)
}

type position struct {
	parent *ir.Element
	index  int
}

// detection is the per-run state shared by the passes below.
type detection struct {
	order     []*ir.Element
	found     map[*ir.Element][]ir.DetectedPattern
	inherited map[*ir.Element]map[ir.PatternType]bool // Atomic types on ancestors
	positions map[*ir.Element]position
}

func (d *detection) add(el *ir.Element, p ir.DetectedPattern) {
	p.ElementID = el.ID
	p.Element = el
	d.found[el] = append(d.found[el], p)
}

func (d *detection) has(el *ir.Element, t ir.PatternType) bool {
	for _, p := range d.found[el] {
		if p.Type == t {
			return true
		}
	}
	return false
}

// Detect walks root once and returns the detected patterns ordered by
// element pre-order. Hidden subtrees are skipped; missing names, text,
// paints or components never cause an error.
func (det *Detector) Detect(root *ir.Element) []ir.DetectedPattern {
	if root == nil {
		return nil
	}
	d := &detection{
		found:     make(map[*ir.Element][]ir.DetectedPattern),
		inherited: make(map[*ir.Element]map[ir.PatternType]bool),
		positions: make(map[*ir.Element]position),
	}

	tree.Walk(root, func(n tree.Node) bool {
		el := n.Element
		if !el.IsVisible() {
			return false
		}
		d.order = append(d.order, el)
		d.positions[el] = position{parent: n.Parent, index: n.Index}

		inherited := d.inherited[n.Parent]
		// The root's name describes the whole screen ("Login - Error"), not
		// a role, so only the structural list and form rules apply to it.
		if n.Depth == 0 {
			if members, family, ok := repeatedChildren(el); ok {
				d.add(el, listPattern(members, family))
			}
			return true
		}
		for _, t := range det.keywords.Match(el) {
			if atomic[t] && inherited[t] {
				continue
			}
			p := ir.DetectedPattern{Type: t}
			if t == ir.PatternFormField {
				p.Label, p.Required = fieldLabel(n)
			}
			if el.Family() != "" {
				p.Meta = map[string]string{"component": el.Component}
			}
			d.add(el, p)
		}

		if !inherited[ir.PatternDestructiveAction] {
			if kw, ok := destructive(el); ok {
				d.add(el, ir.DetectedPattern{
					Type:  ir.PatternDestructiveAction,
					Label: actionLabel(el),
					Meta:  map[string]string{"keyword": kw},
				})
			}
		}
		if el.IsText() && !d.has(el, ir.PatternErrorMessage) && visual.ElementHasCue(el, ir.CueError) {
			d.add(el, ir.DetectedPattern{Type: ir.PatternErrorMessage, Label: el.Text, Meta: map[string]string{"cue": string(ir.CueError)}})
		}
		if d.has(el, ir.PatternModal) && isConfirmation(el) {
			d.add(el, ir.DetectedPattern{Type: ir.PatternConfirmationDialog})
		}
		if members, family, ok := repeatedChildren(el); ok {
			d.add(el, listPattern(members, family))
		}

		next, copied := inherited, false
		for _, p := range d.found[el] {
			if !atomic[p.Type] || next[p.Type] {
				continue
			}
			if !copied {
				next, copied = copyTypes(inherited), true
			}
			next[p.Type] = true
		}
		d.inherited[el] = next
		return true
	})

	d.detectForms()

	var out []ir.DetectedPattern
	for _, el := range d.order {
		out = append(out, d.found[el]...)
	}
	return out
}

// detectForms marks containers holding MinFormFields or more form fields
// spread over at least two of their children. Requiring the spread keeps
// the innermost enclosing container as the form instead of every ancestor
// up to the screen root.
func (d *detection) detectForms() {
	type tally struct {
		branches map[int]bool
		fields   []string
	}
	tallies := make(map[*ir.Element]*tally)

	for _, el := range d.order {
		if !d.has(el, ir.PatternFormField) {
			continue
		}
		cur := el
		for {
			pos := d.positions[cur]
			if pos.parent == nil {
				break
			}
			t := tallies[pos.parent]
			if t == nil {
				t = &tally{branches: make(map[int]bool)}
				tallies[pos.parent] = t
			}
			t.branches[pos.index] = true
			t.fields = append(t.fields, el.ID)
			cur = pos.parent
		}
	}

	for _, el := range d.order {
		t := tallies[el]
		if t == nil || len(t.fields) < MinFormFields || len(t.branches) < 2 {
			continue
		}
		if d.has(el, ir.PatternFormField) || el.IsText() {
			continue
		}
		d.add(el, ir.DetectedPattern{Type: ir.PatternForm, Members: t.fields})
	}
}

// destructive reports whether el is a destructive action: its name or label
// uses a destructive verb, and it is styled destructively through a variant
// property or an error-cue colour.
func destructive(el *ir.Element) (string, bool) {
	if el.IsText() {
		return "", false
	}
	kw, ok := matchKeyword(el.Name, destructiveKeywords)
	if !ok {
		kw, ok = matchKeyword(actionLabel(el), destructiveKeywords)
	}
	if !ok {
		return "", false
	}
	for _, v := range el.ComponentProperties {
		if hasKeyword(v, destructiveVariants) {
			return kw, true
		}
	}
	if visual.SubtreeHasCue(el, ir.CueError) {
		return kw, true
	}
	return "", false
}

// isConfirmation reports whether a modal-like element asks for confirmation,
// by name or by the copy it contains.
func isConfirmation(el *ir.Element) bool {
	if hasKeyword(el.Name, confirmKeywords) || hasKeyword(el.Component, confirmKeywords) {
		return true
	}
	return tree.Any(el, func(e *ir.Element) bool {
		return e.IsText() && hasKeyword(e.Text, confirmKeywords)
	})
}

// repeatedChildren detects list containers: MinListItems or more visible
// children that mostly share a component family or a layer name, or a
// container named like a list with MinNamedListItems children.
func repeatedChildren(el *ir.Element) ([]string, string, bool) {
	if el.IsText() {
		return nil, "", false
	}
	var visible []*ir.Element
	for i := range el.Children {
		if el.Children[i].IsVisible() {
			visible = append(visible, &el.Children[i])
		}
	}
	if len(visible) < MinNamedListItems {
		return nil, "", false
	}

	if len(visible) >= MinListItems {
		if family, members := majority(visible, (*ir.Element).Family); len(members) >= MinListItems && len(members)*2 > len(visible) {
			return members, family, true
		}
		if _, members := majority(visible, func(e *ir.Element) string { return strings.ToLower(e.Name) }); len(members) >= MinListItems && len(members)*2 > len(visible) {
			return members, "", true
		}
	}

	if hasKeyword(el.Name, listKeywords) || hasKeyword(el.Component, listKeywords) {
		members := make([]string, len(visible))
		for i, c := range visible {
			members[i] = c.ID
		}
		return members, "", true
	}
	return nil, "", false
}

func listPattern(members []string, family string) ir.DetectedPattern {
	p := ir.DetectedPattern{Type: ir.PatternList, Members: members}
	if family != "" {
		p.Meta = map[string]string{"family": family}
	}
	return p
}

// majority returns the most common non-empty key among els and the ids of
// the elements carrying it. Ties go to the key seen first.
func majority(els []*ir.Element, key func(*ir.Element) string) (string, []string) {
	counts := make(map[string]int)
	var keys []string
	for _, e := range els {
		k := key(e)
		if k == "" {
			continue
		}
		if counts[k] == 0 {
			keys = append(keys, k)
		}
		counts[k]++
	}
	best := ""
	for _, k := range keys {
		if counts[k] > counts[best] {
			best = k
		}
	}
	if best == "" {
		return "", nil
	}
	var ids []string
	for _, e := range els {
		if key(e) == best {
			ids = append(ids, e.ID)
		}
	}
	return best, ids
}

// fieldLabel infers a form field's label: its own text, else the first text
// inside it, else a text layer declared just before it, else its name.
// A "*" in the label or a truthy Required variant property marks it
// required.
func fieldLabel(n tree.Node) (string, bool) {
	el := n.Element
	label := el.Text
	if label == "" {
		label = firstText(el)
	}
	if label == "" {
		if prev := n.PrevSibling(); prev != nil && prev.IsText() {
			label = prev.Text
			if label == "" {
				label = prev.Name
			}
		}
	}
	if label == "" {
		label = el.Name
	}

	required := strings.Contains(label, "*") || strings.Contains(el.Name, "*")
	if v, ok := el.Property("required"); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			required = true
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), "*")), required
}

// actionLabel returns the visible label of an action: own text, else the
// first text inside it.
func actionLabel(el *ir.Element) string {
	if el.Text != "" {
		return el.Text
	}
	return firstText(el)
}

func firstText(el *ir.Element) string {
	var out string
	tree.Walk(el, func(n tree.Node) bool {
		if out != "" || !n.Element.IsVisible() {
			return false
		}
		if n.Element != el && n.Element.IsText() && n.Element.Text != "" {
			out = n.Element.Text
			return false
		}
		return true
	})
	return out
}

func copyTypes(m map[ir.PatternType]bool) map[ir.PatternType]bool {
	out := make(map[ir.PatternType]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
