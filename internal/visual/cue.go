package visual

import (
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/textmatch"
	"github.com/inv-mschultz/edgy-sub001/internal/tree"
)

// ElementHasCue reports whether any fill or stroke on el classifies to cue.
// Absent paints are simply not a match.
func ElementHasCue(el *ir.Element, cue ir.Cue) bool {
	if el == nil || cue == ir.CueNone || cue == "" {
		return false
	}
	for _, c := range Cues(el) {
		if c == cue {
			return true
		}
	}
	return false
}

// SubtreeHasCue reports whether el or any descendant carries cue.
func SubtreeHasCue(el *ir.Element, cue ir.Cue) bool {
	return tree.Any(el, func(e *ir.Element) bool { return ElementHasCue(e, cue) })
}

// Cues returns the distinct cues carried by el's own paints, in paint order.
func Cues(el *ir.Element) []ir.Cue {
	var out []ir.Cue
	seen := map[ir.Cue]bool{}
	add := func(paints []ir.Paint) {
		for _, p := range paints {
			c := ClassifyPaint(p)
			if c != ir.CueNone && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	add(el.Fills)
	add(el.Strokes)
	return out
}

// SiblingHasNewCue reports whether the sibling screen shows cue somewhere
// the base screen does not. Both arguments are flat element lists (usually
// every element of each screen).
//
// Component-bound sibling elements are compared with base elements of the
// same component family: a cue-bearing sibling counts as new when the base
// has no element of that family, or none of them carries the cue. filter,
// when non-empty, restricts this pass to families containing it.
//
// Text elements are compared by exact name regardless of filter: a
// cue-bearing sibling text is new when no base text of that name carries the
// cue. Helper and error text usually sits next to a component rather than
// inside it.
func SiblingHasNewCue(base, sibling []*ir.Element, cue ir.Cue, filter string) bool {
	familyMatches := func(family string) bool {
		return filter == "" || textmatch.ContainsFold(family, filter)
	}

	byFamily := make(map[string][]*ir.Element)
	baseTextWithCue := make(map[string]bool)
	for _, el := range base {
		if family := el.Family(); family != "" && familyMatches(family) {
			byFamily[family] = append(byFamily[family], el)
		}
		if el.IsText() && ElementHasCue(el, cue) {
			baseTextWithCue[el.Name] = true
		}
	}

	for _, el := range sibling {
		family := el.Family()
		if family == "" || !familyMatches(family) || !SubtreeHasCue(el, cue) {
			continue
		}
		counterparts := byFamily[family]
		if len(counterparts) == 0 {
			return true
		}
		if !anyHasCue(counterparts, cue) {
			return true
		}
	}

	for _, el := range sibling {
		if el.IsText() && ElementHasCue(el, cue) && !baseTextWithCue[el.Name] {
			return true
		}
	}
	return false
}

func anyHasCue(els []*ir.Element, cue ir.Cue) bool {
	for _, el := range els {
		if SubtreeHasCue(el, cue) {
			return true
		}
	}
	return false
}

// Elements returns root and all of its descendants as a flat list, the shape
// SiblingHasNewCue expects.
func Elements(root *ir.Element) []*ir.Element {
	if root == nil {
		return nil
	}
	return append([]*ir.Element{root}, tree.Descendants(root)...)
}
