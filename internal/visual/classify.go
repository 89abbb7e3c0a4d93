// Package visual infers semantic cues (error, warning, success, info) from
// paint colours and diffs those cues across sibling screens.
package visual

import "github.com/inv-mschultz/edgy-sub001/internal/ir"

// threshold is one colour-channel predicate tied to the cue it implies.
type threshold struct {
	cue   ir.Cue
	match func(r, g, b float64) bool
}

// thresholds are checked in order and the first match wins. The ranges are
// tuned to common UI palettes and overlap slightly (some oranges satisfy both
// the red-orange error rule and the amber warning rule); error is checked
// first.
var thresholds = []threshold{
	{ir.CueError, func(r, g, b float64) bool { return r > 0.6 && g < 0.35 && b < 0.35 }},
	{ir.CueError, func(r, g, b float64) bool { return r > 0.7 && g < 0.4 && b < 0.25 }}, // red-orange
	{ir.CueWarning, func(r, g, b float64) bool { return r > 0.7 && g > 0.5 && b < 0.3 }},
	{ir.CueSuccess, func(r, g, b float64) bool { return g > 0.5 && r < 0.4 && b < 0.5 }},
	{ir.CueSuccess, func(r, g, b float64) bool { return g > 0.45 && r < 0.25 && b > 0.3 && b < 0.7 }}, // teal-green
	{ir.CueInfo, func(r, g, b float64) bool { return b > 0.6 && r < 0.4 && g < 0.6 }},
}

// Classify maps an RGB triple with channels in [0, 1] to a cue, or
// ir.CueNone when no threshold matches.
func Classify(r, g, b float64) ir.Cue {
	for _, t := range thresholds {
		if t.match(r, g, b) {
			return t.cue
		}
	}
	return ir.CueNone
}

// ClassifyPaint classifies a paint. Hidden or fully transparent paints carry
// no cue.
func ClassifyPaint(p ir.Paint) ir.Cue {
	if p.Transparent() {
		return ir.CueNone
	}
	return Classify(p.R, p.G, p.B)
}
