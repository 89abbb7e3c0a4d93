package flow

import (
	"strings"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/textmatch"
)

// Delimiters end a screen name's flow prefix. The earliest occurrence of
// any of them wins.
var Delimiters = []string{" - ", " – ", " — ", " / ", " > ", " | ", " : ", " ("}

// ExtractPrefix returns the case-folded, trimmed text before the first
// delimiter in name, or the whole name when it has none.
func ExtractPrefix(name string) string {
	cut := len(name)
	for _, d := range Delimiters {
		if i := strings.Index(name, d); i >= 0 && i < cut {
			cut = i
		}
	}
	return textmatch.Fold(strings.TrimSpace(name[:cut]))
}

// GroupByFlow partitions screens by prefix. Group keys keep the order of
// their first screen and each group keeps input order.
func GroupByFlow(screens []ir.Screen) ir.FlowGroups {
	groups := ir.FlowGroups{Groups: make(map[string][]ir.Screen)}
	for _, s := range screens {
		key := ExtractPrefix(s.Name)
		if _, ok := groups.Groups[key]; !ok {
			groups.Keys = append(groups.Keys, key)
		}
		groups.Groups[key] = append(groups.Groups[key], s)
	}
	return groups
}

// Siblings returns the screens in screen's flow group, screen included. If
// the prefix is not in groups the result is just screen.
func Siblings(screen ir.Screen, groups ir.FlowGroups) []ir.Screen {
	if group, ok := groups.Get(ExtractPrefix(screen.Name)); ok {
		return group
	}
	return []ir.Screen{screen}
}
