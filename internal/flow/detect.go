package flow

import (
	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/textmatch"
	"github.com/inv-mschultz/edgy-sub001/internal/tree"
)

// DetectFlowTypes assigns at most one flow type to each group using the
// flow rules' keywords. Screen names are consulted first, across all flow
// rules, before element text; the first flow rule with a matching keyword
// wins. Groups with no match are left out.
func DetectFlowTypes(groups ir.FlowGroups, flows []ir.FlowRule) []ir.DetectedFlowType {
	var out []ir.DetectedFlowType
	for _, key := range groups.Keys {
		screens := groups.Groups[key]
		if d, ok := detectByName(key, screens, flows); ok {
			out = append(out, d)
			continue
		}
		if d, ok := detectByText(key, screens, flows); ok {
			out = append(out, d)
		}
	}
	return out
}

func detectByName(prefix string, screens []ir.Screen, flows []ir.FlowRule) (ir.DetectedFlowType, bool) {
	for _, f := range flows {
		for _, s := range screens {
			if kw, ok := textmatch.ContainsAnyFold(s.Name, f.Keywords); ok {
				return ir.DetectedFlowType{FlowType: f.FlowType, Prefix: prefix, Keyword: kw}, true
			}
		}
	}
	return ir.DetectedFlowType{}, false
}

func detectByText(prefix string, screens []ir.Screen, flows []ir.FlowRule) (ir.DetectedFlowType, bool) {
	for _, f := range flows {
		if len(f.Keywords) == 0 {
			continue
		}
		for i := range screens {
			var found ir.DetectedFlowType
			hit := tree.Any(&screens[i].Root, func(el *ir.Element) bool {
				if el.Text == "" {
					return false
				}
				kw, ok := textmatch.ContainsAnyFold(el.Text, f.Keywords)
				if ok {
					found = ir.DetectedFlowType{FlowType: f.FlowType, Prefix: prefix, Keyword: kw}
				}
				return ok
			})
			if hit {
				return found, true
			}
		}
	}
	return ir.DetectedFlowType{}, false
}
