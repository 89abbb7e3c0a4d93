package ir

// ElementRef points a finding back at the screen/element that triggered it.
type ElementRef struct {
	ScreenID    string `json:"screen_id"`
	ScreenName  string `json:"screen_name"`
	ElementID   string `json:"element_id,omitempty"`
	ElementName string `json:"element_name,omitempty"`
}

// Finding is one emitted issue describing a missing or incomplete
// edge-case design. Findings are immutable once produced.
type Finding struct {
	ID             string      `json:"id"`
	RuleID         string      `json:"rule_id"`
	Category       string      `json:"category"`
	Severity       Severity    `json:"severity"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Recommendation string      `json:"recommendation"`
	Ref            *ElementRef `json:"ref,omitempty"`
}

// FlowGroups partitions screens by flow prefix. Keys are kept in order of
// first appearance; each group lists its screens in input order.
type FlowGroups struct {
	Keys   []string            `json:"keys"`
	Groups map[string][]Screen `json:"-"`
}

// Get returns the screens sharing prefix.
func (g FlowGroups) Get(prefix string) ([]Screen, bool) {
	screens, ok := g.Groups[prefix]
	return screens, ok
}

// Len returns the number of groups.
func (g FlowGroups) Len() int {
	return len(g.Keys)
}

// ComponentSuggestion names a design-system component to place on a
// placeholder for a missing screen.
type ComponentSuggestion struct {
	Component string `json:"component"`
	Variant   string `json:"variant,omitempty"`
}

// DisplayName combines the component identifier and optional variant.
func (c ComponentSuggestion) DisplayName() string {
	if c.Variant == "" {
		return c.Component
	}
	return c.Component + " / " + c.Variant
}

// ExpectedScreen is one screen a complete flow should contain.
type ExpectedScreen struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description,omitempty"`
	Required     bool                  `json:"required"`
	Severity     Severity              `json:"severity,omitempty"`
	NamePatterns []string              `json:"name_patterns,omitempty"`
	Components   []string              `json:"components,omitempty"`
	Suggestions  []ComponentSuggestion `json:"suggestions,omitempty"`
}

// FlowRule lists, per flow type, the screens a complete flow should contain.
type FlowRule struct {
	FlowType    string           `json:"flow_type"`
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	Keywords    []string         `json:"keywords,omitempty"`
	Screens     []ExpectedScreen `json:"screens"`
	Source      string           `json:"source,omitempty"`
}

// DisplayName returns the human-readable flow name.
func (f FlowRule) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.FlowType
}

// DetectedFlowType assigns a flow type to a flow group.
type DetectedFlowType struct {
	FlowType string `json:"flow_type"`
	Prefix   string `json:"prefix"`
	Keyword  string `json:"keyword,omitempty"`
}

// SuggestedComponent is a ComponentSuggestion with its synthesized name.
type SuggestedComponent struct {
	Component   string `json:"component"`
	Variant     string `json:"variant,omitempty"`
	DisplayName string `json:"display_name"`
}

// Placeholder carries sizing hints for rendering a missing screen.
type Placeholder struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Mobile-portrait placeholder used when no screens were supplied.
const (
	DefaultPlaceholderWidth  = 375
	DefaultPlaceholderHeight = 812
)

// MissingScreenFinding is a finding scoped to a whole flow: an expected
// screen with no match among the extracted screens.
type MissingScreenFinding struct {
	ID             string               `json:"id"`
	FlowType       string               `json:"flow_type"`
	FlowName       string               `json:"flow_name"`
	ScreenID       string               `json:"expected_screen_id"`
	ScreenName     string               `json:"expected_screen_name"`
	Severity       Severity             `json:"severity"`
	Title          string               `json:"title"`
	Description    string               `json:"description,omitempty"`
	Recommendation string               `json:"recommendation"`
	Components     []SuggestedComponent `json:"components"`
	Placeholder    Placeholder          `json:"placeholder"`
}
