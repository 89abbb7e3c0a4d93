package ir

// Severity is the user-facing urgency of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// ValidSeverities defines the allowed severity values.
var ValidSeverities = map[Severity]bool{
	SeverityCritical: true,
	SeverityWarning:  true,
	SeverityInfo:     true,
}

// ResolveSeverity applies the default severity rule shared by screen-level
// and flow-level findings: an explicit severity wins, otherwise required
// items are warnings and optional items are informational.
func ResolveSeverity(declared Severity, required bool) Severity {
	if declared != "" {
		return declared
	}
	if required {
		return SeverityWarning
	}
	return SeverityInfo
}

// Cue is a semantic meaning inferred from a colour.
type Cue string

const (
	CueNone    Cue = "none"
	CueError   Cue = "error"
	CueWarning Cue = "warning"
	CueSuccess Cue = "success"
	CueInfo    Cue = "info"
)

// ClauseKind tags a trigger clause.
type ClauseKind string

const (
	ClausePattern        ClauseKind = "pattern"
	ClauseNamePatterns   ClauseKind = "name_patterns"
	ClauseComponentNames ClauseKind = "component_names"
	ClauseCoOccurs       ClauseKind = "co_occurs"
)

// TriggerClause is one alternative of a rule's any_of trigger.
// Exactly the fields for Kind are populated.
type TriggerClause struct {
	Kind           ClauseKind    `json:"kind"`
	Pattern        PatternType   `json:"pattern,omitempty"`
	NamePatterns   []string      `json:"name_patterns,omitempty"`
	ComponentNames []string      `json:"component_names,omitempty"`
	CoOccurs       []PatternType `json:"co_occurs,omitempty"`
}

// Trigger fires when any of its clauses is satisfied.
type Trigger struct {
	AnyOf []TriggerClause `json:"any_of"`
}

// ExpectationKind tags an expectation clause.
type ExpectationKind string

const (
	// Same-screen scope.
	ExpectCompanionPattern ExpectationKind = "companion_pattern"
	ExpectElementPresent   ExpectationKind = "element_present"

	// Cross-screen scope.
	ExpectSiblingCue    ExpectationKind = "sibling_cue"
	ExpectSiblingScreen ExpectationKind = "sibling_screen"
)

// Expectation is what must additionally be true once a rule fires.
type Expectation struct {
	Kind         ExpectationKind `json:"kind"`
	Patterns     []PatternType   `json:"patterns,omitempty"`
	NamePatterns []string        `json:"name_patterns,omitempty"`
	Cue          Cue             `json:"cue,omitempty"`
	Components   []string        `json:"components,omitempty"`
	Reason       string          `json:"reason,omitempty"`
}

// CrossScreen reports whether the expectation is checked against sibling
// screens of the same flow rather than the triggering screen itself.
func (e Expectation) CrossScreen() bool {
	return e.Kind == ExpectSiblingCue || e.Kind == ExpectSiblingScreen
}

// SatisfyMode controls how multiple expectations combine.
type SatisfyMode string

const (
	SatisfyAll SatisfyMode = "all"
	SatisfyAny SatisfyMode = "any"
)

// Rule is an authored heuristic: trigger conditions plus expectations.
// Rules are compiled once per run and read-only during matching.
type Rule struct {
	ID             string        `json:"id"`
	Category       string        `json:"category"`
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
	Severity       Severity      `json:"severity,omitempty"`
	Required       bool          `json:"required"`
	Satisfy        SatisfyMode   `json:"satisfy"`
	Trigger        Trigger       `json:"trigger"`
	Expect         []Expectation `json:"expect"`
	Source         string        `json:"source,omitempty"` // Document the rule was loaded from
}

// TriggeredRule pairs a rule with the pattern instance(s) that fired it on
// one screen. Patterns[0] is the primary (triggering) instance.
type TriggeredRule struct {
	Rule     *Rule             `json:"-"`
	RuleID   string            `json:"rule_id"`
	ScreenID string            `json:"screen_id,omitempty"`
	Clause   int               `json:"clause"`
	Patterns []DetectedPattern `json:"patterns"`
}

// Primary returns the triggering pattern instance.
func (t TriggeredRule) Primary() DetectedPattern {
	if len(t.Patterns) == 0 {
		return DetectedPattern{}
	}
	return t.Patterns[0]
}

// UnmetExpectation is a triggered rule whose expectation evaluated false.
type UnmetExpectation struct {
	Triggered   TriggeredRule `json:"triggered"`
	Expectation Expectation   `json:"expectation"`
	Reason      string        `json:"reason"`
}

// Warning is a non-fatal problem observed during a run, such as a rule
// regex that failed to compile and was skipped.
type Warning struct {
	RuleID   string `json:"rule_id,omitempty"`
	Location string `json:"location"`
	Pattern  string `json:"pattern,omitempty"`
	Message  string `json:"message"`
}
