package ir

// PatternType names a detected structural or semantic UI role.
// The set is open: rule corpora may reference types added later.
type PatternType string

const (
	PatternButton             PatternType = "button"
	PatternLink               PatternType = "link"
	PatternDestructiveAction  PatternType = "destructive-action"
	PatternFormField          PatternType = "form-field"
	PatternTextInput          PatternType = "text-input"
	PatternForm               PatternType = "form"
	PatternList               PatternType = "list"
	PatternModal              PatternType = "modal"
	PatternConfirmationDialog PatternType = "confirmation-dialog"
	PatternSearch             PatternType = "search"
	PatternImage              PatternType = "image"
	PatternNavigation         PatternType = "navigation"
	PatternToggle             PatternType = "toggle"
	PatternErrorMessage       PatternType = "error-message"
	PatternLoadingIndicator   PatternType = "loading-indicator"
	PatternEmptyState         PatternType = "empty-state"
)

// KnownPatternTypes lists every type the built-in detector can emit.
var KnownPatternTypes = []PatternType{
	PatternButton,
	PatternLink,
	PatternDestructiveAction,
	PatternFormField,
	PatternTextInput,
	PatternForm,
	PatternList,
	PatternModal,
	PatternConfirmationDialog,
	PatternSearch,
	PatternImage,
	PatternNavigation,
	PatternToggle,
	PatternErrorMessage,
	PatternLoadingIndicator,
	PatternEmptyState,
}

// DetectedPattern is one heuristic role detected on a screen.
//
// Element points back into the screen's (read-only) tree so later stages can
// re-inspect geometry or colour. Members lists participating elements for
// aggregate patterns (form fields of a form, items of a list).
type DetectedPattern struct {
	Type      PatternType       `json:"type"`
	ElementID string            `json:"element_id"`
	Element   *Element          `json:"-"`
	Members   []string          `json:"members,omitempty"`
	Label     string            `json:"label,omitempty"`
	Required  bool              `json:"required,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// ElementName returns the name of the source element, or "" when detached.
func (p DetectedPattern) ElementName() string {
	if p.Element == nil {
		return ""
	}
	return p.Element.Name
}
