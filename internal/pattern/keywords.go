package pattern

import (
	"strings"
	"unicode"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
	"github.com/inv-mschultz/edgy-sub001/internal/textmatch"
)

// Source selects which element strings a keyword rule inspects.
type Source uint8

const (
	SourceName   Source = 1 << iota // Layer name
	SourceFamily                    // Bound component family
	SourceText                      // Text content
)

// KeywordRule maps a keyword set to the pattern it implies.
type KeywordRule struct {
	Type     ir.PatternType
	Keywords []string
	Sources  Source
	// AllowText lets TEXT elements match. Structural patterns (buttons,
	// inputs, containers) are never plain text layers.
	AllowText bool
}

// KeywordTable is the data-driven half of the detector: every rule that
// fires emits its pattern type for the element.
type KeywordTable []KeywordRule

// DefaultKeywords is the built-in table. Keywords match whole words of the
// tokenised string (a trailing plural "s" is tolerated); multi-word keywords
// match as phrases.
var DefaultKeywords = KeywordTable{
	{Type: ir.PatternButton, Keywords: []string{"button", "btn", "cta"}, Sources: SourceName | SourceFamily},
	{Type: ir.PatternLink, Keywords: []string{"link", "hyperlink"}, Sources: SourceName | SourceFamily, AllowText: true},
	{Type: ir.PatternTextInput, Keywords: []string{"input", "textfield", "text field", "textarea", "text area", "textbox"}, Sources: SourceName | SourceFamily},
	{Type: ir.PatternFormField, Keywords: []string{
		"input", "textfield", "text field", "textarea", "text area", "textbox",
		"select", "dropdown", "checkbox", "radio", "datepicker", "date picker", "combobox", "field",
	}, Sources: SourceName | SourceFamily},
	{Type: ir.PatternModal, Keywords: []string{"modal", "dialog", "sheet", "popup", "popover", "overlay", "alert dialog"}, Sources: SourceName | SourceFamily},
	{Type: ir.PatternSearch, Keywords: []string{"search", "searchbar", "search bar"}, Sources: SourceName | SourceFamily},
	{Type: ir.PatternImage, Keywords: []string{"image", "img", "photo", "avatar", "thumbnail", "picture"}, Sources: SourceName | SourceFamily},
	{Type: ir.PatternNavigation, Keywords: []string{"nav", "navbar", "navigation", "tabbar", "tab bar", "menu", "breadcrumb", "sidebar", "header"}, Sources: SourceName | SourceFamily},
	{Type: ir.PatternToggle, Keywords: []string{"toggle", "switch"}, Sources: SourceName | SourceFamily},
	{Type: ir.PatternErrorMessage, Keywords: []string{"error", "invalid", "incorrect", "failed", "went wrong"}, Sources: SourceName | SourceFamily | SourceText, AllowText: true},
	{Type: ir.PatternLoadingIndicator, Keywords: []string{"loading", "loader", "spinner", "skeleton", "progress"}, Sources: SourceName | SourceFamily | SourceText, AllowText: true},
	{Type: ir.PatternEmptyState, Keywords: []string{"empty", "empty state", "no results", "no items", "nothing here", "no data"}, Sources: SourceName | SourceFamily | SourceText, AllowText: true},
}

// Keyword sets used by the structural rules in detect.go.
var (
	destructiveKeywords = []string{"delete", "remove", "destroy", "discard", "erase", "deactivate"}
	destructiveVariants = []string{"destructive", "danger", "critical", "error", "negative"}
	confirmKeywords     = []string{"confirm", "confirmation", "are you sure", "cannot be undone", "can't be undone"}
	listKeywords        = []string{"list", "table", "feed", "grid", "collection"}
)

// Match returns the pattern types the table assigns to el, in table order.
func (t KeywordTable) Match(el *ir.Element) []ir.PatternType {
	var out []ir.PatternType
	for _, rule := range t {
		if el.IsText() && !rule.AllowText {
			continue
		}
		if rule.matches(el) {
			out = append(out, rule.Type)
		}
	}
	return out
}

func (r KeywordRule) matches(el *ir.Element) bool {
	if r.Sources&SourceName != 0 && hasKeyword(el.Name, r.Keywords) {
		return true
	}
	if r.Sources&SourceFamily != 0 && hasKeyword(el.Component, r.Keywords) {
		return true
	}
	if r.Sources&SourceText != 0 && hasKeyword(el.Text, r.Keywords) {
		return true
	}
	return false
}

// Tokens splits s into lower-case words on punctuation, spaces and camelCase
// boundaries: "PrimaryButton/Large" -> [primary button large].
func Tokens(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, textmatch.Fold(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]) {
				flush()
			}
			cur = append(cur, r)
		case r == '\'':
			// Keep contractions ("can't") in one word.
			if len(cur) > 0 {
				cur = append(cur, r)
			}
		default:
			flush()
		}
	}
	flush()
	return words
}

// hasKeyword reports whether any keyword occurs in s as a whole word or
// phrase.
func hasKeyword(s string, keywords []string) bool {
	_, ok := matchKeyword(s, keywords)
	return ok
}

func matchKeyword(s string, keywords []string) (string, bool) {
	if s == "" {
		return "", false
	}
	words := Tokens(s)
	if len(words) == 0 {
		return "", false
	}
	joined := " " + strings.Join(words, " ") + " "
	for _, kw := range keywords {
		kwWords := strings.Join(Tokens(kw), " ")
		if kwWords == "" {
			continue
		}
		if strings.Contains(joined, " "+kwWords+" ") || strings.Contains(joined, " "+kwWords+"s ") {
			return kw, true
		}
	}
	return "", false
}
