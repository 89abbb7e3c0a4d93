// Package textmatch holds the case-insensitive string matching shared by the
// pattern detector, the rule engine and the flow finding generator.
//
// Rule authors write regexes without worrying about case: any leading inline
// flag group such as "(?i)" is stripped and case-insensitivity is applied
// here instead.
package textmatch

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// leadingFlags matches inline flag groups at the start of a pattern,
// e.g. "(?i)" or "(?is)". Scoped groups like "(?i:abc)" are left alone.
var leadingFlags = regexp.MustCompile(`^(\(\?[a-zA-Z]+\))+`)

// StripInlineFlags removes leading inline flag groups from pattern.
func StripInlineFlags(pattern string) string {
	return leadingFlags.ReplaceAllString(pattern, "")
}

// CompilePattern compiles an author-supplied pattern case-insensitively.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + StripInlineFlags(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// CompileAll compiles every pattern, stopping at the first failure.
// The index of the failing pattern is returned alongside the error.
func CompileAll(patterns []string) ([]*regexp.Regexp, int, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := CompilePattern(p)
		if err != nil {
			return nil, i, err
		}
		out = append(out, re)
	}
	return out, -1, nil
}

// MatchAny reports whether any regex matches any of the non-empty values.
func MatchAny(res []*regexp.Regexp, values ...string) bool {
	for _, re := range res {
		for _, v := range values {
			if v != "" && re.MatchString(v) {
				return true
			}
		}
	}
	return false
}

// Fold returns s case-folded for caseless comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether substr occurs in s, ignoring case.
// An empty substr never matches.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(Fold(s), Fold(substr))
}

// ContainsAnyFold reports whether s contains any of the substrings, ignoring
// case, and returns the first that matched.
func ContainsAnyFold(s string, substrs []string) (string, bool) {
	folded := Fold(s)
	for _, sub := range substrs {
		if sub != "" && strings.Contains(folded, Fold(sub)) {
			return sub, true
		}
	}
	return "", false
}
