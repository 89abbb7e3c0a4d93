package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"int", 42, `42`},
		{"negative int64", int64(-7), `-7`},
		{"bool true", true, `true`},
		{"bool false", false, `false`},
		{"null", nil, `null`},
		{"integral float", 375.0, `375`},
		{"fractional float", 0.25, `0.25`},
		{"empty array", []any{}, `[]`},
		{"empty object", map[string]any{}, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{"zebra": 1, "apple": 2, "mango": 3}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"apple":2,"mango":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 sorts after U+1F600 in UTF-8 byte order but before it in
	// UTF-16 code units (surrogates start at 0xD800).
	obj := map[string]any{"\ue000": 1, "\U0001F600": 2}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\ue000\":1}", string(result))
}

func TestMarshalCanonicalStructsUseJSONTags(t *testing.T) {
	f := Finding{
		ID:             "finding-1",
		RuleID:         "form-error",
		Category:       "error-state",
		Severity:       SeverityWarning,
		Title:          "Missing error state",
		Description:    "d",
		Recommendation: "r",
	}

	result, err := MarshalCanonical(f)
	require.NoError(t, err)
	assert.Equal(t,
		`{"category":"error-state","description":"d","id":"finding-1","recommendation":"r","rule_id":"form-error","severity":"warning","title":"Missing error state"}`,
		string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical("<a href=\"x\">&</a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a href=\"x\">&</a>"`, string(result))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	decomposed := "Cafe\u0301"
	composed := "Caf\u00e9"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
	assert.Equal(t, "\"Caf\u00e9\"", string(a))
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalLineSeparatorsNotEscaped(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))
	assert.NotContains(t, string(result), `\u2028`)
}

func TestMarshalCanonicalLiteralBackslashU2028(t *testing.T) {
	// A literal backslash followed by "u2028" is six ordinary characters.
	result, err := MarshalCanonical(`see \u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"see \\u2028"`, string(result))
}

func TestMarshalCanonicalIdempotency(t *testing.T) {
	screen := Screen{
		ID:    "1:2",
		Name:  "Login",
		Width: 375,
		Root: Element{
			ID:    "1:2",
			Name:  "Login",
			Kind:  KindFrame,
			Fills: []Paint{RGB(1, 1, 1)},
			Children: []Element{
				{ID: "1:3", Name: "Email", Kind: KindInstance, Component: "Input"},
			},
		},
	}

	first, err := MarshalCanonical(screen)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := MarshalCanonical(screen)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshalCanonicalCompactOutput(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{"a": []any{1, 2}, "b": map[string]any{"c": true}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,2],"b":{"c":true}}`, string(result))
}
