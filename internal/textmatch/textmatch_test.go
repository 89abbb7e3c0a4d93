package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripInlineFlags(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"(?i)forgot", "forgot"},
		{"(?is)forgot", "forgot"},
		{"(?i)(?m)reset", "reset"},
		{"forgot(?i)", "forgot(?i)"},
		{"(?i:forgot)", "(?i:forgot)"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripInlineFlags(tt.in))
		})
	}
}

func TestCompilePatternIsCaseInsensitive(t *testing.T) {
	re, err := CompilePattern("(?i)Forgot\\s+Password")
	require.NoError(t, err)

	assert.True(t, re.MatchString("FORGOT password"))
	assert.True(t, re.MatchString("forgot   Password?"))
	assert.False(t, re.MatchString("password"))
}

func TestCompilePatternRejectsUnbalanced(t *testing.T) {
	_, err := CompilePattern("delete(")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"delete("`)
}

func TestCompileAllReportsFailingIndex(t *testing.T) {
	_, idx, err := CompileAll([]string{"ok", "[bad", "fine"})
	require.Error(t, err)
	assert.Equal(t, 1, idx)

	res, idx, err := CompileAll([]string{"forgot", "reset"})
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
	assert.Len(t, res, 2)
}

func TestMatchAnySkipsEmptyValues(t *testing.T) {
	res, _, err := CompileAll([]string{".*"})
	require.NoError(t, err)

	assert.False(t, MatchAny(res, "", ""))
	assert.True(t, MatchAny(res, "", "x"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Primary Button", "button"))
	assert.True(t, ContainsFold("\u00c9CRAN VIDE", "\u00e9cran"))
	assert.False(t, ContainsFold("Card", "button"))
	assert.False(t, ContainsFold("anything", ""))
}

func TestContainsAnyFold(t *testing.T) {
	sub, ok := ContainsAnyFold("Delete Account", []string{"remove", "DELETE"})
	assert.True(t, ok)
	assert.Equal(t, "DELETE", sub)

	_, ok = ContainsAnyFold("Save", []string{"delete"})
	assert.False(t, ok)
}
