package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: FormatJSON, Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"findings": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"findings": float64(3)}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: FormatJSON, Writer: buf}

	require.NoError(t, formatter.Error("E005", "rule corpus not found", map[string]string{"path": "rules/"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E005", resp.Error.Code)
	assert.Equal(t, "rule corpus not found", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_YAMLUsesJSONFieldNames(t *testing.T) {
	type payload struct {
		RuleID string `json:"rule_id"`
		Count  int    `json:"count"`
	}
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: FormatYAML, Writer: buf}

	require.NoError(t, formatter.Success(payload{RuleID: "form-error-state", Count: 2}))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "ok", decoded["status"])
	data, ok := decoded["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "form-error-state", data["rule_id"])
	assert.Equal(t, 2, data["count"])
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: FormatText, Writer: buf}

	require.NoError(t, formatter.Success("corpus valid"))
	assert.Equal(t, "corpus valid\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: FormatText, Writer: buf}

	require.NoError(t, formatter.Error("E006", "syntax error", map[string]string{"document": "rules.yaml"}))
	assert.Contains(t, buf.String(), "Error [E006]: syntax error")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: FormatText, Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error("E006", "syntax error", map[string]string{"document": "rules.yaml"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			diag := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: FormatJSON, Writer: out, ErrWriter: diag, Verbose: tt.verbose}

			formatter.VerboseLog("loaded %d rules", 7)

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Equal(t, "loaded 7 rules\n", diag.String())
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))

	wrapped := fmt.Errorf("analyze: %w", WrapExitError(ExitFailure, "blocking findings", errors.New("2 critical")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "analyze: blocking findings: 2 critical", wrapped.Error())
}

func TestShouldReport(t *testing.T) {
	assert.False(t, ShouldReport(nil))
	assert.True(t, ShouldReport(errors.New("unknown command")))
	assert.True(t, ShouldReport(NewExitError(ExitCommandError, "invalid format")))
	assert.False(t, ShouldReport(renderedError(ExitCommandError, "E001: bad path")))
	assert.False(t, ShouldReport(fmt.Errorf("analyze: %w", renderedError(ExitFailure, "2 scenario(s) failed"))))
}

func TestRootCommandRenderedErrorsAreNotReported(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantReport bool
	}{
		{"invalid_format", []string{"--format", "xml", "analyze", "testdata/nope.json"}, true},
		{"missing_screens_file", []string{"--format", "json", "analyze", "testdata/nope.json"}, false},
		{"missing_screens_file_text", []string{"analyze", "testdata/nope.json"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, tt.wantReport, ShouldReport(err))
		})
	}
}
