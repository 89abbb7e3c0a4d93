package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inlineScenario = `name: inline_forgot_password
description: "A login screen alone is missing its recovery screen"
corpus:
  flows:
    - flow_type: authentication
      keywords: [login]
      screens:
        - id: forgot-password
          name: Forgot password
          name_patterns: ["forgot"]
screens:
  - id: s-login
    name: Login
    root: {id: login, name: Login, type: FRAME}
assertions:
  - type: missing_screen
    flow_type: authentication
    expected_screen: forgot-password
`

const failingScenario = `name: expects_nothing_missing
description: "Fails: the recovery screen is missing"
corpus:
  flows:
    - flow_type: authentication
      keywords: [login]
      screens:
        - id: forgot-password
          name: Forgot password
screens:
  - id: s-login
    name: Login
    root: {id: login, name: Login, type: FRAME}
assertions:
  - type: missing_screen_count
    count: 0
`

func runTestCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeScenarioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCmd(t, FormatText)
	require.Error(t, err)
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCmd(t, FormatText, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := runTestCmd(t, FormatText, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := runTestCmd(t, FormatJSON, t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.Empty(t, resp.Data.Scenarios)
}

func TestTestCommandRunsHarnessScenarios(t *testing.T) {
	out, err := runTestCmd(t, FormatText, filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ login_without_error_screen")
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "ok.yaml", inlineScenario)
	writeScenarioFile(t, dir, "bad.yaml", failingScenario)

	out, err := runTestCmd(t, FormatJSON, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)

	byName := map[string]ScenarioResult{}
	for _, s := range resp.Data.Scenarios {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "expects_nothing_missing")
	assert.False(t, byName["expects_nothing_missing"].Pass)
	assert.NotEmpty(t, byName["expects_nothing_missing"].Errors)
	assert.True(t, byName["inline_forgot_password"].Pass)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "broken.yaml", "name: broken\n")

	out, err := runTestCmd(t, FormatText, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := writeScenarioFile(t, dir, "inline.yaml", inlineScenario)
	goldenPath := goldenFilePath(scenarioPath)

	out, err := runTestCmd(t, FormatText, dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ inline_forgot_password (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"inline_forgot_password"`)
	assert.Contains(t, string(golden), `"expected_screen_id":"forgot-password"`)

	out, err = runTestCmd(t, FormatText, dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ inline_forgot_password\n")

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario_name":"stale"}`), 0644))
	out, err = runTestCmd(t, FormatText, dir)
	require.Error(t, err)
	assert.Contains(t, out, "report does not match golden file")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "login-forgot.yaml", inlineScenario)
	writeScenarioFile(t, dir, "other.yaml", failingScenario)

	out, err := runTestCmd(t, FormatText, dir, "--filter", "login-*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	_, err = runTestCmd(t, FormatText, dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "a.yaml", inlineScenario)
	writeScenarioFile(t, dir, "nested/b.yml", inlineScenario)
	writeScenarioFile(t, dir, "notes.txt", "ignore me")
	writeScenarioFile(t, dir, "golden/a.yaml", "not a scenario")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "nested", "b.yml"),
	}, files)
}

func TestGoldenFilePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"scenarios/login.yaml", filepath.Join("scenarios", "golden", "login.golden")},
		{"scenarios/nested/cart.yml", filepath.Join("scenarios", "nested", "golden", "cart.golden")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, goldenFilePath(tt.input))
		})
	}
}
