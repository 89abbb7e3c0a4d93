package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inv-mschultz/edgy-sub001/internal/idgen"
	"github.com/inv-mschultz/edgy-sub001/internal/store"
)

// seedHistory records two runs: the login screens with the built-in corpus,
// then the dashboard with the destructive rule.
func seedHistory(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "edgy.db")

	for _, run := range []struct {
		id   string
		args []string
	}{
		{"run-1", []string{loginScreens, "--db", dbPath}},
		{"run-2", []string{dashboardScreens, "--rules", destructiveRules, "--db", dbPath}},
	} {
		opts := &AnalyzeOptions{
			RootOptions:    &RootOptions{Format: FormatText},
			RunIDGenerator: idgen.NewStaticGenerator(run.id),
		}
		cmd := newAnalyzeCommand(opts)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(run.args)
		require.NoError(t, cmd.Execute())
	}
	return dbPath
}

func runHistoryCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHistoryListRuns(t *testing.T) {
	dbPath := seedHistory(t)

	out, err := runHistoryCmd(t, FormatJSON, "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "run-2", resp.Data[0].ID, "most recent first")
	assert.Equal(t, "run-1", resp.Data[1].ID)
	assert.Equal(t, 1, resp.Data[0].Findings)

	out, err = runHistoryCmd(t, FormatText, "--db", dbPath, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "run-2")
	assert.NotContains(t, out, "run-1")
}

func TestHistorySourceFilter(t *testing.T) {
	dbPath := seedHistory(t)

	out, err := runHistoryCmd(t, FormatJSON, "--db", dbPath, "--source", loginScreens)
	require.NoError(t, err)

	var resp struct {
		Data []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "run-1", resp.Data[0].ID)
}

func TestHistoryShowRun(t *testing.T) {
	dbPath := seedHistory(t)

	out, err := runHistoryCmd(t, FormatText, "--db", dbPath, "--run", "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "Run run-2")
	assert.Contains(t, out, "[critical] Unconfirmed Delete Account (destructive-confirmation on Dashboard)")

	out, err = runHistoryCmd(t, FormatJSON, "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)
	var resp struct {
		RunID string    `json:"run_id"`
		Data  RunDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Len(t, resp.Data.MissingScreens, 3)
	assert.NotEmpty(t, resp.Data.Findings)
}

func TestHistoryFrequency(t *testing.T) {
	dbPath := seedHistory(t)

	out, err := runHistoryCmd(t, FormatJSON, "--db", dbPath, "--frequency")
	require.NoError(t, err)

	var resp struct {
		Data []RuleCount `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	counts := map[string]int{}
	for _, r := range resp.Data {
		counts[r.RuleID] = r.Count
	}
	assert.Equal(t, 1, counts["destructive-confirmation"])
	assert.GreaterOrEqual(t, counts["form-error-state"], 1)
}

func TestHistoryErrors(t *testing.T) {
	dbPath := seedHistory(t)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"missing_database", []string{"--db", filepath.Join(t.TempDir(), "none.db")}, ErrCodeStore},
		{"unknown_run", []string{"--db", dbPath, "--run", "run-404"}, ErrCodeRunNotFound},
		{"run_and_frequency", []string{"--db", dbPath, "--run", "latest", "--frequency"}, ErrCodeUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runHistoryCmd(t, FormatJSON, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
