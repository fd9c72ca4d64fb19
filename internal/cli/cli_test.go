package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketloom/marketloom/internal/schema"
)

// execCLI runs the root command with args against a fresh command tree.
func execCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeTicksCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticks.csv")
	csv := strings.Join([]string{
		"ts_ms,symbol,price_ticks,size,seq_no,recv_ts_ms",
		"1700000000100,BHP.ASX,4200,10,1,1700000000200",
		"1700000010000,BHP.ASX,4210,5,2,1700000010100",
		"1700000070000,BHP.ASX,4230,20,3,1700000070100",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	return path
}

func TestCLI_IngestRunCatReplay(t *testing.T) {
	store := filepath.Join(t.TempDir(), "bus")
	csvPath := writeTicksCSV(t)

	out, _, err := execCLI(t, "--store", store, "ingest", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Published 3 tick(s)")

	out, _, err = execCLI(t, "--store", store, "--format", "json", "run")
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.GreaterOrEqual(t, data["bars"].(float64), 2.0)

	out, _, err = execCLI(t, "--store", store, "cat")
	require.NoError(t, err)
	assert.Contains(t, out, schema.TopicTick)
	assert.Contains(t, out, schema.TopicBar)

	out, _, err = execCLI(t, "--store", store, "cat", schema.TopicBar)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	for _, line := range lines {
		assert.True(t, json.Valid([]byte(line)), "bar log line should be JSON: %s", line)
	}

	out, _, err = execCLI(t, "--store", store, "replay")
	require.NoError(t, err)
	assert.Contains(t, out, "deterministic")
	assert.Contains(t, out, "Fingerprint:")
}

func TestCLI_ReplayJSONReportsFingerprint(t *testing.T) {
	store := filepath.Join(t.TempDir(), "bus")
	csvPath := writeTicksCSV(t)

	_, _, err := execCLI(t, "--store", store, "ingest", csvPath)
	require.NoError(t, err)

	out, _, err := execCLI(t, "--store", store, "--format", "json", "replay")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Len(t, data["fingerprint"].(string), 64)
	assert.Equal(t, true, data["deterministic"])
}

func TestCLI_FuseAfterRun(t *testing.T) {
	store := filepath.Join(t.TempDir(), "bus")
	csvPath := writeTicksCSV(t)

	_, _, err := execCLI(t, "--store", store, "ingest", csvPath)
	require.NoError(t, err)
	_, _, err = execCLI(t, "--store", store, "run")
	require.NoError(t, err)

	out, _, err := execCLI(t, "--store", store, "--format", "json", "fuse")
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_SQLiteStore(t *testing.T) {
	store := filepath.Join(t.TempDir(), "loom.db")
	csvPath := writeTicksCSV(t)

	out, _, err := execCLI(t, "--store", store, "ingest", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Published 3 tick(s)")

	out, _, err = execCLI(t, "--store", store, "cat", schema.TopicTick)
	require.NoError(t, err)
	assert.Contains(t, out, "BHP.ASX")
}

func TestCLI_IngestMissingFile(t *testing.T) {
	store := filepath.Join(t.TempDir(), "bus")

	_, _, err := execCLI(t, "--store", store, "ingest", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCLI_RunWithConfig(t *testing.T) {
	store := filepath.Join(t.TempDir(), "bus")
	csvPath := writeTicksCSV(t)
	cfgPath := filepath.Join(t.TempDir(), "loom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("aggregator:\n  timeframe_ms: 10000\n"), 0o644))

	_, _, err := execCLI(t, "--store", store, "ingest", csvPath)
	require.NoError(t, err)

	out, _, err := execCLI(t, "--store", store, "--format", "json", "run", "--config", cfgPath)
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data := resp.Data.(map[string]any)
	// 10s windows split the three ticks into three bars
	assert.Equal(t, 3.0, data["bars"].(float64))
}

func TestCLI_CatUnknownTopicEmpty(t *testing.T) {
	store := filepath.Join(t.TempDir(), "bus")

	out, _, err := execCLI(t, "--store", store, "cat", "no.such.topic")
	require.NoError(t, err)
	assert.Empty(t, out)
}
