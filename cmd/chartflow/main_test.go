package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		runFlags.engine = engineFlags{}
		runFlags.jsonOnly = false
		stagesJSON = false
		rootCmd.SetArgs(nil)
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chartflow.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestMalformedConfig_OnlyBreaksPipelineCommands(t *testing.T) {
	bad := writeConfig(t, "tools: [unclosed\n")

	out, err := execute(t, "stages", "--config", bad)
	require.NoError(t, err)
	assert.Contains(t, out, "context")
	assert.Contains(t, out, "actionplan")

	out, err = execute(t, "version", "--config", bad)
	require.NoError(t, err)
	assert.Equal(t, "chartflow dev\n", out)

	out, err = execute(t, "diagram", "--config", bad)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")

	_, err = execute(t, "run", "BTCUSDT 4h", "--simulate", "--config", bad)
	assert.ErrorContains(t, err, "config: parse")
}

func TestRun_SimulatedJSON(t *testing.T) {
	good := writeConfig(t, "analyst: desk-1\n")

	out, err := execute(t, "run", "BTCUSDT", "4h", "--simulate", "--json", "--config", good)
	require.NoError(t, err)
	assert.Contains(t, out, `"direction": "long"`)
	assert.Contains(t, out, `"analyst": "desk-1"`)
	assert.NotContains(t, out, "--- SUMMARY ---")
}

func TestRun_NoToolsConfigured(t *testing.T) {
	empty := writeConfig(t, "analyst: desk-1\n")

	_, err := execute(t, "run", "BTCUSDT 4h", "--config", empty)
	assert.ErrorContains(t, err, "no tools configured")
}
