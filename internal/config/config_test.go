package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dusk-indust/chartflow/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sample = `
analyst: desk-1
logLevel: debug
pipelineTimeout: 5m
toolTimeout: 20s
tools:
  get-price:
    command: coingecko-tool
    args: ["--json"]
    env:
      API_KEY: secret
    timeout: 5s
  news-search:
    url: http://localhost:9000/tools
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yml", sample)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "desk-1", cfg.Analyst)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.PipelineTimeoutDuration())
	assert.Equal(t, 20*time.Second, cfg.ToolTimeoutDuration())
	assert.Equal(t, []string{"get-price", "news-search"}, cfg.ToolNames())
	assert.Equal(t, ToolConfig{
		Command: "coingecko-tool",
		Args:    []string{"--json"},
		Env:     map[string]string{"API_KEY": "secret"},
		Timeout: "5s",
	}, cfg.Tools["get-price"])
	assert.Equal(t, "http://localhost:9000/tools", cfg.Tools["news-search"].URL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorContains(t, err, "config: read")

	path := writeFile(t, t.TempDir(), "bad.yml", "tools: [unclosed")
	_, err = Load(path)
	assert.ErrorContains(t, err, "config: parse")
}

func TestLoadDir(t *testing.T) {
	cfg, err := LoadDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)

	dir := t.TempDir()
	writeFile(t, dir, "chartflow.yaml", "analyst: from-yaml\n")
	cfg, err = LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Analyst)

	writeFile(t, dir, "chartflow.yml", "analyst: from-yml\n")
	cfg, err = LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-yml", cfg.Analyst, "chartflow.yml wins")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		LogLevel:        "loud",
		PipelineTimeout: "soon",
		ToolTimeout:     "-1s",
		Tools: map[string]ToolConfig{
			"a": {},
			"b": {Command: "x", URL: "http://y"},
			"c": {Command: "x", Timeout: "1 minute"},
			"d": {Command: "ok"},
		},
	}
	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"pipelineTimeout:",
		"toolTimeout: negative duration -1s",
		`logLevel: unknown level "loud"`,
		"tools.a: command or url is required",
		"tools.b: command and url are mutually exclusive",
		"tools.c.timeout:",
	} {
		assert.Contains(t, msg, want)
	}
	assert.NotContains(t, msg, "tools.d")

	assert.NoError(t, (&Config{}).Validate())
}

func TestInvoker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"payload":{"via":"http"}}` + "\n"))
	}))
	defer srv.Close()

	cfg := &Config{
		ToolTimeout: "5s",
		Tools: map[string]ToolConfig{
			"echo": {
				Command: "/bin/sh",
				Args:    []string{"-c", `read line; echo '{"ok":true,"payload":{"via":"process"}}'`},
			},
			"remote": {URL: srv.URL},
		},
	}
	r, err := cfg.Invoker(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "remote"}, r.Tools())

	for name, want := range map[string]string{"echo": "process", "remote": "http"} {
		resp := r.Invoke(context.Background(), tool.Request{Tool: name, Arguments: map[string]any{}})
		require.True(t, resp.OK, resp.Diagnostic)
		obj, ok := resp.Object()
		require.True(t, ok)
		assert.Equal(t, want, obj["via"])
	}

	resp := r.Invoke(context.Background(), tool.Request{Tool: "nope"})
	assert.False(t, resp.OK)
}

func TestInvoker_RejectsInvalidConfig(t *testing.T) {
	cfg := &Config{Tools: map[string]ToolConfig{"broken": {}}}
	_, err := cfg.Invoker(nil)
	assert.ErrorContains(t, err, "tools.broken: command or url is required")
}
