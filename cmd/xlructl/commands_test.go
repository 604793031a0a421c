package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ConfigDefaults(t *testing.T) {
	code, out, _ := runCLI(t, "config")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "max_items: 10000")
	assert.Contains(t, out, "mode: none")
	assert.Contains(t, out, "lock_timeout: 3m0s")
}

func TestRun_ConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_items: 500
max_memory_bytes: 4096
policy:
  mode: sliding
  default_ttl: 30s
`), 0o600))
	t.Setenv("XLRU_MAX_ITEMS", "42")

	code, out, _ := runCLI(t, "-c", path, "config", "--format", "json")
	require.Equal(t, 0, code)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.EqualValues(t, 42, got["max_items"])
	assert.EqualValues(t, 4096, got["max_memory_bytes"])
	assert.Equal(t, map[string]any{"mode": "sliding", "default_ttl": "30s"}, got["policy"])
}

func TestRun_ConfigErrors(t *testing.T) {
	code, _, stderr := runCLI(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "config")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "参数错误")

	code, _, _ = runCLI(t, "config", "--format", "toml")
	assert.Equal(t, 2, code)

	t.Setenv("XLRU_MAX_ITEMS", "-1")
	code, _, _ = runCLI(t, "config")
	assert.Equal(t, 2, code)
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _, _ := runCLI(t, "config", "--no-such-flag")
	assert.Equal(t, 2, code)
}

func TestRun_BadLogOptions(t *testing.T) {
	code, _, _ := runCLI(t, "--log-format", "xml", "simulate", "--ops", "1")
	assert.Equal(t, 2, code)
}

func TestRun_Simulate(t *testing.T) {
	code, out, _ := runCLI(t, "--log-level", "error",
		"simulate", "--workers", "2", "--ops", "200", "--keys", "50", "--seed", "7")
	require.Equal(t, 0, code)

	assert.Contains(t, out, "2 workers x 200 ops")
	assert.Contains(t, out, "stats: requests=400 ")
	assert.Contains(t, out, "xlru.cache.requests{cache=simulate} 400")
	assert.Contains(t, out, "xlru.operation.total{")
}

func TestRun_SimulateWithTTL(t *testing.T) {
	code, out, _ := runCLI(t, "--log-level", "error",
		"simulate", "--workers", "1", "--ops", "100", "--mode", "absolute", "--ttl", "1h")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "expired=0")
}

func TestRun_SimulateInvalidOptions(t *testing.T) {
	for _, args := range [][]string{
		{"simulate", "--workers", "0"},
		{"simulate", "--keys", "0"},
		{"simulate", "--read-ratio", "1.5"},
		{"simulate", "--ttl=-1s"},
		{"simulate", "--mode", "forever"},
	} {
		code, _, _ := runCLI(t, args...)
		assert.Equal(t, 2, code, "%v", args)
	}
}

func TestRun_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xlructl.log")
	code, _, stderr := runCLI(t, "--log-file", path, "--log-format", "json",
		"simulate", "--workers", "1", "--ops", "10")
	require.Equal(t, 0, code)
	assert.Empty(t, stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"xlructl: simulation finished"`)
	assert.Contains(t, string(data), `"run_id":`)
}

func TestRun_Check(t *testing.T) {
	code, out, _ := runCLI(t, "--log-level", "error", "check", "--run", "basic", "--run", "memory")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "running basic put/get/remove... PASSED")
	assert.Contains(t, out, "2/2 checks passed")
}

func TestSelectScenarios(t *testing.T) {
	assert.Len(t, selectScenarios(nil), len(scenarios()))
	got := selectScenarios([]string{"expiration"})
	require.Len(t, got, 2)
	assert.Equal(t, "absolute expiration", got[0].name)
	assert.Equal(t, "sliding expiration", got[1].name)
	assert.Empty(t, selectScenarios([]string{"nothing"}))
}

func TestIsCLIUsageError(t *testing.T) {
	assert.True(t, isCLIUsageError(errors.New("flag provided but not defined: -x")))
	assert.False(t, isCLIUsageError(errors.New("boom")))
}
