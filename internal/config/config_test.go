package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := Load(Sources{DotEnv: filepath.Join(dir, ".env"), Getenv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, time.Minute, cfg.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadLayers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, "apislice.yaml", `out: out-from-file
logs: logs-from-file
workers: 2
timeout: 30s
refs: [a.yaml]
max_slices: 3
`)
	dotenv := writeFile(t, dir, ".env", "APISLICE_LOGS=logs-from-dotenv\nAPISLICE_WORKERS=4\n")
	env := map[string]string{"APISLICE_WORKERS": "8", "APISLICE_REFS": "x.yaml, y"}

	cfg, err := Load(Sources{File: file, DotEnv: dotenv, Getenv: func(k string) string { return env[k] }})
	require.NoError(t, err)

	assert.Equal(t, "out-from-file", cfg.Out)
	assert.Equal(t, "logs-from-dotenv", cfg.Logs)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"x.yaml", "y"}, cfg.Refs)
	assert.Equal(t, 3, cfg.MaxSlices)
	assert.Equal(t, "keywords.json", cfg.Rules)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name string
		src  Sources
	}{
		{"missing named file", Sources{File: filepath.Join(dir, "nope.yaml"), Getenv: noEnv}},
		{"bad yaml", Sources{File: writeFile(t, dir, "bad.yaml", "workers: [\n"), Getenv: noEnv}},
		{"bad integer", Sources{
			DotEnv: filepath.Join(dir, "none.env"),
			Getenv: func(k string) string {
				if k == "APISLICE_WORKERS" {
					return "many"
				}
				return ""
			},
		}},
		{"bad duration", Sources{
			DotEnv: filepath.Join(dir, "none.env"),
			Getenv: func(k string) string {
				if k == "APISLICE_TIMEOUT" {
					return "soon"
				}
				return ""
			},
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(tt.src)
			require.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"no rules", func(c *Config) { c.Rules = "" }},
		{"no out", func(c *Config) { c.Out = "" }},
		{"negative limit", func(c *Config) { c.MaxSliceNodes = -1 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b"}, SplitList(" a,,b ,"))
	assert.Nil(t, SplitList(""))
}
