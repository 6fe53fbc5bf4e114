package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigtrace/internal/rules"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sigtrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Project.Root)
	assert.Equal(t, PresetVue, cfg.Analysis.Preset)
	assert.Equal(t, DefaultCacheSize, cfg.Analysis.CacheSize)
	assert.Equal(t, DefaultDB, cfg.Storage.DB)
	assert.False(t, cfg.Analysis.Strict)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
project:
  root: web
  ignore: [dist, coverage]
analysis:
  strict: true
  cache_size: 16
  rules:
    - name: useStore
      binding:
        access_types: [".*"]
    - name: "/^track[A-Z]/"
      arguments:
        - type: effect
storage:
  db: out/graph.db
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "web", cfg.Project.Root)
	assert.Equal(t, []string{"dist", "coverage"}, cfg.Project.Ignore)
	assert.True(t, cfg.Analysis.Strict)
	assert.Equal(t, 16, cfg.Analysis.CacheSize)
	assert.Equal(t, "out/graph.db", cfg.Storage.DB)

	set, err := cfg.RuleSet()
	require.NoError(t, err)

	require.NotEmpty(t, set)
	assert.Equal(t, "useStore", set[0].Name.String())

	r, ok := set.Find("trackClicks", rules.Context{})
	require.True(t, ok)
	assert.Equal(t, "/^track[A-Z]/", r.Name.String())

	// The preset still follows the declared rules.
	_, ok = set.Find("ref", rules.Context{})
	assert.True(t, ok)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SIGTRACE_DB", "env.db")
	t.Setenv("SIGTRACE_PRESET", "none")
	t.Setenv("SIGTRACE_CACHE_SIZE", "4")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Storage.DB)
	assert.Equal(t, 4, cfg.Analysis.CacheSize)

	set, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown preset", "analysis:\n  preset: react\n"},
		{"bad access type", "analysis:\n  rules:\n    - name: x\n      binding:\n        access_types: [\"value\"]\n"},
		{"bad trigger", "analysis:\n  rules:\n    - name: x\n      arguments:\n        - type: signal\n"},
		{"negative cache", "analysis:\n  cache_size: -1\n"},
		{"malformed yaml", "analysis: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	t.Run("bad cache size env", func(t *testing.T) {
		t.Setenv("SIGTRACE_CACHE_SIZE", "lots")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
