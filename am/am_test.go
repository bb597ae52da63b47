package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at a fresh temp dir and
// resets the cached config around the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	old := SystemConfigPath
	SystemConfigPath = filepath.Join(dir, "etc", "config.toml")
	Reset()
	t.Cleanup(func() {
		SystemConfigPath = old
		Reset()
	})
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxDocuments, cfg.Workspace.MaxDocuments)
	assert.True(t, cfg.Workspace.ValidateOnSave)
	assert.True(t, cfg.Vocab.Enabled)
	assert.Equal(t, CacheSQLite, cfg.Cache.Kind)
	assert.Equal(t, 2, cfg.Format.TabSize)
	assert.True(t, cfg.Format.InsertSpaces)
	assert.Empty(t, cfg.Server.WebSocketAddr)
	assert.NoError(t, cfg.Validate())
}

func TestAccessors_ZeroValues(t *testing.T) {
	var cfg Config
	assert.Equal(t, DefaultMaxDocuments, cfg.MaxDocuments())
	assert.Equal(t, DefaultVocabTimeout, cfg.VocabTimeout())
	assert.Equal(t, DefaultCacheMaxAge, cfg.CacheMaxAge())
	assert.Equal(t, DefaultTabSize, cfg.FormatOptions().TabSize)

	cfg.Vocab.TimeoutSeconds = 3
	cfg.Cache.MaxAgeHours = 1
	assert.Equal(t, 3*time.Second, cfg.VocabTimeout())
	assert.Equal(t, time.Hour, cfg.CacheMaxAge())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero max documents means default", func(c *Config) { c.Workspace.MaxDocuments = 0 }, false},
		{"negative max documents", func(c *Config) { c.Workspace.MaxDocuments = -1 }, true},
		{"websocket host:port", func(c *Config) { c.Server.WebSocketAddr = "localhost:7878" }, false},
		{"websocket without port", func(c *Config) { c.Server.WebSocketAddr = "localhost" }, true},
		{"negative rate", func(c *Config) { c.Vocab.RequestsPerSecond = -1 }, true},
		{"unknown cache kind", func(c *Config) { c.Cache.Kind = "redis" }, true},
		{"sqlite without path", func(c *Config) { c.Cache.Path = "" }, true},
		{"no cache needs no path", func(c *Config) { c.Cache.Kind, c.Cache.Path = CacheNone, "" }, false},
		{"tab size too large", func(c *Config) { c.Format.TabSize = 40 }, true},
		{"negative verbosity", func(c *Config) { c.Log.Verbosity = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".semls"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".semls", "config.toml"), []byte(`
[format]
tab_size = 4

[vocab]
timeout_seconds = 3
`), 0644))

	project := filepath.Join(dir, "project", "sub")
	require.NoError(t, os.MkdirAll(project, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "project", ProjectConfigFileName), []byte(`
[format]
tab_size = 8
`), 0644))
	t.Chdir(project)
	t.Setenv("SEMLS_WORKSPACE_MAX_DOCUMENTS", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Format.TabSize, "project file wins over user file")
	assert.Equal(t, 3, cfg.Vocab.TimeoutSeconds, "user file wins over defaults")
	assert.Equal(t, 42, cfg.Workspace.MaxDocuments, "environment wins over files")

	assert.Equal(t, SourceProject, ConfigSources["format.tab_size"].Source)
	assert.Contains(t, ConfigSources["format.tab_size"].Path, ProjectConfigFileName)
	assert.Equal(t, SourceUser, ConfigSources["vocab.timeout_seconds"].Source)
	assert.Equal(t, SourceDefault, ConfigSources["cache.kind"].Source)
}

func TestLoad_Cached(t *testing.T) {
	isolate(t)

	a, err := Load()
	require.NoError(t, err)
	b, err := Load()
	require.NoError(t, err)
	assert.Same(t, a, b)

	Reset()
	c, err := Load()
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semls.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[cache]
kind = "dir"
path = "/tmp/semls-cache"

[[vocab.overrides]]
namespace = "http://xmlns.com/foaf/0.1/"
url = "file:///vocab/foaf.ttl"
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, CacheDir, cfg.Cache.Kind)
	assert.Equal(t, "/tmp/semls-cache", cfg.Cache.Path)
	assert.Equal(t, "file:///vocab/foaf.ttl", cfg.OverrideMap()["http://xmlns.com/foaf/0.1/"])
	assert.Equal(t, DefaultMaxDocuments, cfg.Workspace.MaxDocuments)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestWithOverrides(t *testing.T) {
	base := DefaultConfig()

	cfg, err := WithOverrides(base, map[string]any{
		"format": map[string]any{"tab_size": 4},
		"vocab":  map[string]any{"enabled": false},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Format.TabSize)
	assert.False(t, cfg.Vocab.Enabled)
	assert.Equal(t, base.Cache.Path, cfg.Cache.Path)
	assert.Equal(t, 2, base.Format.TabSize, "base is not modified")

	_, err = WithOverrides(base, map[string]any{"cache": map[string]any{"kind": "redis"}})
	assert.Error(t, err)

	same, err := WithOverrides(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, same)
	assert.NotSame(t, base, same)
}
