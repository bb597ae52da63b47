package am

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/teranos/semls/lang"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.websocket_addr", "")
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
		"vscode-webview://",
	})
	v.SetDefault("server.watch", true)

	v.SetDefault("workspace.max_documents", DefaultMaxDocuments)
	v.SetDefault("workspace.validate_on_save", true)

	v.SetDefault("vocab.enabled", true)
	v.SetDefault("vocab.timeout_seconds", int(DefaultVocabTimeout/time.Second))
	v.SetDefault("vocab.requests_per_second", 2.0) // polite to vocabulary hosts
	v.SetDefault("vocab.allow_private", false)
	v.SetDefault("vocab.user_agent", "semls")

	v.SetDefault("cache.kind", CacheSQLite)
	v.SetDefault("cache.path", filepath.Join(userDir(), "cache.db"))
	v.SetDefault("cache.max_age_hours", int(DefaultCacheMaxAge/time.Hour))

	v.SetDefault("format.tab_size", DefaultTabSize)
	v.SetDefault("format.insert_spaces", true)

	v.SetDefault("log.verbosity", 0)
	v.SetDefault("log.json", false)
	v.SetDefault("log.path", "")
}

// BindEnvVars binds settings whose env names do not follow the automatic
// SEMLS_SECTION_KEY mapping.
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("cache.path", "SEMLS_CACHE_PATH", "SEMLS_CACHE")
	v.BindEnv("log.path", "SEMLS_LOG_PATH", "SEMLS_LOG")
	v.BindEnv("server.websocket_addr", "SEMLS_SERVER_WEBSOCKET_ADDR", "SEMLS_WS")
}

// userDir returns ~/.semls, or .semls when the home directory is unknown.
func userDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".semls"
	}
	return filepath.Join(home, ".semls")
}

// MaxDocuments returns the open document limit (default 500)
func (c *Config) MaxDocuments() int {
	if c.Workspace.MaxDocuments <= 0 {
		return DefaultMaxDocuments
	}
	return c.Workspace.MaxDocuments
}

// VocabTimeout returns the per-fetch timeout (default 10s)
func (c *Config) VocabTimeout() time.Duration {
	if c.Vocab.TimeoutSeconds <= 0 {
		return DefaultVocabTimeout
	}
	return time.Duration(c.Vocab.TimeoutSeconds) * time.Second
}

// CacheMaxAge returns how long a cached vocabulary stays fresh (default 7 days)
func (c *Config) CacheMaxAge() time.Duration {
	if c.Cache.MaxAgeHours <= 0 {
		return DefaultCacheMaxAge
	}
	return time.Duration(c.Cache.MaxAgeHours) * time.Hour
}

// FormatOptions returns the configured fallback formatting options
func (c *Config) FormatOptions() lang.FormatOptions {
	n := c.Format.TabSize
	if n <= 0 {
		n = DefaultTabSize
	}
	return lang.FormatOptions{TabSize: n, InsertSpaces: c.Format.InsertSpaces}
}

// OverrideMap returns the vocabulary overrides keyed by namespace
func (c *Config) OverrideMap() map[string]string {
	out := make(map[string]string, len(c.Vocab.Overrides))
	for _, o := range c.Vocab.Overrides {
		out[o.Namespace] = o.URL
	}
	return out
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {WebSocket: %q}, Vocab: {Enabled: %t}, Cache: {Kind: %s, Path: %s}}",
		c.Server.WebSocketAddr, c.Vocab.Enabled, c.Cache.Kind, c.Cache.Path)
}
