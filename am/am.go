// Package am loads the semls configuration: built-in defaults, then
// /etc/semls/config.toml, ~/.semls/config.toml, the nearest project
// semls.toml and finally SEMLS_* environment variables.
package am

import "time"

// Config represents the semls configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Vocab     VocabConfig     `mapstructure:"vocab"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Format    FormatConfig    `mapstructure:"format"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the language server transports
type ServerConfig struct {
	WebSocketAddr  string   `mapstructure:"websocket_addr"` // e.g. "localhost:7878"; empty = stdio only
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Watch          bool     `mapstructure:"watch"` // reload semls.toml while serving
}

// WorkspaceConfig bounds the set of open documents
type WorkspaceConfig struct {
	MaxDocuments   int  `mapstructure:"max_documents"`    // 0 = default 500
	ValidateOnSave bool `mapstructure:"validate_on_save"` // check terms against fetched vocabularies
}

// VocabConfig configures fetching of vocabularies named by prefix namespaces
type VocabConfig struct {
	Enabled           bool            `mapstructure:"enabled"`
	TimeoutSeconds    int             `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64         `mapstructure:"requests_per_second"` // 0 = unlimited
	AllowPrivate      bool            `mapstructure:"allow_private"`       // permit loopback and private addresses
	UserAgent         string          `mapstructure:"user_agent"`
	Overrides         []VocabOverride `mapstructure:"overrides"`
}

// VocabOverride serves a namespace from another URL or a local file.
// Overrides are a list of tables because namespaces contain dots, which
// viper reads as key separators.
type VocabOverride struct {
	Namespace string `mapstructure:"namespace"`
	URL       string `mapstructure:"url"` // http(s) URL or file:// path
}

// CacheConfig configures where fetched vocabularies are kept
type CacheConfig struct {
	Kind        string `mapstructure:"kind"` // sqlite, dir, none
	Path        string `mapstructure:"path"` // database file or directory
	MaxAgeHours int    `mapstructure:"max_age_hours"`
}

// FormatConfig is used when the editor sends no formatting options
type FormatConfig struct {
	TabSize      int  `mapstructure:"tab_size"`
	InsertSpaces bool `mapstructure:"insert_spaces"`
}

// LogConfig configures the global logger
type LogConfig struct {
	Verbosity int    `mapstructure:"verbosity"` // 0-4, see logger.VerbosityToLevel
	JSON      bool   `mapstructure:"json"`
	Path      string `mapstructure:"path"` // empty = stderr
}

// Cache kinds
const (
	CacheSQLite = "sqlite"
	CacheDir    = "dir"
	CacheNone   = "none"
)

// Defaults shared by SetDefaults and the zero-value fallbacks.
const (
	DefaultMaxDocuments   = 500
	DefaultVocabTimeout   = 10 * time.Second
	DefaultCacheMaxAge    = 7 * 24 * time.Hour
	DefaultTabSize        = 2
	DefaultWebSocketAddr  = "localhost:7878"
	ProjectConfigFileName = "semls.toml"
)

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
