package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/semls/errors"
)

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records, per dotted key, the file that last set it
	// during the most recent Load. Keys set only by defaults map to
	// SourceDefault.
	ConfigSources = map[string]SourceInfo{}
)

// SystemConfigPath is the lowest-precedence config file.
var SystemConfigPath = "/etc/semls/config.toml"

// Load reads the semls configuration using Viper
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	globalConfig = &config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path on top of the
// defaults, ignoring every other source.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return LoadWithViper(v)
}

// WithOverrides returns a copy of base with the settings in overrides
// applied. overrides uses the same nested keys as the TOML file; editors
// send it as LSP initializationOptions.
func WithOverrides(base *Config, overrides map[string]any) (*Config, error) {
	if len(overrides) == 0 {
		cp := *base
		return &cp, nil
	}
	v := viper.New()
	SetDefaults(v)
	if err := v.MergeConfigMap(toSettings(base)); err != nil {
		return nil, errors.Wrap(err, "failed to merge base config")
	}
	if err := v.MergeConfigMap(overrides); err != nil {
		return nil, errors.Wrap(err, "failed to merge overrides")
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(err, "check the initializationOptions sent by the editor")
	}
	return cfg, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// initViper initializes Viper with configuration sources and defaults.
// Callers hold mu.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix("SEMLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)
	sources := make(map[string]SourceInfo)
	markSettingsFromSource(v.AllSettings(), "", SourceDefault, "", sources)

	mergeConfigFiles(v, sources)

	ConfigSources = sources
	viperInstance = v
	return v
}

// FindProjectConfig searches for semls.toml by walking up from the working
// directory. It returns "" when there is none.
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, ProjectConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// UserConfigPath returns ~/.semls/config.toml
func UserConfigPath() string {
	return filepath.Join(userDir(), "config.toml")
}

// mergeConfigFiles merges configuration files in precedence order
// (lowest to highest): system < user < project. Env vars win over all of
// them through AutomaticEnv.
func mergeConfigFiles(v *viper.Viper, sources map[string]SourceInfo) {
	type layer struct {
		path   string
		source ConfigSource
	}
	layers := []layer{
		{SystemConfigPath, SourceSystem},
		{UserConfigPath(), SourceUser},
	}
	if p := FindProjectConfig(); p != "" {
		layers = append(layers, layer{p, SourceProject})
	}

	for _, l := range layers {
		if _, err := os.Stat(l.path); err != nil {
			continue
		}
		tmp := viper.New()
		tmp.SetConfigFile(l.path)
		tmp.SetConfigType("toml")
		if err := tmp.ReadInConfig(); err != nil {
			continue
		}
		settings := tmp.AllSettings()
		if err := v.MergeConfigMap(settings); err != nil {
			continue
		}
		markSettingsFromSource(settings, "", l.source, l.path, sources)
	}
}

// markSettingsFromSource records source for every leaf key of settings.
func markSettingsFromSource(settings map[string]any, prefix string, source ConfigSource, path string, sourceMap map[string]SourceInfo) {
	for key, value := range settings {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			markSettingsFromSource(nested, full, source, path, sourceMap)
			continue
		}
		sourceMap[full] = SourceInfo{Source: source, Path: path}
	}
}

// toSettings renders c as the nested map viper would read from a file.
func toSettings(c *Config) map[string]any {
	return map[string]any{
		"server": map[string]any{
			"websocket_addr":  c.Server.WebSocketAddr,
			"allowed_origins": c.Server.AllowedOrigins,
			"watch":           c.Server.Watch,
		},
		"workspace": map[string]any{
			"max_documents":    c.Workspace.MaxDocuments,
			"validate_on_save": c.Workspace.ValidateOnSave,
		},
		"vocab": map[string]any{
			"enabled":             c.Vocab.Enabled,
			"timeout_seconds":     c.Vocab.TimeoutSeconds,
			"requests_per_second": c.Vocab.RequestsPerSecond,
			"allow_private":       c.Vocab.AllowPrivate,
			"user_agent":          c.Vocab.UserAgent,
			"overrides":           overridesList(c.Vocab.Overrides),
		},
		"cache": map[string]any{
			"kind":          c.Cache.Kind,
			"path":          c.Cache.Path,
			"max_age_hours": c.Cache.MaxAgeHours,
		},
		"format": map[string]any{
			"tab_size":      c.Format.TabSize,
			"insert_spaces": c.Format.InsertSpaces,
		},
		"log": map[string]any{
			"verbosity": c.Log.Verbosity,
			"json":      c.Log.JSON,
			"path":      c.Log.Path,
		},
	}
}

func overridesList(list []VocabOverride) []map[string]any {
	out := make([]map[string]any, len(list))
	for i, o := range list {
		out[i] = map[string]any{"namespace": o.Namespace, "url": o.URL}
	}
	return out
}
