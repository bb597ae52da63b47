package am

import (
	"os"
	"sort"
	"strings"

	"github.com/teranos/semls/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/semls/config.toml
	SourceUser        ConfigSource = "user"        // ~/.semls/config.toml
	SourceProject     ConfigSource = "project"     // nearest semls.toml
	SourceEditor      ConfigSource = "editor"      // LSP initializationOptions
	SourceEnvironment ConfigSource = "environment" // SEMLS_* env vars
)

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      any          `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	ProjectFile string        `json:"project_file,omitempty" yaml:"project_file,omitempty"`
	Settings    []SettingInfo `json:"settings" yaml:"settings"`
}

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // file path or environment variable name
}

// GetConfigIntrospection returns every effective setting with the source
// that set it.
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}
	v := GetViper()

	mu.Lock()
	sources := ConfigSources
	mu.Unlock()

	in := &ConfigIntrospection{ProjectFile: FindProjectConfig()}
	flattenSettingsWithSources(v.AllSettings(), "", in, sources)
	return in, nil
}

// flattenSettingsWithSources flattens settings in key order and assigns
// sources from sourceMap. An environment variable overrides any file.
func flattenSettingsWithSources(settings map[string]any, prefix string, in *ConfigIntrospection, sourceMap map[string]SourceInfo) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flattenSettingsWithSources(nested, full, in, sourceMap)
			continue
		}

		info := SourceInfo{Source: SourceDefault}
		if si, ok := sourceMap[full]; ok {
			info = si
		}
		envKey := "SEMLS_" + strings.ToUpper(strings.ReplaceAll(full, ".", "_"))
		if os.Getenv(envKey) != "" {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		in.Settings = append(in.Settings, SettingInfo{
			Key:        full,
			Value:      value,
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
}
