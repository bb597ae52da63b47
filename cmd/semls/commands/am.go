package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/semls/am"
	"github.com/teranos/semls/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage semls configuration",
	Long: `am - Manage semls configuration ("I am")

Display and edit the settings semls runs with.

Configuration sources (in order of precedence):
1. Editor initializationOptions (language server sessions only)
2. Environment variables (SEMLS_* prefix)
3. Project config (nearest ./semls.toml, searching up directories)
4. User config (~/.semls/config.toml)
5. System config (/etc/semls/config.toml)
6. Default values

Examples:
  semls am show                       # Show current configuration
  semls am show --format json         # Show configuration as JSON
  semls am where                      # Show which file set each value
  semls am init                       # Write ./semls.toml with defaults
  semls am set vocab.enabled false    # Change one setting in ./semls.toml`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective semls configuration from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., vocab.timeout, format.tab_size)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and the source of every setting.

Settings are grouped by the file (or environment) that set them last.`,
	RunE: runAmWhere,
}

var amInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with every default",
	Long:  "Write ./semls.toml (or the user config with --user) spelling out every default setting.",
	RunE:  runAmInit,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting in a config file",
	Long: `Set a dotted key in the project config (or the user config with --user).

Values are stored as booleans or numbers when they parse as one.
The file is created when it does not exist.`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var (
	configFormat string
	amUser       bool
	amForce      bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amInitCmd.Flags().BoolVar(&amUser, "user", false, "Write the user config instead of ./semls.toml")
	amInitCmd.Flags().BoolVar(&amForce, "force", false, "Overwrite an existing file (a backup is kept)")
	amSetCmd.Flags().BoolVar(&amUser, "user", false, "Edit the user config instead of the project config")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amSetCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	out := cmd.OutOrStdout()

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# semls configuration\n%s", string(data))
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(out, "# semls configuration\n%s", string(data))
	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	fmt.Fprintf(out, "  2. [SYSTEM]   %s\n", am.SystemConfigPath)
	fmt.Fprintf(out, "  3. [USER]     %s\n", am.UserConfigPath())
	if intro.ProjectFile != "" {
		fmt.Fprintf(out, "  4. [PROJECT]  %s\n", intro.ProjectFile)
	} else {
		fmt.Fprintf(out, "  4. [PROJECT]  ./%s (not found)\n", am.ProjectConfigFileName)
	}
	fmt.Fprintln(out, "  5. [ENV]      SEMLS_* environment variables")
	fmt.Fprintln(out)

	type group struct {
		source   am.ConfigSource
		path     string
		settings []am.SettingInfo
	}
	var groups []*group
	byKey := make(map[string]*group)
	for _, s := range intro.Settings {
		key := string(s.Source) + "\x00" + s.SourcePath
		g, ok := byKey[key]
		if !ok {
			g = &group{source: s.Source, path: s.SourcePath}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.settings = append(g.settings, s)
	}

	order := []am.ConfigSource{
		am.SourceDefault,
		am.SourceSystem,
		am.SourceUser,
		am.SourceProject,
		am.SourceEnvironment,
	}
	fmt.Fprintln(out, "Active configuration:")
	for _, source := range order {
		for _, g := range groups {
			if g.source != source {
				continue
			}
			switch {
			case g.path != "" && source != am.SourceEnvironment:
				fmt.Fprintf(out, "\n%s: %d settings from %s\n", source, len(g.settings), g.path)
			case source == am.SourceEnvironment:
				fmt.Fprintf(out, "\n%s: %d settings from environment variables\n", source, len(g.settings))
			default:
				fmt.Fprintf(out, "\n%s: %d settings\n", source, len(g.settings))
			}
			for _, s := range g.settings {
				value := fmt.Sprintf("%v", s.Value)
				if len(value) > 50 {
					value = value[:47] + "..."
				}
				fmt.Fprintf(out, "  %s = %s\n", s.Key, value)
			}
		}
	}
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.ProjectConfigFileName
	if amUser {
		path = am.UserConfigPath()
	}
	if err := am.WriteDefault(path, amForce); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %s\n", path)
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	path := am.UserConfigPath()
	if !amUser {
		path = am.FindProjectConfig()
		if path == "" {
			path = am.ProjectConfigFileName
		}
	}
	if err := am.UpdateSetting(path, key, parseSettingValue(raw)); err != nil {
		return err
	}
	pterm.Success.Printf("%s = %s in %s\n", key, raw, path)
	return nil
}

// parseSettingValue keeps the TOML type a user most likely meant.
func parseSettingValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var list []any
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return list
		}
	}
	return raw
}
