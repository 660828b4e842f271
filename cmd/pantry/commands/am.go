package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/pantry/am"
	"github.com/teranos/pantry/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage pantry configuration",
	Long: `am - Manage pantry configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/pantry/pantry.toml)
3. User config (~/.pantry/pantry.toml)
4. Project config (nearest ./pantry.toml, searching up)
5. Environment variables (PANTRY_* prefix, PANTRY_DB, PANTRY_FLOOR_POLICY)

Examples:
  pantry am show                                   # Show current configuration
  pantry am show --format json                     # Show configuration in JSON format
  pantry am set executor.floor_policy clamp_to_zero
  pantry am where                                  # Show which source set each key`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a setting to the user config",
	Long: `Write a setting to ~/.pantry/pantry.toml.

The value is typed after the key's default and the resulting configuration
is validated before anything is written. The previous file is kept as
pantry.toml.back1 (up to three backups).`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where each setting is loaded from",
	RunE:  runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	return writeConfig(cmd.OutOrStdout(), cfg, configFormat)
}

// writeConfig encodes cfg as toml, json or yaml
func writeConfig(w io.Writer, cfg *am.Config, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(w, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(w, "# pantry configuration\n%s", data)

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(w, "# pantry configuration\n%s", data)

	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
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

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path, err := am.SetUserValue(args[0], args[1])
	if err != nil {
		return err
	}
	pterm.Success.Printfln("%s = %s written to %s", args[0], args[1], path)
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro := am.Introspect()
	out := cmd.OutOrStdout()

	if intro.ConfigFile != "" {
		fmt.Fprintf(out, "Active config file: %s\n\n", intro.ConfigFile)
	} else {
		fmt.Fprintln(out, "No config file found, using defaults and environment")
		fmt.Fprintln(out)
	}

	return renderTable(whereRows(intro))
}

// whereRows groups settings by source, then by key
func whereRows(intro *am.ConfigIntrospection) pterm.TableData {
	rank := map[am.ConfigSource]int{
		am.SourceEnvironment: 0,
		am.SourceProject:     1,
		am.SourceUser:        2,
		am.SourceSystem:      3,
		am.SourceDefault:     4,
	}
	settings := append([]am.SettingInfo(nil), intro.Settings...)
	sort.SliceStable(settings, func(i, j int) bool {
		ri, rj := rank[settings[i].Source], rank[settings[j].Source]
		if ri != rj {
			return ri < rj
		}
		return settings[i].Key < settings[j].Key
	})

	rows := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range settings {
		rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return rows
}
