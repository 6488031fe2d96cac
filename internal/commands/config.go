package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/askflow/internal/config"
	"github.com/diogo/askflow/internal/render"
)

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change askflow settings.

Settings live in config.json inside the config directory (~/.askflow, or
$ASKFLOW_HOME). Environment variables such as ASKFLOW_BASE_URL and
GLAMOUR_STYLE override the file.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(deps.Stdout)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long:  "Change a setting and save it.\n\nKeys: " + strings.Join(config.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(deps.Stdout, args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the locations of askflow files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigPath(deps.Stdout)
		},
	})

	return cmd
}

func runConfigShow(w io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// runConfigSet edits the file config only, so environment overrides
// active at the time are not persisted.
func runConfigSet(w io.Writer, key, value string) error {
	cfg, err := config.LoadFileConfig()
	if err != nil {
		return err
	}

	if strings.EqualFold(key, "markdown.style") {
		if err := render.ValidateStyle(value); err != nil {
			return err
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s = %s\n", strings.ToLower(key), value)
	return nil
}

func runConfigPath(w io.Writer) error {
	dir, err := config.GetConfigDir()
	if err != nil {
		return err
	}
	configPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	cookiesPath, err := config.GetCookiesPath()
	if err != nil {
		return err
	}

	logPath := ""
	if cfg, err := config.LoadConfig(); err == nil {
		logPath, _ = config.GetLogPath(cfg)
	}

	fmt.Fprintf(w, "config dir:  %s\n", dir)
	fmt.Fprintf(w, "config file: %s\n", configPath)
	fmt.Fprintf(w, "cookies:     %s\n", cookiesPath)
	if logPath != "" {
		fmt.Fprintf(w, "log file:    %s\n", logPath)
	}
	return nil
}
