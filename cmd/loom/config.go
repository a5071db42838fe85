// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/config"
)

// newConfigCommand creates the `loom config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage loom configuration",
		Long: `Manage loom configuration.

Configuration is stored in:
  - Linux: ~/.config/loom/config.cue
  - macOS: ~/Library/Application Support/loom/config.cue
  - Windows: %APPDATA%\loom\config.cue

Every value can be overridden with a LOOM_* environment variable, for example
LOOM_LOADER_FAIL_FAST=true or LOOM_REPORT_FORMAT=json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.Resolve(cmd.Context(), config.LoadOptions{ConfigFilePath: app.configPath})
			if err != nil {
				return app.displayError(err)
			}
			return showConfig(app.stdout, cfg, path)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.displayError(err)
			}
			_, err = io.WriteString(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app.stdout, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.configPath
			if path == "" {
				var err error
				if path, err = config.ConfigFilePath(); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintln(app.stdout, path)
			return err
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, path string) error {
	var b strings.Builder
	line := func(indent, key string, value any) {
		fmt.Fprintf(&b, "%s%s: %s\n", indent, KeyStyle.Render(key), SuccessStyle.Render(fmt.Sprint(value)))
	}
	list := func(items []string) string {
		if len(items) == 0 {
			return "(none)"
		}
		return strings.Join(items, ", ")
	}

	b.WriteString(TitleStyle.Render("Current Configuration") + "\n\n")
	if path != "" {
		line("", "Config file", path)
	} else {
		fmt.Fprintf(&b, "%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	b.WriteString("\n" + KeyStyle.Render("loader") + ":\n")
	line("  ", "universe", cfg.Loader.Universe)
	line("  ", "initialization_attempts", cfg.Loader.InitializationAttempts)
	line("  ", "finalization_attempts", cfg.Loader.FinalizationAttempts)
	line("  ", "fail_fast", cfg.Loader.FailFast)
	line("  ", "raise_aggregate", cfg.Loader.RaiseAggregate)

	b.WriteString("\n" + KeyStyle.Render("modules") + ":\n")
	line("  ", "prefixes", list(cfg.Modules.Prefixes))
	line("  ", "exclude", list(cfg.Modules.Exclude))
	if len(cfg.Modules.Priorities) == 0 {
		line("  ", "priorities", "(none)")
	} else {
		fmt.Fprintf(&b, "  %s:\n", KeyStyle.Render("priorities"))
		for _, e := range cfg.Modules.Priorities {
			fmt.Fprintf(&b, "    - %s = %s\n", e.Module, SuccessStyle.Render(fmt.Sprint(e.Priority)))
		}
	}
	orderFile := cfg.Modules.OrderFile
	if orderFile == "" {
		orderFile = "(discovered in the working directory)"
	}
	line("  ", "order_file", orderFile)

	b.WriteString("\n" + KeyStyle.Render("log") + ":\n")
	line("  ", "level", cfg.Log.Level)
	line("  ", "format", cfg.Log.Format)

	b.WriteString("\n" + KeyStyle.Render("report") + ":\n")
	line("  ", "format", cfg.Report.Format)
	line("  ", "verbose", cfg.Report.Verbose)
	line("  ", "color_scheme", cfg.Report.ColorScheme)

	_, err := io.WriteString(w, b.String())
	return err
}

func initConfig(w io.Writer, force bool) error {
	if force {
		if err := config.Save(config.DefaultConfig()); err != nil {
			return err
		}
		path, err := config.ConfigFilePath()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, SuccessStyle.Render("Wrote default configuration to ")+path)
		return err
	}

	path, created, err := config.CreateDefaultConfig()
	if err != nil {
		return err
	}
	if !created {
		_, err = fmt.Fprintln(w, WarningStyle.Render("Configuration already exists at ")+path+SubtitleStyle.Render(" (use --force to overwrite)"))
		return err
	}
	_, err = fmt.Fprintln(w, SuccessStyle.Render("Created default configuration at ")+path)
	return err
}
