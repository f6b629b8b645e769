// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cargoscope/cargoscope/internal/config"
	"github.com/cargoscope/cargoscope/internal/render"
)

// newConfigCommand creates the `cargoscope config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cargoscope configuration",
		Long: `Manage cargoscope configuration.

Configuration is stored in:
  - Linux: ~/.config/cargoscope/config.cue
  - macOS: ~/Library/Application Support/cargoscope/config.cue
  - Windows: %APPDATA%\cargoscope\config.cue

Every key can be overridden with a CARGOSCOPE_* environment variable, for
example CARGOSCOPE_OUTPUT_FORMAT=json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig("")
			if err != nil {
				return app.fail(cmd, "create configuration", "", err)
			}
			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(out, "%s %s\n", WarningStyle.Render("Configuration already exists:"), path)
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("Created configuration:"), path)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	loaded, err := config.LoadWithPath(cmd.Context(), config.LoadOptions{ConfigFilePath: app.opts.configPath})
	if err != nil {
		return app.fail(cmd, "load configuration", app.opts.configPath, err)
	}
	format, err := app.outputFormat()
	if err != nil {
		return app.fail(cmd, "show configuration", "", err)
	}
	out := cmd.OutOrStdout()
	if format != config.FormatText {
		return render.Encode(out, format, loaded.Config)
	}

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)
	if loaded.Path != "" {
		fmt.Fprintf(out, "%s: %s\n", CmdStyle.Render("Config file"), loaded.Path)
	} else {
		fmt.Fprintf(out, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	cfg := loaded.Config
	fmt.Fprintf(out, "%s:\n", CmdStyle.Render("output"))
	fmt.Fprintf(out, "  format: %s\n", SuccessStyle.Render(cfg.Output.Format.String()))
	fmt.Fprintf(out, "%s:\n", CmdStyle.Render("ui"))
	fmt.Fprintf(out, "  color_scheme: %s\n", SuccessStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(out, "  verbose: %s\n", SuccessStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Fprintf(out, "%s:\n", CmdStyle.Render("cache"))
	fmt.Fprintf(out, "  enabled: %s\n", SuccessStyle.Render(fmt.Sprintf("%v", cfg.Cache.Enabled)))
	if dir, err := cfg.CacheDir(); err == nil {
		fmt.Fprintf(out, "  dir: %s\n", SuccessStyle.Render(dir))
	}
	fmt.Fprintf(out, "%s:\n", CmdStyle.Render("workspace"))
	fmt.Fprintf(out, "  skip_dirs: %s\n", SuccessStyle.Render(strings.Join(cfg.Workspace.SkipDirs, ", ")))
	return nil
}
