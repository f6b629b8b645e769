// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cargoscope",
		Short: "Resolve Cargo manifests the way the build tool sees them",
		Long: TitleStyle.Render("cargoscope") + SubtitleStyle.Render(" - resolve Cargo manifests the way the build tool sees them") + `

cargoscope reads a Cargo.toml, fills in every value inherited from the
workspace root, adds the build targets implied by the file layout, and
validates the feature table. Manifests can be read from a directory, a
.crate archive or any revision of a git repository.

` + SubtitleStyle.Render("Examples:") + `
  cargoscope resolve                  Resolve the package in the current directory
  cargoscope targets --kind bin       List binaries, including discovered ones
  cargoscope features crates/core     Show the normalized feature table
  cargoscope workspace members        List the members of the workspace
  cargoscope explain CyclicFeature    Explain an error kind`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.opts.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	rootCmd.PersistentFlags().StringVar(&app.opts.configPath, "config", "", "config file (default is $HOME/.config/cargoscope/config.cue)")
	rootCmd.PersistentFlags().StringVarP(&app.opts.format, "format", "f", "", "output format: text, yaml or json (default from config)")

	rootCmd.AddCommand(newResolveCommand(app))
	rootCmd.AddCommand(newTargetsCommand(app))
	rootCmd.AddCommand(newFeaturesCommand(app))
	rootCmd.AddCommand(newWorkspaceCommand(app))
	rootCmd.AddCommand(newExplainCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	// fang overrides rootCmd.Version, so the version goes through fang.WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(NewApp(Dependencies{})),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
