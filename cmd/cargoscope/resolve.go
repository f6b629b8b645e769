// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/cargoscope/cargoscope/internal/config"
	"github.com/cargoscope/cargoscope/internal/render"
	"github.com/cargoscope/cargoscope/pkg/manifest"
)

// newResolveCommand creates the `cargoscope resolve` command.
func newResolveCommand(app *App) *cobra.Command {
	var (
		src       sourceFlags
		workspace bool
	)
	cmd := &cobra.Command{
		Use:   "resolve [path]",
		Short: "Print the fully resolved manifest of a package",
		Long: `Print the fully resolved manifest of a package.

Workspace-inherited fields and dependencies are filled in, build targets are
discovered from the file layout, and the feature table is validated.

Examples:
  cargoscope resolve                         Resolve the package in the current directory
  cargoscope resolve crates/core -f yaml     Resolve a workspace member as YAML
  cargoscope resolve --workspace             Resolve every member of a workspace
  cargoscope resolve --crate serde-1.0.0.crate
  cargoscope resolve --git https://github.com/rust-lang/log --rev 0.4.22`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := app.outputFormat()
			if err != nil {
				return app.fail(cmd, "resolve manifest", "", err)
			}
			s, err := src.open(cmd.Context(), args)
			if err != nil {
				return app.fail(cmd, "resolve manifest", "", err)
			}
			out := cmd.OutOrStdout()

			if workspace {
				views, err := app.loadWorkspaceViews(s)
				if err != nil {
					return app.fail(cmd, "resolve workspace", s.label, err)
				}
				if format != config.FormatText {
					return render.Encode(out, format, views)
				}
				for i, v := range views {
					if i > 0 {
						if _, err := out.Write([]byte("\n")); err != nil {
							return err
						}
					}
					if err := render.Text(out, v); err != nil {
						return err
					}
				}
				return nil
			}

			v, err := app.loadView(s)
			if err != nil {
				return app.fail(cmd, "resolve manifest", s.label, err)
			}
			if format != config.FormatText {
				return render.Encode(out, format, v)
			}
			return render.Text(out, v)
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVarP(&workspace, "workspace", "w", false, "resolve every member of the workspace rooted at the path")
	return cmd
}

// newTargetsCommand creates the `cargoscope targets` command.
func newTargetsCommand(app *App) *cobra.Command {
	var (
		src  sourceFlags
		kind string
	)
	cmd := &cobra.Command{
		Use:   "targets [path]",
		Short: "List the build targets of a package, including discovered ones",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := app.outputFormat()
			if err != nil {
				return app.fail(cmd, "list targets", "", err)
			}
			if kind != "" && !slices.Contains(manifest.TargetKinds(), manifest.TargetKind(kind)) {
				return app.fail(cmd, "list targets", "", fmt.Errorf("%w: unknown target kind %q", errUsage, kind))
			}
			s, err := src.open(cmd.Context(), args)
			if err != nil {
				return app.fail(cmd, "list targets", "", err)
			}
			v, err := app.loadView(s)
			if err != nil {
				return app.fail(cmd, "list targets", s.label, err)
			}
			targets := v.TargetsOf(kind)
			if format != config.FormatText {
				return render.Encode(cmd.OutOrStdout(), format, targets)
			}
			return render.Targets(cmd.OutOrStdout(), targets)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", "", "only list targets of this kind (lib, bin, example, test, bench)")
	return cmd
}

// newFeaturesCommand creates the `cargoscope features` command.
func newFeaturesCommand(app *App) *cobra.Command {
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   "features [path]",
		Short: "Print the validated feature table of a package",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := app.outputFormat()
			if err != nil {
				return app.fail(cmd, "read features", "", err)
			}
			s, err := src.open(cmd.Context(), args)
			if err != nil {
				return app.fail(cmd, "read features", "", err)
			}
			v, err := app.loadView(s)
			if err != nil {
				return app.fail(cmd, "read features", s.label, err)
			}
			if format != config.FormatText {
				return render.Encode(cmd.OutOrStdout(), format, featuresOutput{Features: v.Features, Implicit: v.ImplicitFeatures})
			}
			return render.Features(cmd.OutOrStdout(), v)
		},
	}
	src.register(cmd)
	return cmd
}

type featuresOutput struct {
	Features []render.FeatureView `json:"features" yaml:"features"`
	Implicit []string             `json:"implicit_features,omitempty" yaml:"implicit_features,omitempty"`
}
