// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cargoscope/cargoscope/internal/config"
	"github.com/cargoscope/cargoscope/internal/render"
	"github.com/cargoscope/cargoscope/pkg/fspath"
	"github.com/cargoscope/cargoscope/pkg/manifest"
	"github.com/cargoscope/cargoscope/pkg/resolve"
	"github.com/cargoscope/cargoscope/pkg/workspace"
)

// newWorkspaceCommand creates the `cargoscope workspace` command tree.
func newWorkspaceCommand(app *App) *cobra.Command {
	wsCmd := &cobra.Command{
		Use:   "workspace",
		Short: "Inspect workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var src sourceFlags
	members := &cobra.Command{
		Use:   "members [path]",
		Short: "List the member packages of the workspace containing a package",
		Long: `List the member packages of the workspace containing a package.

The path may be the workspace root or any package inside it. Members are the
directories matched by workspace.members that hold a Cargo.toml, minus those
matched by workspace.exclude; a root that is also a package is listed as ".".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := app.outputFormat()
			if err != nil {
				return app.fail(cmd, "list workspace members", "", err)
			}
			s, err := src.open(cmd.Context(), args)
			if err != nil {
				return app.fail(cmd, "list workspace members", "", err)
			}
			view, err := listMembers(s, app.cfg.Workspace.SkipDirs)
			if err != nil {
				return app.fail(cmd, "list workspace members", s.label, err)
			}
			if format != config.FormatText {
				return render.Encode(cmd.OutOrStdout(), format, view)
			}
			return render.Members(cmd.OutOrStdout(), view)
		},
	}
	src.register(members)
	wsCmd.AddCommand(members)
	return wsCmd
}

func listMembers(s *source, skipDirs []string) (render.MembersView, error) {
	res, err := resolve.Load(s.store, resolve.Options{ManifestDir: s.dir, SkipDirs: skipDirs})
	if err != nil {
		return render.MembersView{}, err
	}
	root := res.Root
	if root == nil {
		var hint string
		if res.Manifest.Package != nil {
			hint = res.Manifest.Package.Workspace
		}
		if root, err = workspace.Locate(s.store, res.Dir, hint); err != nil {
			return render.MembersView{}, err
		}
	}

	names, err := workspace.Members(root.Manifest, root.Dir, s.store, workspace.WithSkipDirs(skipDirs...))
	if err != nil {
		var me *manifest.Error
		if errors.As(err, &me) && me.Path == "" {
			return render.MembersView{}, me.WithPath(fspath.Join(root.Dir, manifest.FileName))
		}
		return render.MembersView{}, err
	}
	return render.MembersView{Root: root.Dir, Members: names}, nil
}
