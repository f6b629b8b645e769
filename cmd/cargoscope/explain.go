// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cargoscope/cargoscope/internal/issue"
)

// newExplainCommand creates the `cargoscope explain` command.
func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [kind]",
		Short: "Explain an error kind and how to fix it",
		Long: `Explain an error kind and how to fix it.

Without arguments, lists every documented error kind. Kind names are matched
ignoring case and dashes, so "missing-workspace-field" finds
MissingWorkspaceField.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, TitleStyle.Render("Error kinds"))
				for _, known := range issue.Values() {
					fmt.Fprintf(out, "  %s\n", CmdStyle.Render(known.Name()))
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, SubtitleStyle.Render("Run 'cargoscope explain <kind>' for details."))
				return nil
			}

			known, ok := issue.Lookup(args[0])
			if !ok {
				err := issue.NewErrorContext().
					WithOperation("explain error kind").
					WithResource(args[0]).
					WithSuggestion("Run 'cargoscope explain' to list the known kinds").
					Wrap(fmt.Errorf("%w: unknown error kind", errUsage)).
					BuildError()
				return app.fail(cmd, "explain error kind", args[0], err)
			}
			rendered, err := known.Render(string(app.cfg.UI.ColorScheme))
			if err != nil {
				return app.fail(cmd, "explain error kind", args[0], err)
			}
			_, err = fmt.Fprint(out, rendered)
			return err
		},
	}
}
