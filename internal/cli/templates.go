package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTemplatesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List templates that changed since they were last rendered",
		Long: `List the templates whose sources changed, or were removed, since zest
last parsed them. Parsed templates are tracked in the cache directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := opts.loadProject(ctx)
			if err != nil {
				return err
			}
			changed, err := p.engine.Changed(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(changed) == 0 {
				fmt.Fprintln(out, successStyle.Render("All templates are up to date"))
				return nil
			}
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Changed templates (%d)", len(changed))))
			for _, id := range changed {
				fmt.Fprintln(out, "  "+nameStyle.Render(id))
			}
			return nil
		},
	}
}
