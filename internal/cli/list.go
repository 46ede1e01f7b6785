package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every component",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := opts.loadProject(ctx)
			if err != nil {
				return err
			}
			names, err := p.registry.Components(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, subtitleStyle.Render("No components found in "+p.cfg.ComponentsDir))
				return nil
			}
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Components (%d)", len(names))))
			for _, name := range names {
				desc, err := p.registry.Resolve(ctx, name)
				if err != nil {
					return err
				}
				var files []string
				for _, f := range []struct{ path, tag string }{
					{desc.LogicPath, "toml"},
					{desc.TemplatePath, "tmpl"},
					{desc.CSSPath, "css"},
					{desc.JSPath, "js"},
				} {
					if f.path != "" {
						files = append(files, f.tag)
					}
				}
				fmt.Fprintln(out, "  "+nameStyle.Render(name)+fileTagStyle.Render(strings.Join(files, " ")))
			}
			return nil
		},
	}
}
