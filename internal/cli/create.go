package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"impractical.co/zest"
)

func newCreateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new component",
		Long: `Create a new component with a manifest, template, stylesheet and
script. Nested names like forms/Input create the parent directories.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			name := args[0]
			created, err := zest.NewScaffolder(cfg.ComponentsDir).CreateComponent(name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintln(out, warningStyle.Render("Component "+name+" already exists, nothing was written"))
				return nil
			}
			fmt.Fprintln(out, successStyle.Render("Created component "+name)+" "+
				subtitleStyle.Render("in "+filepath.Join(cfg.ComponentsDir, filepath.FromSlash(name))))
			return nil
		},
	}
}
