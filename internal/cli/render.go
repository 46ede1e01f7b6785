package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"impractical.co/zest"
)

func newRenderCommand(opts *rootOptions) *cobra.Command {
	var (
		rawData string
		page    bool
		assets  bool
	)
	cmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Render a component or page to stdout",
		Long: `Render a component, or with --page a page template, to stdout.

Data is passed as a JSON object:

  zest render Button --data '{"type": "danger", "text": "Delete"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data zest.Data
			if rawData != "" {
				if err := json.Unmarshal([]byte(rawData), &data); err != nil {
					return fmt.Errorf("--data must be a JSON object: %w", err)
				}
			}
			p, err := opts.loadProject(cmd.Context())
			if err != nil {
				return err
			}
			scope := zest.NewScope()
			ctx := zest.WithScope(cmd.Context(), scope)
			out := cmd.OutOrStdout()

			if page {
				if err := p.renderer.WritePage(ctx, out, args[0], data); err != nil {
					return err
				}
				fmt.Fprintln(out)
			} else {
				html, err := p.renderer.Render(ctx, zest.RenderRequest{Name: args[0], Data: data, LoadAssets: true})
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("Render failed: ")+err.Error())
					return err
				}
				fmt.Fprintln(out, html)
			}

			if assets {
				errOut := cmd.ErrOrStderr()
				for _, url := range scope.Assets().CSS() {
					fmt.Fprintln(errOut, subtitleStyle.Render("css ")+url)
				}
				for _, url := range scope.Assets().JS() {
					fmt.Fprintln(errOut, subtitleStyle.Render("js  ")+url)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rawData, "data", "", "JSON object to render with")
	cmd.Flags().BoolVar(&page, "page", false, "render a page template instead of a component")
	cmd.Flags().BoolVar(&assets, "assets", false, "print the recorded asset URLs to stderr")
	return cmd
}
