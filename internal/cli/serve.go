package cli

import (
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"impractical.co/zest/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pages in the templates directory",
		Long: `Serve the pages in the templates directory.

A request for /docs/intro renders templates/docs/intro.tmpl; / renders
index.tmpl and missing pages render 404.tmpl when there is one. Component
assets are served under /static/components and the static directory
under /static.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := opts.loadProject(ctx)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = p.cfg.Listen
			}
			srvOpts := server.Options{
				Addr:       addr,
				Components: os.DirFS(p.cfg.ComponentsDir),
				Namespaces: make(map[string]fs.FS, len(p.cfg.Namespaces)),
				Logger:     opts.logger,
			}
			for ns, dir := range p.cfg.Namespaces {
				srvOpts.Namespaces[ns] = os.DirFS(dir)
			}
			if dirExists(p.cfg.TemplatesDir) {
				srvOpts.Pages = os.DirFS(p.cfg.TemplatesDir)
			}
			if dirExists(p.cfg.StaticDir) {
				srvOpts.Static = os.DirFS(p.cfg.StaticDir)
			}
			opts.logger.InfoContext(ctx, "serving", "addr", addr, "templates", p.cfg.TemplatesDir)
			return server.New(p.renderer, srvOpts).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (overrides the config's listen)")
	return cmd
}
