// Package cli implements the zest command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"impractical.co/zest"
	"impractical.co/zest/internal/config"
)

// Version is the version reported by --version (set via -ldflags).
var Version = "dev"

type rootOptions struct {
	configFile string
	verbose    bool

	logger *slog.Logger
}

// NewRootCommand returns the zest command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "zest",
		Short: "Render HTML components and pages",
		Long: titleStyle.Render("zest") + subtitleStyle.Render(" - HTML components with their own styles and scripts") + `

A component is a directory under the components root holding any of
Name.toml, Name.tmpl, Name.css and Name.js. Pages are templates in the
templates directory that render components with {{ component "Name" }}.

` + subtitleStyle.Render("Examples:") + `
  zest create forms/Input     Create a new component
  zest list                   List every component
  zest render Button          Render a component to stdout
  zest serve                  Serve the pages in the templates directory`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.setupLogging(cmd)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./zest.toml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCommand(opts),
		newListCommand(opts),
		newCreateCommand(opts),
		newRenderCommand(opts),
		newInfoCommand(opts),
		newTemplatesCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

// Execute runs the zest command tree with fang.
func Execute(ctx context.Context) error {
	return fang.Execute(
		ctx,
		NewRootCommand(),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	)
}

// setupLogging backs slog with a charmbracelet/log handler and stores the
// logger in the command's context, where zest picks it up.
func (o *rootOptions) setupLogging(cmd *cobra.Command) {
	level := log.InfoLevel
	if o.verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix:          "zest",
		Level:           level,
		ReportTimestamp: true,
	})
	o.logger = slog.New(handler)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(zest.LoggingContext(ctx, o.logger))
}

func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, string, error) {
	return config.Load(ctx, config.LoadOptions{File: o.configFile})
}

// project is everything built from a loaded configuration.
type project struct {
	cfg      *config.Config
	registry *zest.Registry
	engine   *zest.HTMLEngine
	renderer *zest.Renderer
}

func (o *rootOptions) loadProject(ctx context.Context) (*project, error) {
	cfg, _, err := o.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return newProject(ctx, cfg)
}

func newProject(ctx context.Context, cfg *config.Config) (*project, error) {
	namespaces := make(map[string]fs.FS, len(cfg.Namespaces))
	for ns, dir := range cfg.Namespaces {
		namespaces[ns] = os.DirFS(dir)
	}
	searchPaths := make([]fs.FS, 0, len(cfg.SearchPaths))
	for _, dir := range cfg.SearchPaths {
		searchPaths = append(searchPaths, os.DirFS(dir))
	}
	registry, err := zest.NewRegistry(zest.RegistryConfig{
		Components:  os.DirFS(cfg.ComponentsDir),
		Namespaces:  namespaces,
		SearchPaths: searchPaths,
		MaxDepth:    cfg.MaxDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("error setting up components: %w", err)
	}
	engine, err := zest.NewHTMLEngine(ctx, zest.EngineConfig{
		CacheDir:   cfg.CacheDir,
		Debug:      cfg.Debug,
		AutoReload: cfg.AutoReload,
	})
	if err != nil {
		return nil, fmt.Errorf("error setting up templates: %w", err)
	}
	if dirExists(cfg.TemplatesDir) {
		if err := engine.AddSearchPath(os.DirFS(cfg.TemplatesDir), ""); err != nil {
			return nil, fmt.Errorf("error adding templates directory: %w", err)
		}
	}
	renderer, err := zest.NewRenderer(registry, engine, zest.RendererOptions{
		Debug:   cfg.Debug,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return &project{cfg: cfg, registry: registry, engine: engine, renderer: renderer}, nil
}

func dirExists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return err == nil && info.IsDir()
}
