package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"impractical.co/zest/internal/config"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage zest configuration",
		Long: `Manage zest configuration.

Configuration is read from zest.toml in the working directory, or the file
passed with --config. Every key can be overridden with a ZEST_ environment
variable, so components_dir is read from ZEST_COMPONENTS_DIR.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := opts.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Current Configuration"))
			fmt.Fprintln(out)
			if path == "" {
				path = subtitleStyle.Render("(using defaults)")
			}
			fmt.Fprintf(out, "%s: %s\n\n", nameStyle.Render("Config file"), path)
			for _, kv := range [][2]string{
				{"components_dir", cfg.ComponentsDir},
				{"templates_dir", cfg.TemplatesDir},
				{"static_dir", cfg.StaticDir},
				{"cache_dir", cfg.CacheDir},
				{"search_paths", strings.Join(cfg.SearchPaths, ", ")},
				{"namespaces", formatNamespaces(cfg.Namespaces)},
				{"debug", fmt.Sprint(cfg.Debug)},
				{"auto_reload", fmt.Sprint(cfg.AutoReload)},
				{"max_depth", fmt.Sprint(cfg.MaxDepth)},
				{"base_url", cfg.BaseURL},
				{"listen", cfg.Listen},
			} {
				fmt.Fprintf(out, "%s: %s\n", nameStyle.Render(kv[0]), successStyle.Render(kv[1]))
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default zest.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := "."
			if opts.configFile != "" {
				dir = filepath.Dir(opts.configFile)
			}
			path, created, err := config.WriteDefault(dir)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render(path+" already exists"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Wrote "+path))
			return nil
		},
	})

	return cfgCmd
}

func formatNamespaces(namespaces map[string]string) string {
	pairs := make([]string, 0, len(namespaces))
	for ns, dir := range namespaces {
		pairs = append(pairs, ns+"="+dir)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ", ")
}
