package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"impractical.co/zest"
)

const infoWordWrap = 80

func newInfoCommand(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "info <name>",
		Short: "Describe a component",
		Long:  "Show where a component was found, its files, asset URLs and manifest defaults.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := opts.loadProject(ctx)
			if err != nil {
				return err
			}
			desc, err := p.registry.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			manifest, err := p.registry.Manifest(desc)
			if err != nil {
				return err
			}
			assets, err := p.registry.Assets(ctx, args[0])
			if err != nil {
				return err
			}
			doc, err := componentMarkdown(desc, manifest, assets)
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprint(cmd.OutOrStdout(), doc)
				return nil
			}
			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(infoWordWrap),
			)
			if err != nil {
				return err
			}
			rendered, err := renderer.Render(doc)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "markdown", false, "print the markdown without rendering it")
	return cmd
}

// componentMarkdown describes a component as a markdown document.
func componentMarkdown(desc zest.Descriptor, manifest zest.Manifest, assets zest.ComponentAssets) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", desc.Name)
	if manifest.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", manifest.Description)
	}
	fmt.Fprintf(&b, "Found in `%s`.\n\n", desc.Root)

	b.WriteString("| File | Path |\n|---|---|\n")
	for _, f := range []struct{ kind, path string }{
		{"manifest", desc.LogicPath},
		{"template", desc.TemplatePath},
		{"stylesheet", desc.CSSPath},
		{"script", desc.JSPath},
	} {
		if f.path == "" {
			continue
		}
		fmt.Fprintf(&b, "| %s | `%s` |\n", f.kind, f.path)
	}

	if assets.CSS != "" || assets.JS != "" {
		b.WriteString("\n## Assets\n\n")
		if assets.CSS != "" {
			fmt.Fprintf(&b, "- `%s`\n", assets.CSS)
		}
		if assets.JS != "" {
			fmt.Fprintf(&b, "- `%s`\n", assets.JS)
		}
	}

	if len(manifest.Defaults) > 0 {
		defaults, err := toml.Marshal(manifest.Defaults)
		if err != nil {
			return "", fmt.Errorf("error encoding defaults for %q: %w", desc.Name, err)
		}
		fmt.Fprintf(&b, "\n## Defaults\n\n```toml\n%s```\n", defaults)
	}
	return b.String(), nil
}
