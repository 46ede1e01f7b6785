package zest_test

import (
	"context"
	"io/fs"

	"impractical.co/zest"
)

// exampleRenderer builds a Renderer for components, with pages available
// as unnamespaced templates. Examples have nowhere to report errors, so
// they panic instead.
func exampleRenderer(components, pages fs.FS, register func(*zest.Registry) error) *zest.Renderer {
	reg, err := zest.NewRegistry(zest.RegistryConfig{Components: components})
	if err != nil {
		panic(err)
	}
	if register != nil {
		if err := register(reg); err != nil {
			panic(err)
		}
	}
	engine, err := zest.NewHTMLEngine(context.Background(), zest.EngineConfig{})
	if err != nil {
		panic(err)
	}
	if pages != nil {
		if err := engine.AddSearchPath(pages, ""); err != nil {
			panic(err)
		}
	}
	renderer, err := zest.NewRenderer(reg, engine, zest.RendererOptions{})
	if err != nil {
		panic(err)
	}
	return renderer
}
