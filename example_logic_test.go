package zest_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing/fstest"

	"impractical.co/zest"
)

func ExampleRegistry_RegisterLogic() {
	components := fstest.MapFS{
		"Greeting/Greeting.toml": &fstest.MapFile{Data: []byte("[defaults]\nname = \"stranger\"\n")},
		"Greeting/Greeting.tmpl": &fstest.MapFile{Data: []byte(`<p>{{ .greeting }}, {{ .name }}!</p>`)},
	}
	renderer := exampleRenderer(components, nil, func(reg *zest.Registry) error {
		// a new Logic is created for every render
		return reg.RegisterLogic("Greeting", func() zest.Logic {
			return zest.PrepareFunc(func(_ context.Context, data zest.Data) (zest.Data, error) {
				data["greeting"] = "Hello"
				if formal, _ := data["formal"].(bool); formal {
					data["greeting"] = "Good evening"
				}
				return data, nil
			})
		})
	})

	ctx := zest.LoggingContext(context.Background(), slog.Default())
	fmt.Println(renderer.RenderComponent(ctx, "Greeting", nil, false))
	fmt.Println(renderer.RenderComponent(ctx, "Greeting", zest.Data{"name": "Ada", "formal": true}, false))

	//Output:
	// <p>Hello, stranger!</p>
	// <p>Good evening, Ada!</p>
}
