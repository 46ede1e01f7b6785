package zest_test

import (
	"context"
	"errors"
	"html/template"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"

	"impractical.co/zest"
)

var buttonTypes = map[string]string{
	"primary": "bg-blue-600 hover:bg-blue-700 text-white",
	"danger":  "bg-red-600 hover:bg-red-700 text-white",
}

// buttonLogic adds a "classes" field derived from the button type.
type buttonLogic struct{}

func (buttonLogic) Prepare(_ context.Context, data zest.Data) (zest.Data, error) {
	typ, _ := data["type"].(string)
	classes, ok := buttonTypes[typ]
	if !ok {
		classes = buttonTypes["primary"]
	}
	data["classes"] = "zest-button " + classes
	return data, nil
}

func testComponents() fstest.MapFS {
	return fstest.MapFS{
		"Button/Button.toml": file(`
description = "A button"

[defaults]
text = "Button"
type = "primary"
`),
		"Button/Button.tmpl": file(`<button class="{{ .classes }}">{{ .text }}</button>`),
		"Button/Button.css":  file(""),
		"Button/Button.js":   file(""),
		"Badge/Badge.tmpl":   file(`{{ this template is broken`),
		"Badge/Badge.css":    file(""),
		"Broken/Broken.tmpl": file(`{{ index .items 3 }}`),
		"Named/Named.tmpl":   file(`{{ ._componentName }}`),
		"Bare/Bare.toml":     file(`description = "no template"`),
		"Card/Card.tmpl":     file(`<div class="card">{{ component "Button" (dict "type" "danger" "text" .label) }}</div>`),
		"Card/Card.css":      file(""),
	}
}

func newTestRenderer(t *testing.T, debug bool) *zest.Renderer {
	t.Helper()
	reg, err := zest.NewRegistry(zest.RegistryConfig{Components: testComponents()})
	if err != nil {
		t.Fatalf("unexpected error creating registry: %s", err)
	}
	if err := reg.RegisterLogic("Button", func() zest.Logic { return buttonLogic{} }); err != nil {
		t.Fatalf("unexpected error registering Button logic: %s", err)
	}
	if err := reg.RegisterLogic("Badge", func() zest.Logic {
		return zest.RenderFunc(func(_ context.Context, data zest.Data) (template.HTML, error) {
			return template.HTML("<span>from logic</span>"), nil
		})
	}); err != nil {
		t.Fatalf("unexpected error registering Badge logic: %s", err)
	}
	engine, err := zest.NewHTMLEngine(context.Background(), zest.EngineConfig{Debug: debug})
	if err != nil {
		t.Fatalf("unexpected error creating engine: %s", err)
	}
	err = engine.AddSearchPath(fstest.MapFS{
		"page.tmpl": file(`<head>{{ range .component_css }}<link href="{{ . }}">{{ end }}</head>{{ .body }}`),
		"live.tmpl": file(`{{ component "Card" (dict "label" "Go") }}|{{ range componentCSS }}{{ . }};{{ end }}|{{ asset "/js/app.js" }}|{{ url "about" }}`),
		"bad.tmpl":  file(`{{ index .nothing 1 }}`),
	}, "")
	if err != nil {
		t.Fatalf("unexpected error adding page search path: %s", err)
	}
	renderer, err := zest.NewRenderer(reg, engine, zest.RendererOptions{Debug: debug})
	if err != nil {
		t.Fatalf("unexpected error creating renderer: %s", err)
	}
	return renderer
}

func TestRenderButtonScenario(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, false)
	ctx := zest.WithScope(context.Background(), zest.NewScope())
	out := renderer.RenderComponent(ctx, "Button", zest.Data{"type": "danger"}, true)
	if !strings.Contains(string(out), "bg-red-600") {
		t.Errorf("expected danger classes in %q", out)
	}
	if strings.Contains(string(out), "{{") {
		t.Errorf("expected no raw placeholders in %q", out)
	}
	if !strings.Contains(string(out), ">Button</button>") {
		t.Errorf("expected the manifest default text in %q", out)
	}
}

func TestRenderNotFound(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, false)
	for _, name := range []string{"Nope", "../Button", "forms/Nope"} {
		out := renderer.RenderComponent(context.Background(), name, nil, true)
		if !strings.Contains(string(out), "Component not found") {
			t.Errorf("expected a not found diagnostic for %q, got %q", name, out)
		}
		if !strings.Contains(string(out), template.HTMLEscapeString(name)) {
			t.Errorf("expected the diagnostic for %q to name the component, got %q", name, out)
		}
		_, err := renderer.Render(context.Background(), zest.RenderRequest{Name: name})
		if !errors.Is(err, zest.ErrComponentNotFound) {
			t.Errorf("expected ErrComponentNotFound for %q, got %v", name, err)
		}
	}
}

func TestRenderIsDeterministicAndDedupesAssets(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, false)
	scope := zest.NewScope()
	ctx := zest.WithScope(context.Background(), scope)
	input := zest.Data{"type": "primary", "text": "Save"}

	first := renderer.RenderComponent(ctx, "Button", input, true)
	second := renderer.RenderComponent(ctx, "Button", input, true)
	if first != second {
		t.Errorf("expected identical output, got %q and %q", first, second)
	}
	if _, ok := input["classes"]; ok {
		t.Error("expected the caller's data to be left alone")
	}
	if len(input) != 2 {
		t.Errorf("expected the caller's data to keep 2 keys, got %v", input)
	}
	if css := scope.Assets().CSS(); !slices.Equal(css, []string{"/static/components/Button/Button.css"}) {
		t.Errorf("expected the stylesheet exactly once, got %v", css)
	}
	if js := scope.Assets().JS(); !slices.Equal(js, []string{"/static/components/Button/Button.js"}) {
		t.Errorf("expected the script exactly once, got %v", js)
	}
}

func TestRenderWithoutLoadingAssets(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, false)
	scope := zest.NewScope()
	ctx := zest.WithScope(context.Background(), scope)
	renderer.RenderComponent(ctx, "Button", nil, false)
	if css := scope.Assets().CSS(); len(css) != 0 {
		t.Errorf("expected no stylesheets, got %v", css)
	}
}

func TestSelfRenderingComponentSkipsTemplate(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, true)
	scope := zest.NewScope()
	ctx := zest.WithScope(context.Background(), scope)
	out, err := renderer.Render(ctx, zest.RenderRequest{Name: "Badge", LoadAssets: true})
	if err != nil {
		t.Fatalf("unexpected error rendering Badge: %s", err)
	}
	if out != "<span>from logic</span>" {
		t.Errorf("expected only the logic's output, got %q", out)
	}
	if css := scope.Assets().CSS(); !slices.Equal(css, []string{"/static/components/Badge/Badge.css"}) {
		t.Errorf("expected self-rendered components to still record assets, got %v", css)
	}
}

func TestRenderFailureDebugToggle(t *testing.T) {
	t.Parallel()

	data := zest.Data{"items": []string{"a"}}

	verbose := newTestRenderer(t, true).RenderComponent(context.Background(), "Broken", data, true)
	if !strings.Contains(string(verbose), "index out of range") {
		t.Errorf("expected the engine error in debug mode, got %q", verbose)
	}

	quiet := newTestRenderer(t, false).RenderComponent(context.Background(), "Broken", data, true)
	if string(quiet) != "An error occurred while rendering the component." {
		t.Errorf("expected the generic message outside debug mode, got %q", quiet)
	}

	_, err := newTestRenderer(t, false).Render(context.Background(), zest.RenderRequest{Name: "Broken", Data: data})
	if !errors.Is(err, zest.ErrRenderFailure) {
		t.Errorf("expected ErrRenderFailure, got %v", err)
	}
}

func TestRenderNoRenderTarget(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, false)
	out := renderer.RenderComponent(context.Background(), "Bare", nil, true)
	if string(out) != "No render method or template found for component: Bare" {
		t.Errorf("unexpected diagnostic %q", out)
	}
	_, err := renderer.Render(context.Background(), zest.RenderRequest{Name: "Bare"})
	if !errors.Is(err, zest.ErrNoRenderTarget) {
		t.Errorf("expected ErrNoRenderTarget, got %v", err)
	}
}

func TestRenderInjectsComponentName(t *testing.T) {
	t.Parallel()

	out := newTestRenderer(t, false).RenderComponent(context.Background(), "Named", nil, true)
	if out != "Named" {
		t.Errorf("expected the component name, got %q", out)
	}
}

func TestRenderLogicOnlyComponent(t *testing.T) {
	t.Parallel()

	reg, err := zest.NewRegistry(zest.RegistryConfig{Components: fstest.MapFS{}})
	if err != nil {
		t.Fatalf("unexpected error creating registry: %s", err)
	}
	err = reg.RegisterLogic("widgets/Greeting", func() zest.Logic {
		return zest.TemplRenderer(func(data zest.Data) templ.Component {
			return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
				_, err := io.WriteString(w, "<p>Hello, "+template.HTMLEscapeString(data["name"].(string))+"</p>")
				return err
			})
		})
	})
	if err != nil {
		t.Fatalf("unexpected error registering logic: %s", err)
	}
	engine, err := zest.NewHTMLEngine(context.Background(), zest.EngineConfig{})
	if err != nil {
		t.Fatalf("unexpected error creating engine: %s", err)
	}
	renderer, err := zest.NewRenderer(reg, engine, zest.RendererOptions{})
	if err != nil {
		t.Fatalf("unexpected error creating renderer: %s", err)
	}
	out := renderer.RenderComponent(context.Background(), "widgets/Greeting", zest.Data{"name": "<Ada>"}, true)
	if out != "<p>Hello, &lt;Ada&gt;</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRenderPrepareError(t *testing.T) {
	t.Parallel()

	reg, err := zest.NewRegistry(zest.RegistryConfig{Components: fstest.MapFS{
		"Fails/Fails.tmpl": file("never"),
	}})
	if err != nil {
		t.Fatalf("unexpected error creating registry: %s", err)
	}
	err = reg.RegisterLogic("Fails", func() zest.Logic {
		return zest.PrepareFunc(func(context.Context, zest.Data) (zest.Data, error) {
			return nil, errors.New("no database")
		})
	})
	if err != nil {
		t.Fatalf("unexpected error registering logic: %s", err)
	}
	engine, err := zest.NewHTMLEngine(context.Background(), zest.EngineConfig{})
	if err != nil {
		t.Fatalf("unexpected error creating engine: %s", err)
	}
	renderer, err := zest.NewRenderer(reg, engine, zest.RendererOptions{Debug: true})
	if err != nil {
		t.Fatalf("unexpected error creating renderer: %s", err)
	}
	out := renderer.RenderComponent(context.Background(), "Fails", nil, true)
	if !strings.Contains(string(out), "no database") {
		t.Errorf("expected the prepare error in debug mode, got %q", out)
	}
}

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, false)
	ctx := zest.WithScope(context.Background(), zest.NewScope())
	body := renderer.RenderComponent(ctx, "Button", nil, true)
	out := renderer.RenderTemplate(ctx, "page.tmpl", zest.Data{"body": body})
	expected := `<head><link href="/static/components/Button/Button.css"></head><button class="zest-button bg-blue-600 hover:bg-blue-700 text-white">Button</button>`
	if string(out) != expected {
		t.Errorf("expected %q, got %q", expected, out)
	}
}

func TestRenderTemplateFuncs(t *testing.T) {
	t.Parallel()

	renderer := newTestRenderer(t, false)
	ctx := zest.WithScope(context.Background(), zest.NewScope())
	out := renderer.RenderTemplate(ctx, "live.tmpl", nil)
	parts := strings.Split(string(out), "|")
	if len(parts) != 4 {
		t.Fatalf("expected 4 parts, got %q", out)
	}
	if !strings.Contains(parts[0], `<div class="card"><button class="zest-button bg-red-600`) || !strings.Contains(parts[0], ">Go</button>") {
		t.Errorf("expected a card wrapping a danger button, got %q", parts[0])
	}
	// the nested Button finishes rendering before the Card wrapping it
	if parts[1] != "/static/components/Button/Button.css;/static/components/Card/Card.css;" {
		t.Errorf("expected both stylesheets in completion order, got %q", parts[1])
	}
	if parts[2] != "/static/js/app.js" {
		t.Errorf("unexpected asset URL %q", parts[2])
	}
	if parts[3] != "/about" {
		t.Errorf("unexpected URL %q", parts[3])
	}
}

func TestRenderTemplateFailure(t *testing.T) {
	t.Parallel()

	quiet := newTestRenderer(t, false).RenderTemplate(context.Background(), "bad.tmpl", nil)
	if quiet != "An error occurred while rendering the template." {
		t.Errorf("unexpected output %q", quiet)
	}
	verbose := newTestRenderer(t, true).RenderTemplate(context.Background(), "missing.tmpl", nil)
	if !strings.HasPrefix(string(verbose), "Template error: ") || !strings.Contains(string(verbose), "template not found") {
		t.Errorf("unexpected output %q", verbose)
	}
}

func newLogicRenderer(t *testing.T, components fstest.MapFS, logic map[string]zest.LogicFactory, debug bool) *zest.Renderer {
	t.Helper()
	reg, err := zest.NewRegistry(zest.RegistryConfig{Components: components})
	if err != nil {
		t.Fatalf("unexpected error creating registry: %s", err)
	}
	for name, factory := range logic {
		if err := reg.RegisterLogic(name, factory); err != nil {
			t.Fatalf("unexpected error registering %s logic: %s", name, err)
		}
	}
	engine, err := zest.NewHTMLEngine(context.Background(), zest.EngineConfig{})
	if err != nil {
		t.Fatalf("unexpected error creating engine: %s", err)
	}
	renderer, err := zest.NewRenderer(reg, engine, zest.RendererOptions{Debug: debug})
	if err != nil {
		t.Fatalf("unexpected error creating renderer: %s", err)
	}
	return renderer
}

func TestRenderSelfReferencingComponent(t *testing.T) {
	t.Parallel()

	components := fstest.MapFS{
		"Loop/Loop.tmpl": file(`<div>{{ component "Loop" }}</div>`),
		"Ping/Ping.tmpl": file(`{{ component "Pong" }}`),
		"Pong/Pong.tmpl": file(`{{ component "Ping" }}`),
	}

	out := newLogicRenderer(t, components, nil, true).RenderComponent(context.Background(), "Loop", nil, true)
	if n := strings.Count(string(out), "<div>"); n != zest.MaxNestingDepth {
		t.Errorf("expected %d nested renders, got %d", zest.MaxNestingDepth, n)
	}
	if !strings.Contains(string(out), "Error rendering component Loop: more than 32 nested components") {
		t.Errorf("expected the nesting diagnostic in debug mode, got %q", out)
	}

	out = newLogicRenderer(t, components, nil, false).RenderComponent(context.Background(), "Ping", nil, true)
	if string(out) != "An error occurred while rendering the component." {
		t.Errorf("expected the generic message for a cycle, got %q", out)
	}
}

func TestRenderRecoversPanics(t *testing.T) {
	t.Parallel()

	components := fstest.MapFS{
		"Prepare/Prepare.tmpl": file("never"),
		"Factory/Factory.tmpl": file("never"),
		"Outer/Outer.tmpl":     file(`<p>{{ component "Self" }}</p>`),
	}
	logic := map[string]zest.LogicFactory{
		"Prepare": func() zest.Logic {
			return zest.PrepareFunc(func(_ context.Context, data zest.Data) (zest.Data, error) {
				var counts map[string]int
				counts["renders"]++
				return data, nil
			})
		},
		"Factory": func() zest.Logic {
			panic("no logic today")
		},
		"Self": func() zest.Logic {
			return zest.RenderFunc(func(context.Context, zest.Data) (template.HTML, error) {
				var items []string
				return template.HTML(items[2]), nil
			})
		},
	}

	quiet := newLogicRenderer(t, components, logic, false)
	verbose := newLogicRenderer(t, components, logic, true)

	if out := quiet.RenderComponent(context.Background(), "Prepare", nil, true); out != "An error occurred while rendering the component." {
		t.Errorf("expected the generic message, got %q", out)
	}
	if out := verbose.RenderComponent(context.Background(), "Prepare", nil, true); !strings.Contains(string(out), "panic: assignment to entry in nil map") {
		t.Errorf("expected the panic in debug mode, got %q", out)
	}
	if out := verbose.RenderComponent(context.Background(), "Factory", nil, true); !strings.Contains(string(out), "panic: no logic today") {
		t.Errorf("expected the factory panic in debug mode, got %q", out)
	}
	if out := quiet.RenderComponent(context.Background(), "Outer", nil, true); out != "<p>An error occurred while rendering the component.</p>" {
		t.Errorf("expected only the nested component to be replaced, got %q", out)
	}

	_, err := quiet.Render(context.Background(), zest.RenderRequest{Name: "Prepare"})
	if !errors.Is(err, zest.ErrRenderFailure) {
		t.Errorf("expected ErrRenderFailure, got %v", err)
	}
}
