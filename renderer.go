package zest

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"maps"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const genericTemplateFailure = "An error occurred while rendering the template."

// MaxNestingDepth is how many components can be rendered inside one another
// before Render gives up with ErrNestingTooDeep.
const MaxNestingDepth = 32

// RenderRequest asks for one component to be rendered.
type RenderRequest struct {
	// Name is the component to render.
	Name string

	// Data is what the component is rendered with. It is never modified.
	Data Data

	// LoadAssets adds the component's stylesheet and script to the
	// request's Assets after a successful render.
	LoadAssets bool
}

// RendererOptions configure a Renderer.
type RendererOptions struct {
	// Debug includes error details in the diagnostics that replace
	// components and pages that failed to render.
	Debug bool

	// BaseURL is prepended to the URLs built by the asset and url
	// template functions.
	BaseURL string
}

// Renderer turns component names into HTML: it resolves the component,
// prepares its data, renders it with its own logic or the Engine, and
// records its assets.
type Renderer struct {
	registry *Registry
	engine   Engine
	opts     RendererOptions
}

// NewRenderer returns a Renderer ready to be used. Every root the registry
// knows about is added to engine as a search path, and if engine accepts a
// FuncProvider (as HTMLEngine does) the component, asset and url template
// functions are installed.
func NewRenderer(registry *Registry, engine Engine, opts RendererOptions) (*Renderer, error) {
	if registry == nil || engine == nil {
		return nil, errors.New("a registry and an engine are required")
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	r := &Renderer{
		registry: registry,
		engine:   engine,
		opts:     opts,
	}
	for _, rt := range registry.roots() {
		if err := engine.AddSearchPath(rt.fsys, rt.namespace); err != nil {
			return nil, fmt.Errorf("error adding search path for %q: %w", rt.namespace, err)
		}
	}
	if setter, ok := engine.(interface{ SetFuncs(FuncProvider) }); ok {
		setter.SetFuncs(r.FuncMap)
	}
	return r, nil
}

// Registry returns the Registry the Renderer resolves components with.
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// resolve resolves name, reusing the request Scope's earlier answer if
// there is one.
func (r *Renderer) resolve(ctx context.Context, name string) (Descriptor, error) {
	scope := ScopeFromContext(ctx)
	if scope != nil {
		if desc, ok := scope.descriptor(name); ok {
			return desc, nil
		}
	}
	desc, err := r.registry.Resolve(ctx, name)
	if err != nil {
		return Descriptor{}, err
	}
	if scope != nil {
		scope.setDescriptor(name, desc)
	}
	return desc, nil
}

// Render renders the requested component. Every error it returns is a
// *RenderError.
func (r *Renderer) Render(ctx context.Context, req RenderRequest) (template.HTML, error) {
	ctx, span := tracer.Start(ctx, "zest.Renderer.Render", trace.WithAttributes(
		attribute.String("zest.component", req.Name),
		attribute.Bool("zest.load_assets", req.LoadAssets),
	))
	defer span.End()

	out, err := r.render(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out, nil
}

func (r *Renderer) render(ctx context.Context, req RenderRequest) (out template.HTML, err error) {
	fail := func(kind, err error) (template.HTML, error) {
		return "", &RenderError{Component: req.Name, Kind: kind, Err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			logger(ctx).ErrorContext(ctx, "recovered panic rendering component", "component", req.Name, "panic", p)
			out, err = fail(ErrRenderFailure, fmt.Errorf("panic: %v", p))
		}
	}()

	depth := renderDepth(ctx)
	if depth >= MaxNestingDepth {
		return fail(ErrNestingTooDeep, fmt.Errorf("more than %d nested components", MaxNestingDepth))
	}
	ctx = withRenderDepth(ctx, depth+1)

	factory, hasLogic := r.registry.logicFactory(req.Name)
	desc, err := r.resolve(ctx, req.Name)
	switch {
	case err == nil:
	case hasLogic && errors.Is(err, ErrComponentNotFound):
		desc = Descriptor{Name: req.Name}
	default:
		return fail(ErrComponentNotFound, err)
	}

	manifest, err := r.registry.Manifest(desc)
	if err != nil {
		return fail(ErrRenderFailure, err)
	}
	var caps capabilities
	if hasLogic {
		caps = capabilitiesOf(factory())
	}
	data, err := caps.runPrepare(ctx, manifest, req.Data)
	if err != nil {
		return fail(ErrRenderFailure, fmt.Errorf("error preparing data: %w", err))
	}

	switch {
	case caps.render != nil:
		out, err = caps.render(ctx, data)
		if err != nil {
			return fail(ErrRenderFailure, err)
		}
	case desc.TemplateID() != "":
		data["_componentName"] = req.Name
		out, err = r.engine.Render(ctx, desc.TemplateID(), data)
		if errors.Is(err, ErrTemplateNotFound) {
			return fail(ErrTemplateNotFound, err)
		}
		if err != nil {
			return fail(ErrRenderFailure, err)
		}
	default:
		return fail(ErrNoRenderTarget, nil)
	}

	if req.LoadAssets {
		r.recordAssets(ctx, desc)
	}
	return out, nil
}

func (r *Renderer) recordAssets(ctx context.Context, desc Descriptor) {
	assets := r.registry.assetsFor(desc)
	if assets.CSS == "" && assets.JS == "" {
		return
	}
	scope := ScopeFromContext(ctx)
	if scope == nil {
		logger(ctx).DebugContext(ctx, "no request scope, dropping component assets", "component", desc.Name)
		return
	}
	scope.Assets().AddCSS(assets.CSS)
	scope.Assets().AddJS(assets.JS)
}

// RenderComponent renders a component, replacing any failure with a short
// diagnostic so one broken component doesn't take the whole page down.
// Error details are only included when the Renderer is in debug mode.
func (r *Renderer) RenderComponent(ctx context.Context, name string, data Data, loadAssets bool) template.HTML {
	out, err := r.Render(ctx, RenderRequest{Name: name, Data: data, LoadAssets: loadAssets})
	if err != nil {
		logger(ctx).ErrorContext(ctx, "error rendering component", "component", name, "error", err)
		return diagnostic(name, err, r.opts.Debug)
	}
	return out
}

// RenderTemplate renders a page template. The URLs in the request's Assets
// are available to it as .component_css and .component_js. A failure is
// replaced with a diagnostic, detailed only in debug mode.
func (r *Renderer) RenderTemplate(ctx context.Context, id string, data Data) template.HTML {
	ctx, span := tracer.Start(ctx, "zest.Renderer.RenderTemplate", trace.WithAttributes(
		attribute.String("zest.template", id),
	))
	defer span.End()

	pageData := maps.Clone(data)
	if pageData == nil {
		pageData = Data{}
	}
	if scope := ScopeFromContext(ctx); scope != nil {
		if css := scope.Assets().CSS(); len(css) > 0 {
			pageData["component_css"] = css
		}
		if js := scope.Assets().JS(); len(js) > 0 {
			pageData["component_js"] = js
		}
	}
	out, err := r.engine.Render(ctx, id, pageData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger(ctx).ErrorContext(ctx, "error rendering template", "template", id, "error", err)
		if r.opts.Debug {
			return template.HTML(template.HTMLEscapeString("Template error: " + err.Error())) // #nosec G203
		}
		return genericTemplateFailure
	}
	return out
}

// WritePage renders a page template to out.
func (r *Renderer) WritePage(ctx context.Context, out io.Writer, id string, data Data) error {
	_, err := io.WriteString(out, string(r.RenderTemplate(ctx, id, data)))
	if err != nil {
		return fmt.Errorf("error writing page %q: %w", id, err)
	}
	return nil
}
