package zest

import (
	"bytes"
	"context"
	"html/template"
	"maps"

	"github.com/a-h/templ"
)

// Data is the mapping a component or page is rendered with.
type Data = map[string]any

// Logic is the object backing a component's behavior. It has no required
// methods; a Logic is useful when it implements Preparer, SelfRenderer, or
// both.
type Logic any

// LogicFactory returns a fresh Logic. It is called once per render, so
// Logic values never carry state from one render to the next.
type LogicFactory func() Logic

// Preparer is an interface that Logic can fulfill to transform the data a
// component is rendered with before it reaches the template.
type Preparer interface {
	// Prepare returns the data the component should be rendered with.
	// The passed map belongs to the caller of Prepare and may be
	// returned modified, but Prepare must not render anything or touch
	// state outside its arguments.
	Prepare(ctx context.Context, data Data) (Data, error)
}

// SelfRenderer is an interface that Logic can fulfill to produce the
// component's HTML itself. A component whose Logic is a SelfRenderer never
// has its template consulted.
type SelfRenderer interface {
	Render(ctx context.Context, data Data) (template.HTML, error)
}

// PrepareFunc lets an ordinary function be used as a Preparer.
type PrepareFunc func(ctx context.Context, data Data) (Data, error)

// Prepare calls f(ctx, data).
func (f PrepareFunc) Prepare(ctx context.Context, data Data) (Data, error) {
	return f(ctx, data)
}

// RenderFunc lets an ordinary function be used as a SelfRenderer.
type RenderFunc func(ctx context.Context, data Data) (template.HTML, error)

// Render calls f(ctx, data).
func (f RenderFunc) Render(ctx context.Context, data Data) (template.HTML, error) {
	return f(ctx, data)
}

// TemplRenderer returns a SelfRenderer that renders the templ.Component
// built by fn.
func TemplRenderer(fn func(Data) templ.Component) RenderFunc {
	return func(ctx context.Context, data Data) (template.HTML, error) {
		var buf bytes.Buffer
		if err := fn(data).Render(ctx, &buf); err != nil {
			return "", err
		}
		return template.HTML(buf.String()), nil // #nosec G203
	}
}

// capabilities are the optional behaviors of one Logic instance, looked up
// once when the instance is created.
type capabilities struct {
	prepare func(context.Context, Data) (Data, error)
	render  func(context.Context, Data) (template.HTML, error)
}

func capabilitiesOf(logic Logic) capabilities {
	var caps capabilities
	if p, ok := logic.(Preparer); ok {
		caps.prepare = p.Prepare
	}
	if r, ok := logic.(SelfRenderer); ok {
		caps.render = r.Render
	}
	return caps
}

// runPrepare applies the manifest defaults and then the logic's Prepare,
// if it has one. The caller's map is never handed to Prepare directly.
func (c capabilities) runPrepare(ctx context.Context, manifest Manifest, data Data) (Data, error) {
	prepared := manifest.prepare(data)
	if c.prepare == nil {
		return prepared, nil
	}
	out, err := c.prepare(ctx, prepared)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = Data{}
	}
	return maps.Clone(out), nil
}
