// Package zestecho provides Echo framework integration for zest.
//
// Install the middleware so every request gets its own asset scope, then
// render pages from handlers:
//
//	e := echo.New()
//	e.Use(zestecho.Middleware())
//	e.GET("/", func(c echo.Context) error {
//	    return zestecho.Render(c, http.StatusOK, renderer, "index.tmpl", nil)
//	})
//
// Or let Echo's own c.Render use zest:
//
//	e.Renderer = zestecho.NewTemplateRenderer(renderer)
package zestecho

import (
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"impractical.co/zest"
)

// Middleware gives every request its own zest.Scope, the way
// zest.Middleware does for net/http handlers.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(zest.WithScope(req.Context(), zest.NewScope())))
			return next(c)
		}
	}
}

// Render writes the page template id to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return zestecho.Render(c, http.StatusOK, renderer, "about.tmpl", zest.Data{"title": "About"})
//	}
func Render(c echo.Context, code int, renderer *zest.Renderer, id string, data zest.Data) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return renderer.WritePage(c.Request().Context(), c.Response(), id, data)
}

// RenderComponent writes a single component to the Echo response, for
// handlers answering fragment requests.
func RenderComponent(c echo.Context, code int, renderer *zest.Renderer, name string, data zest.Data) error {
	out := renderer.RenderComponent(c.Request().Context(), name, data, false)
	return c.HTML(code, string(out))
}

// TemplateRenderer is an echo.Renderer backed by a zest.Renderer.
type TemplateRenderer struct {
	renderer *zest.Renderer
}

var _ echo.Renderer = TemplateRenderer{}

// NewTemplateRenderer returns an echo.Renderer that renders page templates
// with renderer.
func NewTemplateRenderer(renderer *zest.Renderer) TemplateRenderer {
	return TemplateRenderer{renderer: renderer}
}

// Render implements echo.Renderer. data must be nil or a zest.Data.
func (t TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	var pageData zest.Data
	if data != nil {
		var ok bool
		pageData, ok = data.(zest.Data)
		if !ok {
			return fmt.Errorf("page data for %q must be a zest.Data, got %T", name, data)
		}
	}
	return t.renderer.WritePage(c.Request().Context(), w, name, pageData)
}
