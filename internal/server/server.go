// Package server serves a zest project over HTTP: page templates rendered
// by path, component assets, and static files.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"impractical.co/zest"
	"impractical.co/zest/zestecho"
)

const (
	// IndexPage is rendered for "/".
	IndexPage = "index"

	// NotFoundPage is rendered, when present, for paths without a page.
	NotFoundPage = "404"

	shutdownTimeout = 5 * time.Second
)

// Options configure a Server.
type Options struct {
	// Addr is the address to listen on.
	Addr string

	// Pages holds the page templates. A request for /about renders
	// about.tmpl from Pages.
	Pages fs.FS

	// Components is served under /static/components, so the asset URLs
	// the registry builds resolve. Only .css and .js files are served.
	Components fs.FS

	// Namespaces are served under /static/components/<namespace>, the
	// way the registry builds their asset URLs, falling back to the
	// matching directory of Components.
	Namespaces map[string]fs.FS

	// Static is served under /static.
	Static fs.FS

	// Logger receives a line per request. Defaults to slog.Default().
	Logger *slog.Logger
}

// Server renders a zest project's pages.
type Server struct {
	echo     *echo.Echo
	renderer *zest.Renderer
	opts     Options
}

// New returns a Server rendering pages with renderer.
func New(renderer *zest.Renderer, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		echo:     echo.New(),
		renderer: renderer,
		opts:     opts,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				opts.Logger.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)
				return nil
			}
			opts.Logger.LogAttrs(ctx, slog.LevelInfo, "request", attrs...)
			return nil
		},
	}))
	s.echo.Use(zestecho.Middleware())
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(zest.LoggingContext(req.Context(), opts.Logger)))
			return next(c)
		}
	})

	if opts.Components != nil {
		s.echo.StaticFS(zest.DefaultStaticPrefix, assetFS{opts.Components})
	}
	for ns, fsys := range opts.Namespaces {
		s.echo.StaticFS(zest.DefaultStaticPrefix+"/"+ns, namespaceAssets(ns, fsys, opts.Components))
	}
	if opts.Static != nil {
		s.echo.StaticFS("/static", opts.Static)
	}
	s.echo.GET("/*", s.page)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// pageID maps a request path to the page template that renders it.
func pageID(requestPath string) (string, bool) {
	name := strings.Trim(path.Clean("/"+requestPath), "/")
	if name == "" {
		name = IndexPage
	}
	id := name + zest.TemplateExt
	if !fs.ValidPath(id) {
		return "", false
	}
	return id, true
}

func (s *Server) hasPage(id string) bool {
	if s.opts.Pages == nil {
		return false
	}
	info, err := fs.Stat(s.opts.Pages, id)
	return err == nil && !info.IsDir()
}

func (s *Server) page(c echo.Context) error {
	data := zest.Data{
		"path":  c.Request().URL.Path,
		"query": c.QueryParams(),
	}
	id, ok := pageID(c.Request().URL.Path)
	if ok && s.hasPage(id) {
		return zestecho.Render(c, http.StatusOK, s.renderer, id, data)
	}
	notFound := NotFoundPage + zest.TemplateExt
	if s.hasPage(notFound) {
		return zestecho.Render(c, http.StatusNotFound, s.renderer, notFound, data)
	}
	return echo.ErrNotFound
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.echo.Start(s.opts.Addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down: %w", err)
	}
	return <-errCh
}

// Addr returns the address the server is listening on, or nil if it isn't
// listening yet.
func (s *Server) Addr() net.Addr {
	return s.echo.ListenerAddr()
}
