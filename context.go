package zest

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	slogCtxKey ctxKey = iota
	scopeCtxKey
	depthCtxKey
)

var discardLogger = slog.New(slog.DiscardHandler)

// logger returns the *slog.Logger stored in ctx by LoggingContext. Without
// one, log output is dropped.
func logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(slogCtxKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return discardLogger
}

// LoggingContext returns a copy of ctx that the registry, engine and
// renderer will log to.
func LoggingContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, slogCtxKey, logger)
}

// WithScope returns a copy of ctx carrying scope. Call it once at the start
// of every request; Middleware does this for net/http handlers.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeCtxKey, scope)
}

// ScopeFromContext returns the Scope stored in ctx, or nil if there is
// none.
func ScopeFromContext(ctx context.Context) *Scope {
	scope, _ := ctx.Value(scopeCtxKey).(*Scope)
	return scope
}

// renderDepth is the number of component renders ctx is nested inside.
func renderDepth(ctx context.Context) int {
	depth, _ := ctx.Value(depthCtxKey).(int)
	return depth
}

func withRenderDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthCtxKey, depth)
}
