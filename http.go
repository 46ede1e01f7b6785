package zest

import "net/http"

// Middleware gives every request its own Scope, so components rendered
// while handling one request never contribute assets to another.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithScope(r.Context(), NewScope())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
