// Package httpscope ties container scopes to HTTP request lifetimes. The
// middleware opens a fresh [container.Scope] for every request, stores it in
// the request context, and guarantees the scope is closed when the handler
// returns — so Scoped bindings behave as one-instance-per-request services.
package httpscope

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/km-arc/go-injector/container"
)

type contextKey struct{}

// RequestScope returns middleware that brackets each request with a
// container scope. Handlers retrieve it with [FromContext] or resolve
// directly with [ResolveRequest].
func RequestScope(c *container.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := c.BeginScope()
			defer s.Close()

			ctx := context.WithValue(r.Context(), contextKey{}, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the request's scope, if the [RequestScope] middleware
// is installed.
func FromContext(ctx context.Context) (*container.Scope, bool) {
	s, ok := ctx.Value(contextKey{}).(*container.Scope)
	return s, ok
}

// ResolveRequest resolves key through the request's scope.
//
//	db, err := httpscope.ResolveRequest[Database](r, "database")
func ResolveRequest[T any](r *http.Request, key string) (T, error) {
	s, ok := FromContext(r.Context())
	if !ok {
		var zero T
		return zero, container.ErrScopeViolation
	}
	return container.Resolve[T](s, key)
}

// NewRouter returns a chi router with request-ID, recoverer, and
// request-scope middleware pre-installed.
func NewRouter(c *container.Container) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestScope(c))
	return r
}
