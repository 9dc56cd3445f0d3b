package router

import (
	"net/http"
	"strings"

	"github.com/plumego/plume/pkg/common"
)

// Group is a scoped registrar: every registration made through it is
// placed under the group's path prefix, and the group's middleware wrap
// the route's own chain, outermost first. Groups nest; a child composes
// its parent's prefix and middleware.
type Group struct {
	router      *Router
	prefix      string
	middlewares []common.Middleware
}

// Group creates a scoped registrar under the given path prefix. The
// middleware apply to every route registered through the group, ahead of
// any route-specific middleware.
func (r *Router) Group(prefix string, middlewares ...common.Middleware) *Group {
	return &Group{
		router:      r,
		prefix:      normalizePrefix(prefix),
		middlewares: middlewares,
	}
}

// Group creates a nested group under this group's prefix. The child
// inherits the parent's middleware ahead of its own.
func (g *Group) Group(prefix string, middlewares ...common.Middleware) *Group {
	return &Group{
		router:      g.router,
		prefix:      g.prefix + normalizePrefix(prefix),
		middlewares: combine(g.middlewares, middlewares),
	}
}

// Use registers path-scoped middleware under the group's prefix.
func (g *Group) Use(path string, middlewares ...common.Middleware) error {
	return g.router.Use(g.join(path), middlewares...)
}

// Handle registers a route under the group's prefix for an explicit
// method. The group's middleware run ahead of the route's own.
func (g *Group) Handle(method, path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return g.router.Handle(method, g.join(path), handler, combine(g.middlewares, middlewares)...)
}

// Get registers a GET route under the group's prefix.
func (g *Group) Get(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return g.Handle(http.MethodGet, path, handler, middlewares...)
}

// Post registers a POST route under the group's prefix.
func (g *Group) Post(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return g.Handle(http.MethodPost, path, handler, middlewares...)
}

// Put registers a PUT route under the group's prefix.
func (g *Group) Put(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return g.Handle(http.MethodPut, path, handler, middlewares...)
}

// Delete registers a DELETE route under the group's prefix.
func (g *Group) Delete(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return g.Handle(http.MethodDelete, path, handler, middlewares...)
}

// Patch registers a PATCH route under the group's prefix.
func (g *Group) Patch(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return g.Handle(http.MethodPatch, path, handler, middlewares...)
}

// Head registers a HEAD route under the group's prefix.
func (g *Group) Head(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return g.Handle(http.MethodHead, path, handler, middlewares...)
}

// Options registers an OPTIONS route under the group's prefix.
func (g *Group) Options(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return g.Handle(http.MethodOptions, path, handler, middlewares...)
}

// All registers a route under the group's prefix for all methods.
func (g *Group) All(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return g.Handle(MethodAll, path, handler, middlewares...)
}

// join places path under the group's prefix. A root path registers the
// prefix itself.
func (g *Group) join(path string) string {
	if path == "" || path == "/" {
		if g.prefix == "" {
			return "/"
		}
		return g.prefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.prefix + path
}

// normalizePrefix reduces a prefix to "/segment..." form with no trailing
// slash; the root prefix reduces to "".
func normalizePrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/")
}

func combine(outer, inner []common.Middleware) []common.Middleware {
	if len(outer) == 0 {
		return inner
	}
	chain := make([]common.Middleware, 0, len(outer)+len(inner))
	chain = append(chain, outer...)
	chain = append(chain, inner...)
	return chain
}
