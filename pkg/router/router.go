package router

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/plumego/plume/pkg/common"
)

// Router is the engine facade: it owns the route table, the global
// middleware, and the dispatch pipeline, and exposes the host-independent
// Handle entry point that adapters call. Configure it fully before
// serving; late registrations are safe but should be the exception.
type Router struct {
	table        *RouteTable
	logger       *zap.Logger
	development  bool
	middlewares  []common.Middleware
	notFound     common.Handler
	errorHandler ErrorHandler
}

// New creates a Router with the given configuration.
func New(config RouterConfig) *Router {
	logger := config.Logger
	if logger == nil {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			logger = zap.NewNop()
		}
	}

	notFound := config.NotFoundHandler
	if notFound == nil {
		notFound = defaultNotFound
	}

	return &Router{
		table:        NewRouteTable(),
		logger:       logger,
		development:  config.Development,
		middlewares:  config.Middlewares,
		notFound:     notFound,
		errorHandler: config.ErrorHandler,
	}
}

// Table returns the underlying route table.
func (r *Router) Table() *RouteTable { return r.table }

// Use registers path-scoped middleware: it runs for every exchange whose
// path matches the pattern, in registration order, ahead of the matched
// route's own middleware.
func (r *Router) Use(path string, middlewares ...common.Middleware) error {
	return r.table.Use(path, middlewares...)
}

// Handle registers a route for an explicit method. method may be
// MethodAll to register in the ALL-methods bucket, consulted when no
// method-specific route matches.
func (r *Router) Handle(method, path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return r.table.Register(method, path, middlewares, handler)
}

// Get registers a GET route.
func (r *Router) Get(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return r.Handle(http.MethodGet, path, handler, middlewares...)
}

// Post registers a POST route.
func (r *Router) Post(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return r.Handle(http.MethodPost, path, handler, middlewares...)
}

// Put registers a PUT route.
func (r *Router) Put(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return r.Handle(http.MethodPut, path, handler, middlewares...)
}

// Delete registers a DELETE route.
func (r *Router) Delete(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return r.Handle(http.MethodDelete, path, handler, middlewares...)
}

// Patch registers a PATCH route.
func (r *Router) Patch(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return r.Handle(http.MethodPatch, path, handler, middlewares...)
}

// Head registers a HEAD route.
func (r *Router) Head(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return r.Handle(http.MethodHead, path, handler, middlewares...)
}

// Options registers an OPTIONS route.
func (r *Router) Options(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return r.Handle(http.MethodOptions, path, handler, middlewares...)
}

// All registers a route for all methods.
func (r *Router) All(path string, handler common.Handler, middlewares ...common.Middleware) (RouteID, error) {
	return r.Handle(MethodAll, path, handler, middlewares...)
}

// NotFound replaces the terminal run when no route matches.
func (r *Router) NotFound(handler common.Handler) {
	if handler != nil {
		r.notFound = handler
	}
}

// OnError replaces the error-handling conversion applied to uncaught
// failures raised inside the chain.
func (r *Router) OnError(handler ErrorHandler) {
	r.errorHandler = handler
}

// Process runs one exchange through the engine: match the route, build
// the middleware chain, dispatch, and return the populated response. This
// is the adapter boundary; the engine performs no network I/O of its own.
//
// ctx carries cancellation from the host (client disconnect, deadline).
// The returned response is always well-formed: failures, including the
// absence of a matching route, have already been converted.
func (r *Router) Process(ctx context.Context, req *common.Request) *common.Response {
	c := common.NewContext(ctx, req)

	// One snapshot per exchange: the match and the path-scoped middleware
	// collection must never straddle a table swap.
	set := r.table.snapshot.Load()

	m, err := set.match(c.Request().Method, c.Request().Path)
	if err != nil {
		// Not found: run the configured not-found terminal instead of any
		// route-specific chain. Global middleware and the error wrapper
		// still apply.
		r.dispatch(c, r.middlewares, r.notFound)
		return c.Response()
	}

	c.SetParams(m.Params)
	c.SetRoutePattern(m.Route.Pattern.String())

	scoped := set.middlewaresFor(c.Request().Path)

	chain := make([]common.Middleware, 0, len(r.middlewares)+len(scoped)+len(m.Route.Middlewares))
	chain = append(chain, r.middlewares...)
	chain = append(chain, scoped...)
	chain = append(chain, m.Route.Middlewares...)

	r.dispatch(c, chain, m.Route.Handler)
	return c.Response()
}
