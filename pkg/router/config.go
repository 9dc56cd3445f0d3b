// Package router implements the Plume request-routing and middleware
// dispatch engine: a route table with registration-order matching, an
// onion-model dispatch pipeline over per-exchange contexts, and the
// host-independent entry point adapters call into.
package router

import (
	"go.uber.org/zap"

	"github.com/plumego/plume/pkg/common"
)

// ErrorHandler converts an uncaught failure raised inside the chain into a
// response on the exchange context. It is the single point where failures
// are intercepted; by the time it returns, the context must carry a
// well-formed response.
type ErrorHandler func(c *common.Context, err error)

// RouterConfig defines the global configuration for the router.
// All fields are optional; zero values select the documented defaults.
type RouterConfig struct {
	// Logger receives all engine diagnostics. Defaults to a production
	// zap logger, falling back to a no-op logger if that cannot be built.
	Logger *zap.Logger

	// Development enables verbose diagnostics: error responses carry the
	// failure detail and, for panics, the stack trace. Never enable it
	// for production traffic; the default error response leaks nothing.
	Development bool

	// NotFoundHandler is the terminal run when no route matches. Defaults
	// to a plain-text 404.
	NotFoundHandler common.Handler

	// ErrorHandler converts uncaught failures into responses. Defaults to
	// the built-in conversion: HTTPError values keep their status and
	// message, everything else becomes a generic 500.
	ErrorHandler ErrorHandler

	// Middlewares are global middleware, outermost first. They wrap every
	// dispatched exchange, including the not-found terminal.
	Middlewares []common.Middleware
}

// Middleware is an alias for common.Middleware.
type Middleware = common.Middleware

// Handler is an alias for common.Handler.
type Handler = common.Handler
