// Package common provides the shared contract types of the Plume framework:
// the exchange context, the canonical request and response shapes, and the
// middleware capability that every composable unit must satisfy.
package common

import "errors"

// Handler is a terminal handler: it receives the exchange context and
// produces the response, or fails.
type Handler func(c *Context) error

// Next is the continuation handed to a middleware. Invoking it runs the
// next layer of the chain (eventually the terminal handler). A middleware
// may invoke it zero or one times; a second invocation is a contract
// violation and returns ErrDoubleNext without running the chain again.
type Next func() error

// Middleware is a composable unit that observes and modifies one exchange.
// It may run pre-logic, invoke the continuation, run post-logic against the
// populated response, or short-circuit by producing a response directly
// without invoking the continuation.
type Middleware func(c *Context, next Next) error

// ErrDoubleNext is returned when a middleware invokes its continuation more
// than once within a single exchange. It indicates a programming error in
// that middleware.
var ErrDoubleNext = errors.New("middleware invoked next more than once")

// MiddlewareChain represents an ordered chain of middleware. The first
// entry is the outermost layer when the chain is dispatched.
type MiddlewareChain []Middleware

// NewMiddlewareChain creates a new middleware chain.
func NewMiddlewareChain(middlewares ...Middleware) MiddlewareChain {
	return middlewares
}

// Append adds middleware to the end of the chain.
func (c MiddlewareChain) Append(middlewares ...Middleware) MiddlewareChain {
	return append(c, middlewares...)
}

// Prepend adds middleware to the beginning of the chain.
func (c MiddlewareChain) Prepend(middlewares ...Middleware) MiddlewareChain {
	result := make(MiddlewareChain, len(middlewares)+len(c))
	copy(result, middlewares)
	copy(result[len(middlewares):], c)
	return result
}
