package router

import (
	"errors"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/plumego/plume/pkg/common"
)

// dispatch composes the middleware chain with the terminal handler into a
// single nested invocation sequence (onion model) and executes it against
// the exchange context. The first chain entry is the outermost layer: its
// pre-logic runs first and its post-logic last.
//
// Failures never escape: any error return or panic is converted into a
// response at the point of failure, before unwinding resumes, so the
// post-logic of outer layers always observes the converted, committed
// response rather than the raw failure.
func (r *Router) dispatch(c *common.Context, chain []common.Middleware, terminal common.Handler) {
	if err := r.invoke(c, chain, 0, terminal); err != nil {
		r.convertFailure(c, err)
	}
	c.Response().Commit()
}

// invoke runs layer i of the chain. Each layer receives a guarded
// continuation: the guard detects double invocation, converts inner
// failures, and commits the response before the layer's post-logic runs.
func (r *Router) invoke(c *common.Context, chain []common.Middleware, i int, terminal common.Handler) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()

	if i == len(chain) {
		if err := terminal(c); err != nil {
			return err
		}
		c.Response().Commit()
		return nil
	}

	var calls int
	next := func() error {
		calls++
		if calls > 1 {
			r.logger.Error("middleware invoked next more than once",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().Path),
				zap.String("route", c.RoutePattern()),
			)
			return common.ErrDoubleNext
		}
		if err := r.invoke(c, chain, i+1, terminal); err != nil {
			r.convertFailure(c, err)
		}
		c.Response().Commit()
		return nil
	}
	return chain[i](c, next)
}

// convertFailure is the single point where every failure raised inside the
// chain is intercepted and turned into a response. A configured error
// handler receives the failure and the context; without one (or if it
// panics) the failure becomes a generic server-error response with no
// leaked internal detail, unless Development mode requests verbose
// diagnostics.
func (r *Router) convertFailure(c *common.Context, err error) {
	if handler := r.errorHandler; handler != nil {
		panicked := func() (panicked bool) {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("error handler panicked",
						zap.Any("panic", rec),
						zap.String("method", c.Request().Method),
						zap.String("path", c.Request().Path),
					)
					panicked = true
				}
			}()
			handler(c, err)
			return false
		}()
		if !panicked {
			c.Response().Commit()
			return
		}
	}
	r.defaultConvert(c, err)
}

func (r *Router) defaultConvert(c *common.Context, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().Path),
		zap.String("route", c.RoutePattern()),
	}

	var pe *panicError
	if errors.As(err, &pe) {
		fields = append(fields, zap.String("stack", string(pe.stack)))
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		r.logger.Warn("Handler failure", fields...)
		c.Response().OverwriteHeader("Content-Type", "text/plain; charset=utf-8")
		c.Response().Overwrite(httpErr.StatusCode, []byte(httpErr.Message))
		return
	}

	r.logger.Error("Handler failure", fields...)

	body := "Internal Server Error"
	if r.development {
		body = err.Error()
		if pe != nil {
			body += "\n\n" + string(pe.stack)
		}
	}
	c.Response().OverwriteHeader("Content-Type", "text/plain; charset=utf-8")
	c.Response().Overwrite(http.StatusInternalServerError, []byte(body))
}

// defaultNotFound is the not-found terminal used when none is configured.
func defaultNotFound(c *common.Context) error {
	return c.Text(http.StatusNotFound, "Not Found")
}
