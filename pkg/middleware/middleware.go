// Package middleware provides a collection of middleware components for
// the Plume framework, all expressed against the generic middleware
// contract: receive the exchange context and a continuation, produce a
// terminal outcome or delegate inward.
package middleware

import (
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/plumego/plume/pkg/common"
	"github.com/plumego/plume/pkg/router"
)

// Middleware is an alias for common.Middleware.
type Middleware = common.Middleware

// Chain flattens multiple middlewares into one, preserving order: the
// first argument is the outermost layer.
func Chain(middlewares ...Middleware) Middleware {
	return func(c *common.Context, next common.Next) error {
		var run func(i int) error
		run = func(i int) error {
			if i == len(middlewares) {
				return next()
			}
			return middlewares[i](c, func() error { return run(i + 1) })
		}
		return run(0)
	}
}

// Logging creates a middleware that logs each exchange after the inner
// chain has produced its response. Level follows the status class: server
// errors at Error, client errors and slow requests at Warn, everything
// else at Debug to avoid log spam.
func Logging(logger *zap.Logger) Middleware {
	return func(c *common.Context, next common.Next) error {
		start := time.Now()

		if err := next(); err != nil {
			return err
		}

		duration := time.Since(start)
		status := c.Response().Status()

		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().Path),
			zap.String("route", c.RoutePattern()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		}
		if traceID := GetTraceID(c); traceID != "" {
			fields = append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
		}

		switch {
		case status >= 500:
			logger.Error("Server error", fields...)
		case status >= 400:
			logger.Warn("Client error", fields...)
		case duration > 1*time.Second:
			logger.Warn("Slow request", fields...)
		default:
			logger.Debug("Request", fields...)
		}
		return nil
	}
}

// ErrBodyTooLarge is the failure surfaced when a request body exceeds the
// limit installed by MaxBodySize.
var ErrBodyTooLarge = errors.New("request body too large")

// MaxBodySize creates a middleware that limits the size of the request
// body. Reads past the limit fail, and the resulting handler failure is
// converted to a 413.
func MaxBodySize(maxSize int64) Middleware {
	return func(c *common.Context, next common.Next) error {
		if body := c.Request().Body; body != nil {
			c.Request().Body = &limitedReadCloser{rc: body, remaining: maxSize}
		}
		return next()
	}
}

type limitedReadCloser struct {
	rc        io.ReadCloser
	remaining int64
	exceeded  bool
}

func (l *limitedReadCloser) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, router.NewHTTPError(http.StatusRequestEntityTooLarge, ErrBodyTooLarge.Error())
	}
	// Read one byte past the limit so the overflow is detected on the
	// read that crosses it.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.rc.Read(p)
	if int64(n) > l.remaining {
		l.exceeded = true
		return 0, router.NewHTTPError(http.StatusRequestEntityTooLarge, ErrBodyTooLarge.Error())
	}
	l.remaining -= int64(n)
	return n, err
}

func (l *limitedReadCloser) Close() error { return l.rc.Close() }
