package middleware

import (
	"time"

	"github.com/plumego/plume/pkg/common"
	"github.com/plumego/plume/pkg/metrics"
)

// notFoundRoute is the route label recorded for exchanges that matched no
// route, keeping the label cardinality bounded.
const notFoundRoute = "<not found>"

// Metrics creates a middleware that records each exchange into the given
// collector: request count, latency, error count, and the in-flight
// gauge. Register it outermost so the observed latency covers the whole
// chain.
func Metrics(collector *metrics.Collector) Middleware {
	return func(c *common.Context, next common.Next) error {
		start := time.Now()
		collector.IncInFlight()
		defer collector.DecInFlight()

		if err := next(); err != nil {
			return err
		}

		route := c.RoutePattern()
		if route == "" {
			route = notFoundRoute
		}
		collector.ObserveRequest(c.Request().Method, route, c.Response().Status(), time.Since(start))
		return nil
	}
}
