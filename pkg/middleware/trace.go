package middleware

import (
	"github.com/google/uuid"

	"github.com/plumego/plume/pkg/common"
)

// TraceIDKey is the exchange store key under which the trace middleware
// publishes the generated trace ID.
const TraceIDKey = "plume.trace_id"

// TraceIDHeader is the response header carrying the trace ID back to the
// client.
const TraceIDHeader = "X-Trace-Id"

// Trace creates a middleware that generates a unique trace ID for each
// exchange and publishes it through the exchange store and the response
// headers. This allows request tracing across logs: register it outermost
// so every inner layer can read the ID.
func Trace() Middleware {
	return func(c *common.Context, next common.Next) error {
		// Honor an ID supplied by an upstream proxy, if any.
		traceID := c.Request().Header.Get(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(TraceIDKey, traceID)
		c.Response().Header().Set(TraceIDHeader, traceID)

		return next()
	}
}

// GetTraceID extracts the trace ID from the exchange store.
// Returns an empty string if no trace ID is present.
func GetTraceID(c *common.Context) string {
	return c.GetString(TraceIDKey)
}
