package common

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Context is the per-exchange mutable carrier: the parsed request view, the
// response builder, the captured route parameters, and an arbitrary
// string-keyed store for inter-middleware communication. One Context is
// created per inbound exchange, exclusively owned by the dispatch pipeline
// invocation processing it, and discarded when the response has been fully
// emitted. It is not safe for concurrent use across exchanges and never
// needs to be: no two exchanges share a context.
type Context struct {
	ctx    context.Context
	req    *Request
	res    *Response
	params Params
	store  map[string]any
	route  string
}

// Params holds captured route parameters keyed by name.
type Params = map[string]string

// NewContext creates a fresh exchange context over the given request. ctx
// carries cancellation from the host (client disconnect, deadline); it is
// never nil after this call.
func NewContext(ctx context.Context, req *Request) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		req = NewRequest("", "")
	}
	if req.Path == "" {
		req.Path = "/"
	}
	return &Context{
		ctx: ctx,
		req: req,
		res: NewResponse(),
	}
}

// Context returns the cancellation context of the exchange. Suspended
// middleware should observe it so held resources are released promptly
// when the client disconnects.
func (c *Context) Context() context.Context { return c.ctx }

// Request returns the canonical request view.
func (c *Context) Request() *Request { return c.req }

// Response returns the response builder.
func (c *Context) Response() *Response { return c.res }

// Param returns the captured route parameter with the given name, or "".
func (c *Context) Param(name string) string { return c.params[name] }

// Params returns all captured route parameters.
func (c *Context) Params() Params { return c.params }

// SetParams installs the captured route parameters. The dispatch pipeline
// calls it once after matching; middleware should treat params as
// read-only.
func (c *Context) SetParams(params Params) { c.params = params }

// RoutePattern returns the registration string of the matched route, or ""
// when no route matched. Middleware use it as a low-cardinality label for
// logging and metrics.
func (c *Context) RoutePattern() string { return c.route }

// SetRoutePattern records the matched route's registration string.
func (c *Context) SetRoutePattern(p string) { c.route = p }

// Set stores a value in the exchange store under the given key, visible to
// all inner layers and, after the continuation returns, to all outer
// layers. Key collisions are the application author's responsibility; the
// framework does not namespace them.
func (c *Context) Set(key string, value any) {
	if c.store == nil {
		c.store = make(map[string]any, 8)
	}
	c.store[key] = value
}

// Get retrieves a value from the exchange store.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.store[key]
	return v, ok
}

// GetString retrieves a string value from the exchange store, returning ""
// when the key is absent or holds a non-string.
func (c *Context) GetString(key string) string {
	if v, ok := c.store[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// MustGet retrieves a value from the exchange store and panics when the
// key is absent. Use it for values a prior middleware is contractually
// required to have published.
func (c *Context) MustGet(key string) any {
	v, ok := c.store[key]
	if !ok {
		panic(fmt.Sprintf("plume: no value in exchange store for key %q", key))
	}
	return v
}

// Text writes a plain-text response with the given status code.
func (c *Context) Text(status int, body string) error {
	c.res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := c.res.SetStatus(status); err != nil {
		return err
	}
	return c.res.SetBody([]byte(body))
}

// JSON writes a JSON response with the given status code.
func (c *Context) JSON(status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.res.Header().Set("Content-Type", "application/json")
	if err := c.res.SetStatus(status); err != nil {
		return err
	}
	return c.res.SetBody(body)
}

// NoContent writes an empty response with the given status code.
func (c *Context) NoContent(status int) error {
	if err := c.res.SetStatus(status); err != nil {
		return err
	}
	return c.res.SetBody(nil)
}

// SSE installs a server-sent-events body: status 200, the standard event
// stream headers, and the given producer. The producer must return when
// the exchange's context is cancelled.
func (c *Context) SSE(fn StreamFunc) error {
	c.res.Header().Set("Content-Type", "text/event-stream")
	c.res.Header().Set("Cache-Control", "no-cache")
	c.res.Header().Set("Connection", "keep-alive")
	if err := c.res.SetStatus(http.StatusOK); err != nil {
		return err
	}
	return c.res.SetStream(fn)
}
