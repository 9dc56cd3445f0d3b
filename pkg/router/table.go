package router

import (
	"sync"
	"sync/atomic"

	"github.com/plumego/plume/pkg/common"
	"github.com/plumego/plume/pkg/pattern"
)

// MethodAll is the wildcard method marker. Routes registered under it form
// a separate bucket consulted after the method-specific bucket.
const MethodAll = "*"

// RouteID identifies a registered route within its table.
type RouteID uint64

// Route binds a compiled path pattern to a method, a middleware chain, and
// a terminal handler. A Route is owned exclusively by the table that
// registered it and is immutable after registration.
type Route struct {
	ID          RouteID
	Method      string
	Pattern     *pattern.Pattern
	Middlewares []common.Middleware
	Handler     common.Handler
}

// useEntry is a path-scoped middleware registration made through Use.
type useEntry struct {
	pattern     *pattern.Pattern
	middlewares []common.Middleware
}

// routeSet is one immutable snapshot of all registrations. Lookups load
// the current snapshot atomically, so a registration concurrent with an
// in-flight match can never expose a half-built table.
type routeSet struct {
	methods map[string][]*Route
	all     []*Route
	uses    []useEntry
}

var emptyRouteSet = &routeSet{methods: map[string][]*Route{}}

// RouteTable maps HTTP methods to ordered sequences of routes, plus the
// ALL-methods bucket. Registration normally happens during application
// setup; it remains safe afterwards because every mutation installs a
// fresh copy-on-write snapshot.
type RouteTable struct {
	mu       sync.Mutex // serializes registrations
	snapshot atomic.Pointer[routeSet]
	nextID   RouteID
}

// NewRouteTable creates an empty route table.
func NewRouteTable() *RouteTable {
	t := &RouteTable{}
	t.snapshot.Store(emptyRouteSet)
	return t
}

// Register compiles the pattern and appends a route to the method's bucket
// (or the ALL bucket when method is MethodAll). Relative registration
// order within a bucket is the matching precedence. The only failure mode
// is an invalid pattern, which must abort application start.
func (t *RouteTable) Register(method, path string, middlewares []common.Middleware, handler common.Handler) (RouteID, error) {
	p, err := pattern.Compile(path)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	route := &Route{
		ID:          t.nextID,
		Method:      method,
		Pattern:     p,
		Middlewares: middlewares,
		Handler:     handler,
	}

	cur := t.snapshot.Load()
	next := cur.clone()
	if method == MethodAll {
		next.all = append(next.all, route)
	} else {
		next.methods[method] = append(next.methods[method], route)
	}
	t.snapshot.Store(next)
	return route.ID, nil
}

// Use registers path-scoped middleware. The middleware runs, in
// registration order, for every dispatched exchange whose path matches
// the pattern, ahead of the matched route's own chain.
func (t *RouteTable) Use(path string, middlewares ...common.Middleware) error {
	p, err := pattern.Compile(path)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.snapshot.Load()
	next := cur.clone()
	next.uses = append(next.uses, useEntry{pattern: p, middlewares: middlewares})
	t.snapshot.Store(next)
	return nil
}

// Lookup returns the candidate routes for a method: the method-specific
// bucket concatenated with the ALL bucket, preserving relative
// registration order within each.
func (t *RouteTable) Lookup(method string) []*Route {
	set := t.snapshot.Load()
	bucket := set.methods[method]
	if len(set.all) == 0 {
		return bucket
	}
	routes := make([]*Route, 0, len(bucket)+len(set.all))
	routes = append(routes, bucket...)
	routes = append(routes, set.all...)
	return routes
}

// Len returns the total number of registered routes.
func (t *RouteTable) Len() int {
	set := t.snapshot.Load()
	n := len(set.all)
	for _, bucket := range set.methods {
		n += len(bucket)
	}
	return n
}

func (s *routeSet) clone() *routeSet {
	next := &routeSet{
		methods: make(map[string][]*Route, len(s.methods)+1),
		all:     append([]*Route(nil), s.all...),
		uses:    append([]useEntry(nil), s.uses...),
	}
	for m, bucket := range s.methods {
		next.methods[m] = append([]*Route(nil), bucket...)
	}
	return next
}

// middlewaresFor collects the path-scoped middleware whose patterns match
// the request path, in registration order.
func (s *routeSet) middlewaresFor(path string) []common.Middleware {
	var out []common.Middleware
	for _, u := range s.uses {
		if _, ok := u.pattern.Match(path); ok {
			out = append(out, u.middlewares...)
		}
	}
	return out
}
