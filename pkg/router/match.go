package router

import (
	"github.com/plumego/plume/pkg/common"
	"github.com/plumego/plume/pkg/pattern"
)

// MatchResult carries the outcome of a successful match: the winning
// route, the captured parameter bindings (percent-decoded once), and the
// number of request path segments the pattern consumed. It is transient,
// produced and discarded per request.
type MatchResult struct {
	Route    *Route
	Params   common.Params
	Consumed int
}

// Match finds the route handling (method, path). Candidates are walked in
// registration order, method-specific bucket before the ALL bucket, and
// the first candidate matching the whole path wins. Registration order is
// the tie-break, not specificity scoring: more specific routes must be
// registered before more general ones sharing a method to take
// precedence.
//
// Returns ErrNotFound when no candidate matches.
func (t *RouteTable) Match(method, path string) (*MatchResult, error) {
	return t.snapshot.Load().match(method, path)
}

func (s *routeSet) match(method, path string) (*MatchResult, error) {
	if path == "" {
		path = "/"
	}
	if m := matchBucket(s.methods[method], path); m != nil {
		return m, nil
	}
	if m := matchBucket(s.all, path); m != nil {
		return m, nil
	}
	return nil, ErrNotFound
}

func matchBucket(routes []*Route, path string) *MatchResult {
	for _, route := range routes {
		params, ok := route.Pattern.Match(path)
		if !ok {
			continue
		}
		return &MatchResult{
			Route:    route,
			Params:   params,
			Consumed: len(pattern.SplitPath(path)),
		}
	}
	return nil
}
