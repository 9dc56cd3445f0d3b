// Package pattern compiles route registration strings into matchable path
// patterns. A pattern is an ordered sequence of segments: literal text,
// named parameters with optional regex constraints, single-segment
// wildcards, and a trailing catch-all that consumes the remainder of the
// request path.
package pattern

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidPattern is the sentinel error wrapped by every compilation
// failure. Use errors.Is to detect it regardless of the specific reason.
var ErrInvalidPattern = errors.New("invalid route pattern")

// InvalidPatternError describes why a registration string could not be
// compiled. It wraps ErrInvalidPattern.
type InvalidPatternError struct {
	Pattern string // The registration string as given
	Reason  string // Human-readable reason for the failure
}

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid route pattern %q: %s", e.Pattern, e.Reason)
}

// Unwrap returns ErrInvalidPattern so callers can use errors.Is.
func (e *InvalidPatternError) Unwrap() error {
	return ErrInvalidPattern
}

func invalid(pattern, format string, args ...any) error {
	return &InvalidPatternError{Pattern: pattern, Reason: fmt.Sprintf(format, args...)}
}

// Kind identifies the type of a compiled segment.
type Kind uint8

const (
	// KindLiteral matches a path segment by exact, case-sensitive equality.
	KindLiteral Kind = iota

	// KindParam captures exactly one path segment under a name, optionally
	// subject to a regex constraint checked at match time.
	KindParam

	// KindWildcard consumes exactly one path segment and discards its value.
	KindWildcard

	// KindCatchAll consumes all remaining path segments (including zero)
	// and captures them joined by "/". It must be the last segment.
	KindCatchAll
)

// Segment is one compiled element of a Pattern.
type Segment struct {
	Kind Kind

	// Text is the literal text for KindLiteral segments.
	Text string

	// Name is the capture name for KindParam and KindCatchAll segments.
	Name string

	// Constraint is the optional compiled regex for KindParam segments.
	// It is anchored to the whole decoded segment value.
	Constraint *regexp.Regexp
}

// Pattern is a compiled route registration string. Patterns are created by
// Compile at route-registration time and are immutable afterwards.
type Pattern struct {
	raw      string
	segments []Segment
	catchAll bool
}

// Params holds the parameter values captured by a successful match, keyed
// by parameter name. Values are percent-decoded exactly once.
type Params map[string]string

// Compile turns a registration string such as "/posts/:id", "/static/*",
// "/users/:id{[0-9]+}" or "/files/*rest" into a Pattern.
//
// Segments are split on "/". Empty segments produced by the leading and a
// single trailing slash are normalized away, so "/users/" compiles to the
// same pattern as "/users". A segment starting with ":" is a named
// parameter; a trailing "{regex}" constrains what it may match. A segment
// that is exactly "*" is a single-segment wildcard. A segment of the form
// "*name" is a catch-all and must be last.
//
// Compilation fails with an *InvalidPatternError if a catch-all is not the
// last segment, if a regex constraint does not compile, or if two
// parameters in the same pattern share a name.
func Compile(raw string) (*Pattern, error) {
	segs := SplitPath(raw)
	if n := len(segs); n > 0 && segs[n-1] == "" {
		segs = segs[:n-1]
	}

	p := &Pattern{raw: raw, segments: make([]Segment, 0, len(segs))}
	seen := make(map[string]struct{}, 2)

	for i, seg := range segs {
		switch {
		case seg == "*":
			p.segments = append(p.segments, Segment{Kind: KindWildcard})

		case strings.HasPrefix(seg, "*"):
			name := seg[1:]
			if i != len(segs)-1 {
				return nil, invalid(raw, "catch-all segment %q must be last", seg)
			}
			if _, dup := seen[name]; dup {
				return nil, invalid(raw, "duplicate parameter name %q", name)
			}
			seen[name] = struct{}{}
			p.segments = append(p.segments, Segment{Kind: KindCatchAll, Name: name})
			p.catchAll = true

		case strings.HasPrefix(seg, ":"):
			name := seg[1:]
			var constraint *regexp.Regexp
			if idx := strings.IndexByte(name, '{'); idx >= 0 {
				if !strings.HasSuffix(name, "}") {
					return nil, invalid(raw, "unterminated regex constraint in segment %q", seg)
				}
				expr := name[idx+1 : len(name)-1]
				name = name[:idx]
				re, err := regexp.Compile("^(?:" + expr + ")$")
				if err != nil {
					return nil, invalid(raw, "regex constraint %q does not compile: %v", expr, err)
				}
				constraint = re
			}
			if name == "" {
				return nil, invalid(raw, "parameter segment %q has no name", seg)
			}
			if _, dup := seen[name]; dup {
				return nil, invalid(raw, "duplicate parameter name %q", name)
			}
			seen[name] = struct{}{}
			p.segments = append(p.segments, Segment{Kind: KindParam, Name: name, Constraint: constraint})

		default:
			p.segments = append(p.segments, Segment{Kind: KindLiteral, Text: seg})
		}
	}

	return p, nil
}

// MustCompile is like Compile but panics on failure. It is intended for
// patterns known at program start, where a bad pattern must abort startup.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original registration string.
func (p *Pattern) String() string { return p.raw }

// Segments returns the compiled segment sequence.
func (p *Pattern) Segments() []Segment { return p.segments }

// HasCatchAll reports whether the pattern ends in a catch-all segment.
func (p *Pattern) HasCatchAll() bool { return p.catchAll }

// Match attempts a segment-by-segment match of the request path against
// the pattern. Literal segments require exact, case-sensitive equality.
// Parameter segments capture the corresponding path segment subject to
// their constraint. Wildcards consume exactly one segment. A catch-all
// consumes all remaining segments, including zero.
//
// Captured values are percent-decoded once before any constraint is
// checked. The second return value reports whether the whole path was
// consumed by the pattern.
//
// An empty path is treated as "/". A trailing slash on the request path is
// significant: "/users/" produces a trailing empty segment that a
// non-catch-all pattern compiled from "/users" will not consume.
func (p *Pattern) Match(path string) (Params, bool) {
	segs := SplitPath(path)

	var params Params
	for i, seg := range p.segments {
		if seg.Kind == KindCatchAll {
			rest := make([]string, 0, len(segs)-i)
			for _, s := range segs[i:] {
				rest = append(rest, decodeSegment(s))
			}
			if params == nil {
				params = make(Params, 1)
			}
			params[seg.Name] = strings.Join(rest, "/")
			return params, true
		}

		if i >= len(segs) {
			return nil, false
		}

		switch seg.Kind {
		case KindLiteral:
			if segs[i] != seg.Text {
				return nil, false
			}
		case KindWildcard:
			// Consumes the segment, value discarded.
		case KindParam:
			val := decodeSegment(segs[i])
			if seg.Constraint != nil && !seg.Constraint.MatchString(val) {
				return nil, false
			}
			if params == nil {
				params = make(Params, 4)
			}
			params[seg.Name] = val
		}
	}

	if len(segs) != len(p.segments) {
		return nil, false
	}
	return params, true
}

// SplitPath splits a request path into its segments. The leading slash is
// stripped; a trailing slash yields a trailing empty segment so that it
// stays significant during matching. An empty path and "/" both split to
// no segments.
func SplitPath(path string) []string {
	if path == "" || path == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

// decodeSegment percent-decodes a single path segment. Segments that fail
// to decode are kept verbatim rather than rejected, matching the behavior
// of treating the raw bytes as the captured value.
func decodeSegment(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
