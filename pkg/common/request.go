package common

import (
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request is the canonical, host-independent view of one inbound request.
// Adapters translate a host runtime's native representation into this
// shape before handing the exchange to the engine; the engine itself never
// depends on any specific host API.
type Request struct {
	// Method is the HTTP method, e.g. "GET".
	Method string

	// Path is the request path. An empty path is treated as "/".
	Path string

	// Query holds the parsed query parameters.
	Query url.Values

	// Header holds the request headers. Keys are case-insensitive under
	// the usual canonical-key convention.
	Header http.Header

	// Body is the request body handle. It may be nil for bodyless requests.
	Body io.ReadCloser

	// Host is the requested host, if the adapter provides one.
	Host string

	// RemoteAddr is the network address of the client, if known.
	RemoteAddr string
}

// NewRequest creates a canonical request with initialized header and query
// maps. Method defaults to "GET" and path to "/" when empty.
func NewRequest(method, path string) *Request {
	if method == "" {
		method = http.MethodGet
	}
	if path == "" {
		path = "/"
	}
	return &Request{
		Method: strings.ToUpper(method),
		Path:   path,
		Query:  make(url.Values),
		Header: make(http.Header),
	}
}

// BodyBytes drains and returns the request body. It returns nil when no
// body is present. The body is closed after reading.
func (r *Request) BodyBytes() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
