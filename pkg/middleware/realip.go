package middleware

import (
	"net"
	"strings"

	"github.com/plumego/plume/pkg/common"
)

// IPSourceType defines the source for client IP addresses.
type IPSourceType string

const (
	// IPSourceRemoteAddr uses the request's RemoteAddr field.
	IPSourceRemoteAddr IPSourceType = "remote_addr"

	// IPSourceXForwardedFor uses the X-Forwarded-For header.
	IPSourceXForwardedFor IPSourceType = "x_forwarded_for"

	// IPSourceXRealIP uses the X-Real-IP header.
	IPSourceXRealIP IPSourceType = "x_real_ip"

	// IPSourceCustomHeader uses a custom header specified in the
	// configuration.
	IPSourceCustomHeader IPSourceType = "custom_header"
)

// IPConfig defines configuration for client IP extraction.
type IPConfig struct {
	// Source specifies where to extract the client IP from.
	Source IPSourceType

	// CustomHeader is the header to use when Source is
	// IPSourceCustomHeader.
	CustomHeader string

	// TrustProxy determines whether proxy headers are trusted at all.
	// When false, RemoteAddr is used regardless of Source.
	TrustProxy bool
}

// DefaultIPConfig returns the default IP configuration.
func DefaultIPConfig() *IPConfig {
	return &IPConfig{
		Source:     IPSourceXForwardedFor,
		TrustProxy: true,
	}
}

// ClientIPKey is the exchange store key under which the client IP
// middleware publishes the extracted address.
const ClientIPKey = "plume.client_ip"

// ClientIP reads the client IP published into the exchange store.
// Returns an empty string if the middleware did not run.
func ClientIP(c *common.Context) string {
	return c.GetString(ClientIPKey)
}

// ClientIPMiddleware creates a middleware that extracts the client IP
// from the request and publishes it into the exchange store. Register it
// first so every other layer sees the resolved address.
func ClientIPMiddleware(config *IPConfig) Middleware {
	if config == nil {
		config = DefaultIPConfig()
	}

	return func(c *common.Context, next common.Next) error {
		c.Set(ClientIPKey, extractClientIP(c, config))
		return next()
	}
}

func extractClientIP(c *common.Context, config *IPConfig) string {
	req := c.Request()

	if !config.TrustProxy {
		return stripPort(req.RemoteAddr)
	}

	switch config.Source {
	case IPSourceXForwardedFor:
		if v := req.Header.Get("X-Forwarded-For"); v != "" {
			// The leftmost entry is the original client.
			return strings.TrimSpace(strings.Split(v, ",")[0])
		}
	case IPSourceXRealIP:
		if v := req.Header.Get("X-Real-IP"); v != "" {
			return v
		}
	case IPSourceCustomHeader:
		if v := req.Header.Get(config.CustomHeader); v != "" {
			return v
		}
	}
	return stripPort(req.RemoteAddr)
}

// stripPort drops the port from a host:port remote address. Addresses
// without a port pass through unchanged.
func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
