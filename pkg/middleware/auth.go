package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/plumego/plume/pkg/common"
)

// IdentityKey is the default exchange store key under which the
// authentication middleware publishes the verified identity for downstream
// handlers to read.
const IdentityKey = "plume.auth.identity"

// TokenAuthConfig defines configuration for bearer-token authentication.
type TokenAuthConfig struct {
	// Validator checks a presented token and returns the verified
	// identity. The boolean reports whether the token is valid. Required.
	Validator func(ctx context.Context, token string) (any, bool)

	// Realm is advertised in the WWW-Authenticate header on rejection.
	// Defaults to "Restricted".
	Realm string

	// StoreKey is the exchange store key the verified identity is
	// published under. Defaults to IdentityKey.
	StoreKey string
}

// TokenAuth creates a middleware that requires a valid bearer token. On
// success the verified identity is published into the exchange store and
// the continuation runs; on failure the middleware short-circuits with a
// 401 without ever invoking the wrapped handler.
func TokenAuth(config TokenAuthConfig, logger *zap.Logger) Middleware {
	realm := config.Realm
	if realm == "" {
		realm = "Restricted"
	}
	storeKey := config.StoreKey
	if storeKey == "" {
		storeKey = IdentityKey
	}

	return func(c *common.Context, next common.Next) error {
		authHeader := c.Request().Header.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if authHeader == "" || token == authHeader {
			return reject(c, realm)
		}

		identity, valid := config.Validator(c.Context(), token)
		if !valid {
			logger.Warn("Authentication failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().Path),
				zap.String("remote_addr", c.Request().RemoteAddr),
			)
			return reject(c, realm)
		}

		logger.Debug("Authentication successful",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().Path),
		)

		c.Set(storeKey, identity)
		return next()
	}
}

// reject writes the short-circuit 401 response.
func reject(c *common.Context, realm string) error {
	c.Response().Header().Set("WWW-Authenticate", `Bearer realm="`+realm+`"`)
	return c.Text(http.StatusUnauthorized, "Unauthorized")
}

// Identity reads the verified identity published by TokenAuth under the
// default store key.
func Identity(c *common.Context) (any, bool) {
	return c.Get(IdentityKey)
}
