package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/storehub/storehub-auth/internal/domain"
	"github.com/storehub/storehub-auth/internal/service"
)

const (
	identityKey      = "authIdentity"
	accessCookieName = "accessToken"
)

// Auth authenticates requests against the auth service and attaches
// the verified identity to the gin context.
type Auth struct {
	Service *service.AuthService
}

// Authenticate requires a valid access token, taken from the bearer
// header or, failing that, the access token cookie. Missing and invalid
// tokens produce the same response so callers cannot probe which check
// failed.
func (m *Auth) Authenticate(c *gin.Context) {
	identity, ok := m.verifyRequest(c)
	if !ok {
		abortWithAuthError(c, domain.ErrUnauthenticated("Authentication required."))
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

// OptionalAuthenticate performs the same extraction and verification
// but lets the request proceed anonymously when no valid token is
// present.
func (m *Auth) OptionalAuthenticate(c *gin.Context) {
	if identity, ok := m.verifyRequest(c); ok {
		c.Set(identityKey, identity)
	}
	c.Next()
}

// RequireRoles authorizes by set membership over the allowed roles.
// There is no hierarchy: each route enumerates every role it accepts.
// It assumes Authenticate ran earlier in the chain.
func RequireRoles(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			abortWithAuthError(c, domain.ErrForbidden())
			return
		}
		for _, role := range allowed {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		abortWithAuthError(c, domain.ErrForbidden())
	}
}

// CurrentIdentity returns the identity attached by Authenticate or
// OptionalAuthenticate.
func CurrentIdentity(c *gin.Context) (domain.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := value.(domain.Identity)
	return identity, ok
}

func (m *Auth) verifyRequest(c *gin.Context) (domain.Identity, bool) {
	raw := extractToken(c)
	if raw == "" {
		return domain.Identity{}, false
	}
	return m.Service.VerifyAccessToken(raw)
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(accessCookieName); err == nil {
		return cookie
	}
	return ""
}

func abortWithAuthError(c *gin.Context, err *domain.AuthError) {
	c.AbortWithStatusJSON(err.Status, gin.H{"status": "error", "message": err.Message})
}
