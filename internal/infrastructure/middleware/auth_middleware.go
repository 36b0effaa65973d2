package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthMiddleware requires a bearer token that resolves to an active
// identity. The identity is available to handlers through IdentityFrom.
func AuthMiddleware(verifier ports.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "authorization header required",
				"reason": domain.ReasonMissingToken,
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "invalid authorization header format",
				"reason": domain.ReasonInvalidToken,
			})
			return
		}

		identity, err := verifier.ResolveIdentity(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "invalid token",
				"reason": domain.ReasonInvalidToken,
			})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}

// ServiceKeyMiddleware admits backend callers presenting the shared
// X-Service-Key. An empty key disables the routes it guards.
func ServiceKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || subtle.ConstantTimeCompare([]byte(c.GetHeader("X-Service-Key")), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "service key required",
				"reason": domain.ReasonInvalidToken,
			})
			return
		}
		c.Next()
	}
}
