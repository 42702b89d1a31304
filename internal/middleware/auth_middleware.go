package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	pkgauth "github.com/dyilmaz/schoolhub/internal/pkg/auth"
)

// PrincipalKey is the gin context key holding the resolved principal.
const PrincipalKey = "principal"

// AuthMiddleware validates bearer tokens and resolves the principal every
// authenticated request runs as.
type AuthMiddleware struct {
	jwtService *pkgauth.JWTService
	resolver   *auth.Resolver
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *pkgauth.JWTService, resolver *auth.Resolver) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService, resolver: resolver}
}

// JWTAuth validates the Authorization header, resolves the principal and
// stores it on the context. A valid token whose subject no longer exists
// or is disabled is rejected the same way as a bad token.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// Websocket clients can't set headers; accept the token as a
			// query parameter there.
			if queryToken := c.Query("token"); queryToken != "" {
				authHeader = "Bearer " + queryToken
			}
		}
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("Authentication required"))
			return
		}

		tokenString, err := pkgauth.ExtractBearerToken(authHeader)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("Invalid token format"))
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, pkgauth.ErrExpiredToken) {
				message = "Token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail(message))
			return
		}

		principal, err := m.resolver.Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("Account not available"))
			return
		}

		c.Set("userID", principal.ID)
		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// Principal extracts the resolved principal from the context. Handlers
// behind JWTAuth can rely on it being present.
func Principal(c *gin.Context) *auth.Principal {
	value, ok := c.Get(PrincipalKey)
	if !ok {
		return nil
	}
	p, _ := value.(*auth.Principal)
	return p
}
