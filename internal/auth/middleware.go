package auth

import (
	"strings"
	"teamchat/backend/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Verifier is the part of TokenVerifier the middleware needs.
type Verifier interface {
	Verify(token string, opts ...VerifyOption) (Identity, error)
}

const ginIdentityKey = "auth.identity"

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireIdentity verifies the bearer token and attaches the identity to both
// the gin context and the request context, so CurrentUser works downstream.
func RequireIdentity(v Verifier, opts ...VerifyOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := v.Verify(BearerToken(c), opts...)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(ginIdentityKey, id)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// RequireCapability runs the Authorizer for the resource picked from the request.
// It must run after RequireIdentity.
func RequireCapability(az Authorizer, resource func(*gin.Context) Resource, action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			abortWithError(c, apperr.Authentication("Missing access token", nil))
			return
		}
		if err := az.Authorize(c.Request.Context(), id, resource(c), action); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity set by RequireIdentity.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ginIdentityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func abortWithError(c *gin.Context, err error) {
	status, title := apperr.StatusCode(err)
	c.AbortWithStatusJSON(status, gin.H{"statusCode": status, "title": title})
}
