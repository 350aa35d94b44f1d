package middleware

import (
	"net/http"
	"strings"

	"skillswap/internal/domain/apperror"
	service "skillswap/internal/interfaces/service"
	"skillswap/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const principalKey = "principal_id"

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		id, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortAuthError(c, err)
			return
		}
		c.Set(principalKey, id)
		c.Next()
	}
}

// OptionalAuth records the principal when a valid token is present and lets anonymous requests through.
// A token that is present but invalid is still rejected.
func OptionalAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		id, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortAuthError(c, err)
			return
		}
		c.Set(principalKey, id)
		c.Next()
	}
}

// PrincipalID returns the authenticated caller, if any.
func PrincipalID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// SetPrincipal stores id as the caller, mostly for tests.
func SetPrincipal(c *gin.Context, id uuid.UUID) {
	c.Set(principalKey, id)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// abortAuthError answers 401 for rejected credentials and 500 when the principal could not be loaded.
func abortAuthError(c *gin.Context, err error) {
	if apperror.KindOf(err) != apperror.KindAuthentication {
		logger.Error("Failed to authenticate request on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error",
			"code":    "internal",
		})
		return
	}
	abortUnauthorized(c, "invalid or expired token")
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="skillswap"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
		"code":    string(apperror.KindAuthentication),
	})
}
