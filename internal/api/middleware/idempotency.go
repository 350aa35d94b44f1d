package middleware

import (
	"net/http"

	"skillswap/internal/domain/apperror"

	"github.com/gin-gonic/gin"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	idempotencyKey       = "idempotency_key"
	maxIdempotencyKeyLen = 128
)

func IdempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if len(key) > maxIdempotencyKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Idempotency-Key must be at most 128 characters",
				"code":    string(apperror.KindValidation),
			})
			return
		}
		c.Set(idempotencyKey, key)
		c.Next()
	}
}

// IdempotencyKey returns the key captured by IdempotencyMiddleware, or "".
func IdempotencyKey(c *gin.Context) string {
	return c.GetString(idempotencyKey)
}
