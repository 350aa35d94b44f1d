package middleware

import (
	"time"

	"skillswap/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records status and latency per matched route.
func Metrics(collector metrics.MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		collector.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
