package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"med_bridge/internal/metrics"
)

// Metrics 記錄 Prometheus 指標；路徑用路由樣板以避免高基數
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}
