package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tasktracker/internal/metrics"
)

// Prometheus records request count and latency per matched route. The route
// template is used instead of the raw path to keep label cardinality bounded.
func Prometheus() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
