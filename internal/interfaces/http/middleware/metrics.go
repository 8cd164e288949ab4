package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/prometheus"
)

// Metrics records per-request counters and latency. Route templates
// (c.FullPath) are used as the path label so IDs do not explode cardinality.
func Metrics(metrics *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			// Unmatched route; one bucket is enough.
			path = "unmatched"
		}
		method := c.Request.Method

		metrics.HTTPActiveRequests.WithLabelValues(method, path).Inc()
		start := time.Now()

		c.Next()

		metrics.HTTPActiveRequests.WithLabelValues(method, path).Dec()
		prometheus.RecordHTTPRequest(metrics, method, path, c.Writer.Status(), time.Since(start))
	}
}
