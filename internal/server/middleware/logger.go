package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"docsafe.com.br/affiliate-service/internal/monitoring"
)

// RequestLogger logs every request with structured fields and feeds the
// Prometheus request counters. Durations over a second are logged at Warn.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		monitoring.HTTPRequestsTotal.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		monitoring.ResponseTimeHistogram.
			WithLabelValues(c.Request.Method, path).Observe(duration.Seconds())

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"status":   status,
			"duration": duration.String(),
			"ip":       c.ClientIP(),
		})
		switch {
		case status >= 500:
			entry.Error("request")
		case duration > time.Second:
			entry.Warn("slow request")
		default:
			entry.Debug("request")
		}
	}
}
