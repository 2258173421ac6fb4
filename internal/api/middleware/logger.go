package middleware

import (
	"time"

	"hydrogen-admin/internal/logger"

	"github.com/gin-gonic/gin"
)

// Logger writes one line per request. Event streams are logged when they end.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		line := "%s %s %d %s %s"
		args := []interface{}{c.Request.Method, path, status, time.Since(start), c.ClientIP()}
		switch {
		case status >= 500:
			log.Error(line, args...)
		case status >= 400:
			log.Warn(line, args...)
		default:
			log.Info(line, args...)
		}
	}
}
