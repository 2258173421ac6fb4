package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"syscall"

	"hydrogen-admin/internal/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500. A client that went away while
// a file or event stream was being written is not an error.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(error); ok && clientGone(err) {
			c.Abort()
			return
		}

		if gin.IsDebugging() {
			log.Error("panic in %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, recovered, debug.Stack())
		} else {
			log.Error("panic in %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

func clientGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
