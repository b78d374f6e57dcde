package server

import (
	"net/http"
	"time"

	"coachslot/internal/auth"
	"coachslot/internal/logger"

	"github.com/gin-gonic/gin"
)

// Probe endpoints are scraped continuously and stay out of the request log.
var quietPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// RequestLoggingMiddleware writes one structured line per request. Server
// errors log at error level, client errors at warn.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if quietPaths[path] {
			return
		}
		if raw != "" {
			path = path + "?" + raw
		}

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id, ok := auth.GetUserID(c); ok {
			kv = append(kv, "user_id", id)
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", kv...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", kv...)
		default:
			logger.Info("HTTP request", kv...)
		}
	}
}
