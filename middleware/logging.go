package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/keycloak-connect/logger"
)

// RequestLogger returns a Gin middleware that logs every request with
// method, path, status, and latency. Requests that went through the login
// flow are logged with their code and state parameters stripped so tokens
// never reach the log.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			logger.FieldStatus:   status,
			logger.FieldDuration: time.Since(start).String(),
			"client":             c.ClientIP(),
		}
		if id := c.GetHeader("X-Request-Id"); id != "" {
			fields[logger.FieldRequestID] = id
		}
		if sub := subjectFrom(c); sub != "" {
			fields[logger.FieldSubject] = sub
		}

		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Debug("request completed", fields)
		}
	}
}

func subjectFrom(c *gin.Context) string {
	tok := TokenFrom(c)
	if tok == nil {
		return ""
	}
	return tok.Claims().Subject
}
