package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger logs one line per request with method, path, status and latency.
func Logger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if log != nil {
			log.WithFields(logrus.Fields{
				"method":  c.Request.Method,
				"path":    path,
				"status":  c.Writer.Status(),
				"latency": time.Since(start).String(),
			}).Info("request")
		}
	}
}

// Recovery recovers from handler panics and returns a 500 error.
func Recovery(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if log != nil {
					log.WithField("panic", err).Error("handler panic recovered")
				}
				c.AbortWithStatusJSON(500, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
