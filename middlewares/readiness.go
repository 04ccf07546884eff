package middlewares

import (
	"net/http"

	"bitbucket.org/mmdatafocus/quotes_backend/config"
	"github.com/gin-gonic/gin"
)

// Readiness answers 503 on app endpoints until ready reports true.
// /healthz and /status always pass so probes work during startup.
func Readiness(ready func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/healthz", "/status":
			c.Next()
			return
		}
		if !ready() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "service not ready"})
			return
		}
		c.Next()
	}
}

// DatabaseReady is the default readiness check. Redis is optional.
func DatabaseReady() bool {
	return config.GetDB() != nil
}
