package middlewares

import (
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorLogger logs the errors handlers attached with c.Error, once per request.
func ErrorLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		fields := logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		}
		if cid, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
			fields["correlation_id"] = cid
		}
		if ip, ok := utils.GetClientIPFromContext(c.Request.Context()); ok {
			fields["client_ip"] = ip
		}
		logger.WithFields(fields).Error(c.Errors.String())
	}
}
