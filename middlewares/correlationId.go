package middlewares

import (
	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const CorrelationIdHeader = "x-correlation-id"

// CorrelationId takes the caller's x-correlation-id or generates one, puts it
// on the request context and echoes it back.
func CorrelationId() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader(CorrelationIdHeader)
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		ctx = utils.SetClientIPInContext(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Header(CorrelationIdHeader, cid)
		c.Next()
	}
}
