// 日志中间件
package middleware

import (
	"time"

	"github.com/Gandasoft/polylearner-web/config"
	"github.com/Gandasoft/polylearner-web/utils"
	"github.com/gin-gonic/gin"
)

const RequestIDHeader = "X-Request-ID"

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = utils.GenerateID()
		}
		c.Set("requestID", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		latency := time.Since(start)
		config.Logger.Infow("request",
			"requestID", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", latency.String(),
			"errors", c.Errors.ByType(gin.ErrorTypeAny).String(),
		)
	}
}
