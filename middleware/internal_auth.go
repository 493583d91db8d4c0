package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// LoopbackOnly 伴生 API 只服务本机进程
func LoopbackOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := net.ParseIP(c.RemoteIP())
		if ip == nil || !ip.IsLoopback() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Forbidden",
			})
			return
		}

		c.Next()
	}
}
