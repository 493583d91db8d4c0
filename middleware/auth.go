package middleware

import (
	"net/http"

	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
)

// RequireSession 未登录时直接返回 401，展示层据此跳转登录
func RequireSession(session *services.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "not signed in",
				"code":  "session_expired",
			})
			return
		}
		c.Next()
	}
}
