package controllers

import (
	"net/http"

	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
)

// AuthController 会话相关接口
type AuthController struct {
	Session *services.Session
	Flows   *services.FlowRegistry
}

// LoginRequest 外部身份提供方给出的令牌
type LoginRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login 换取后端会话
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := ac.Session.SignIn(c.Request.Context(), req.AccessToken, req.ExpiresIn)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout 只清除本地会话
func (ac *AuthController) Logout(c *gin.Context) {
	ac.Session.SignOut(c.Request.Context())
	ac.Flows.AbandonAll()
	c.Status(http.StatusNoContent)
}

// Me 当前用户；refresh=true 时重新拉取额度
func (ac *AuthController) Me(c *gin.Context) {
	if c.Query("refresh") == "true" {
		if err := ac.Session.Refresh(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
	}

	user := ac.Session.User()
	if user == nil {
		respondError(c, services.ErrSessionExpired)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":             user,
		"tokens_remaining": user.TokensRemaining(),
	})
}
