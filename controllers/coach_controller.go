package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Gandasoft/polylearner-web/config"
	"github.com/Gandasoft/polylearner-web/models"
	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
)

// CoachController AI 教练对话，会话与历史都保存在后端
type CoachController struct {
	Client *services.APIClient
	Now    func() time.Time
}

type coachSessionRequest struct {
	Title string `json:"title"`
}

type coachChatRequest struct {
	SessionID models.CoachSessionID `json:"session_id" binding:"required"`
	Message   string                `json:"message"`
}

// Sessions 最近的会话在前
func (cc *CoachController) Sessions(c *gin.Context) {
	sessions, err := cc.Client.ListCoachSessions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []models.CoachSession{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// CreateSession 请求体可省略，标题默认带当天日期
func (cc *CoachController) CreateSession(c *gin.Context) {
	var req coachSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		now := time.Now
		if cc.Now != nil {
			now = cc.Now
		}
		title = services.DefaultCoachSessionTitle(now())
	}

	session, err := cc.Client.CreateCoachSession(c.Request.Context(), title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// Chat 发送一条消息并返回教练的回复
func (cc *CoachController) Chat(c *gin.Context) {
	var req coachChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	start := time.Now()
	reply, err := cc.Client.SendCoachMessage(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	config.Logger.Infow("教练回复完成",
		"sessionID", req.SessionID,
		"requestID", c.GetString("requestID"),
		"duration", time.Since(start),
	)
	c.JSON(http.StatusOK, models.CoachReply{Response: reply})
}
