package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Gandasoft/polylearner-web/config"
	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
)

// respondError 把领域错误映射为 HTTP 状态码。失败的变更不做部分应用，展示层保留原状态
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		config.Logger.Errorw("请求处理失败", "path", c.FullPath(), "error", err)
	}
	c.Error(err)
	body := gin.H{"error": err.Error(), "code": code}
	if rf, ok := services.IsRequestFailed(err); ok {
		body["upstream_status"] = rf.Status
		body["endpoint"] = rf.Endpoint
	}
	c.JSON(status, body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrSessionExpired):
		return http.StatusUnauthorized, "session_expired"
	case errors.Is(err, services.ErrAuthExchangeFailed):
		return http.StatusUnauthorized, "auth_exchange_failed"
	case errors.Is(err, services.ErrSuggestionUnavailable):
		return http.StatusServiceUnavailable, "suggestion_unavailable"
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, services.ErrFlowBusy):
		return http.StatusConflict, "flow_busy"
	case errors.Is(err, services.ErrFlowClosed):
		return http.StatusGone, "flow_closed"
	case errors.Is(err, services.ErrEmptyGoal):
		return http.StatusBadRequest, "empty_goal"
	case errors.Is(err, services.ErrUnknownSuggestion):
		return http.StatusBadRequest, "unknown_suggestion"
	case errors.Is(err, services.ErrNoSelection):
		return http.StatusBadRequest, "no_selection"
	case errors.Is(err, services.ErrEmptyMessage):
		return http.StatusBadRequest, "empty_message"
	}
	if _, ok := services.IsRequestFailed(err); ok {
		return http.StatusBadGateway, "request_failed"
	}
	return http.StatusInternalServerError, "internal"
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "bad_request"})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "code": "bad_request"})
		return 0, false
	}
	return id, true
}
