package controllers

import (
	"net/http"
	"time"

	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
)

type CalendarController struct {
	Loader   *services.Loader
	Location *time.Location
	Now      func() time.Time
}

// Day 某天的日程，date 形如 2006-01-02，缺省为今天。每次请求都重新拉取并重新过滤
func (cc *CalendarController) Day(c *gin.Context) {
	now := time.Now
	if cc.Now != nil {
		now = cc.Now
	}

	day := now().In(cc.Location)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, cc.Location)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "code": "bad_request"})
			return
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, cc.Location)
	end := start.AddDate(0, 0, 1)

	snap := cc.Loader.Load(c.Request.Context(), services.Want{
		Tasks:      true,
		Events:     true,
		EventsFrom: start,
		EventsTo:   end,
	})
	c.JSON(http.StatusOK, gin.H{
		"day":    services.BuildDayView(start, snap.Tasks, snap.Events, cc.Location),
		"errors": snap.ErrorMessages(),
	})
}
