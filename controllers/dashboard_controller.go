package controllers

import (
	"net/http"

	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
)

// DashboardController 首页与个人页
type DashboardController struct {
	Loader *services.Loader
}

func (dc *DashboardController) Dashboard(c *gin.Context) {
	snap := dc.Loader.Load(c.Request.Context(), services.Want{Goals: true, Tasks: true})
	c.JSON(http.StatusOK, gin.H{
		"summary": services.Summarize(snap.Goals, snap.Tasks),
		"errors":  snap.ErrorMessages(),
	})
}

// ProfileStats 积分、等级与达成目标数
func (dc *DashboardController) ProfileStats(c *gin.Context) {
	snap := dc.Loader.Load(c.Request.Context(), services.Want{Goals: true, Tasks: true})
	c.JSON(http.StatusOK, gin.H{
		"stats":  services.ComputeStats(snap.Goals, snap.Tasks),
		"errors": snap.ErrorMessages(),
	})
}
