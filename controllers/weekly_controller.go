package controllers

import (
	"net/http"

	"github.com/Gandasoft/polylearner-web/models"
	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
)

// PlanningController 周目标、周排期与 AI 建议，只做转发
type PlanningController struct {
	Client     *services.APIClient
	Loader     *services.Loader
	DailyStart int
	DailyEnd   int
}

func (pc *PlanningController) ListWeeklyGoals(c *gin.Context) {
	snap := pc.Loader.Load(c.Request.Context(), services.Want{WeeklyGoals: true})
	if err, failed := snap.Errors[services.CollectionWeeklyGoals]; failed && !snap.Partial(services.CollectionWeeklyGoals) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"weekly_goals": snap.WeeklyGoals, "errors": snap.ErrorMessages()})
}

func (pc *PlanningController) CreateWeeklyGoal(c *gin.Context) {
	var req models.WeeklyGoalCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	goal, err := pc.Client.CreateWeeklyGoal(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (pc *PlanningController) AddWeeklyReview(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var review models.Review
	if err := c.ShouldBindJSON(&review); err != nil {
		badRequest(c, err)
		return
	}

	if err := pc.Client.AddWeeklyReview(c.Request.Context(), id, review); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Schedule week_start 可选，每日时间窗使用配置
func (pc *PlanningController) Schedule(c *gin.Context) {
	schedule, err := pc.Client.GetSchedule(c.Request.Context(), c.Query("week_start"), pc.DailyStart, pc.DailyEnd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (pc *PlanningController) Recommendations(c *gin.Context) {
	recs, err := pc.Client.GetRecommendations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}
