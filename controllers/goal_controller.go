package controllers

import (
	"net/http"
	"strings"

	"github.com/Gandasoft/polylearner-web/models"
	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
)

type GoalController struct {
	Client *services.APIClient
	Loader *services.Loader
}

// List 支持 tab=all|active|completed 与 q 关键字
func (gc *GoalController) List(c *gin.Context) {
	tab := services.GoalTab(c.DefaultQuery("tab", string(services.GoalTabAll)))
	switch tab {
	case services.GoalTabAll, services.GoalTabActive, services.GoalTabCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tab", "code": "bad_request"})
		return
	}

	snap := gc.Loader.Load(c.Request.Context(), services.Want{Goals: true, Tasks: true})
	c.JSON(http.StatusOK, gin.H{
		"goals":  services.FilterGoals(snap.Goals, snap.Tasks, services.GoalFilter{Tab: tab, Query: c.Query("q")}),
		"errors": snap.ErrorMessages(),
	})
}

func (gc *GoalController) Create(c *gin.Context) {
	var req models.GoalCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Goal = strings.TrimSpace(req.Goal)
	if req.Goal == "" {
		respondError(c, services.ErrEmptyGoal)
		return
	}

	goal, err := gc.Client.CreateGoal(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

// Detail 目标详情，任务按统一解析规则从实时任务列表中得出，不看 task_ids
func (gc *GoalController) Detail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	snap := gc.Loader.Load(c.Request.Context(), services.Want{Goals: true, Tasks: true})
	if err, failed := snap.Errors[services.CollectionGoals]; failed {
		respondError(c, err)
		return
	}

	var goal *models.Goal
	for i := range snap.Goals {
		if snap.Goals[i].ID == id {
			goal = &snap.Goals[i]
			break
		}
	}
	if goal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found", "code": "not_found"})
		return
	}

	tasks := services.TasksForGoal(*goal, snap.Tasks)
	c.JSON(http.StatusOK, gin.H{
		"goal":     goal,
		"tasks":    services.SortTaskList(tasks),
		"progress": services.ProgressOf(*goal, snap.Tasks),
		"errors":   snap.ErrorMessages(),
	})
}

func (gc *GoalController) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	msg, err := gc.Client.DeleteGoal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
