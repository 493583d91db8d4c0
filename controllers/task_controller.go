package controllers

import (
	"net/http"
	"time"

	"github.com/Gandasoft/polylearner-web/config"
	"github.com/Gandasoft/polylearner-web/models"
	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
)

type TaskController struct {
	Client   *services.APIClient
	Loader   *services.Loader
	Location *time.Location
}

// TaskView 列表中的任务，附带解析出的目标与展示时间
type TaskView struct {
	Task     models.Task              `json:"task"`
	GoalID   int64                    `json:"resolved_goal_id,omitempty"`
	GoalText string                   `json:"resolved_goal,omitempty"`
	Schedule services.ScheduleDisplay `json:"schedule"`
	Band     services.PriorityBand    `json:"priority_band"`
}

// List 支持 tab=all|pending|completed 与 q 关键字
func (tc *TaskController) List(c *gin.Context) {
	tab := services.TaskTab(c.DefaultQuery("tab", string(services.TaskTabAll)))
	switch tab {
	case services.TaskTabAll, services.TaskTabPending, services.TaskTabCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tab", "code": "bad_request"})
		return
	}

	snap := tc.Loader.Load(c.Request.Context(), services.Want{Goals: true, Tasks: true})
	filtered := services.FilterTasks(snap.Tasks, services.TaskFilter{Tab: tab, Query: c.Query("q")})

	views := make([]TaskView, 0, len(filtered))
	pending := 0
	for _, t := range filtered {
		v := TaskView{
			Task:     t,
			Schedule: services.MergeSchedule(t, tc.Location),
			Band:     services.BandOf(t.Priority),
		}
		if g := services.ResolveGoalForTask(t, snap.Goals); g != nil {
			v.GoalID = g.ID
			v.GoalText = g.Goal
		}
		views = append(views, v)
	}
	for _, t := range snap.Tasks {
		if !t.IsCompleted() {
			pending++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":           views,
		"pending_count":   pending,
		"completed_count": len(snap.Tasks) - pending,
		"errors":          snap.ErrorMessages(),
	})
}

// Create 默认开启自动排期；排期失败时任务已存在，只返回警告
func (tc *TaskController) Create(c *gin.Context) {
	var req models.TaskCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	autoSchedule := c.DefaultQuery("auto_schedule", "true") == "true"
	task, err := tc.Client.CreateTask(c.Request.Context(), req, autoSchedule)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"task": task}
	if msg := task.SchedulingError(); msg != "" {
		config.Logger.Warnw("任务已创建但未能排进日历", "taskID", task.ID, "error", msg)
		resp["warning"] = services.ErrCalendarPermissionMissing.Error()
		resp["warning_code"] = "calendar_permission_missing"
	}
	c.JSON(http.StatusCreated, resp)
}

// Complete 勾选完成，已完成的任务不能取消完成，重复勾选不做任何事
func (tc *TaskController) Complete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	tasks, err := tc.Client.ListTasks(c.Request.Context())
	if _, partial := services.IsPartialDecode(err); err != nil && !partial {
		respondError(c, err)
		return
	}

	var task *models.Task
	for i := range tasks {
		if tasks[i].ID == id {
			task = &tasks[i]
			break
		}
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found", "code": "not_found"})
		return
	}
	if task.IsCompleted() {
		c.JSON(http.StatusOK, gin.H{"completed": true, "changed": false})
		return
	}

	review := services.QuickCompleteReview(*task)
	if err := tc.Client.AddTaskReview(c.Request.Context(), task.ID, review); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true, "changed": true, "review": review})
}
