package controllers

import (
	"net/http"

	"github.com/Gandasoft/polylearner-web/services"
	"github.com/gin-gonic/gin"
)

// OnboardingController 把引导状态机暴露给展示层，每个流程按 ID 访问
type OnboardingController struct {
	Flows *services.FlowRegistry
}

type startRequest struct {
	Goal   string `json:"goal"`
	GoalID int64  `json:"goal_id"`
}

type validateRequest struct {
	Goal string `json:"goal"`
}

type toggleRequest struct {
	ID string `json:"id" binding:"required"`
}

type refineRequest struct {
	Index *int `json:"index" binding:"required"`
}

// Start 新建流程，可选带入目标文本与 goal_id
func (oc *OnboardingController) Start(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	var opts []services.FlowOption
	if req.Goal != "" || req.GoalID != 0 {
		opts = append(opts, services.WithCarryOver(req.Goal, req.GoalID))
	}
	flow := oc.Flows.Start(opts...)
	c.JSON(http.StatusCreated, flow.Snapshot())
}

func (oc *OnboardingController) flow(c *gin.Context) (*services.Flow, bool) {
	flow, ok := oc.Flows.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "onboarding flow not found", "code": "not_found"})
		return nil, false
	}
	return flow, true
}

func (oc *OnboardingController) Get(c *gin.Context) {
	if flow, ok := oc.flow(c); ok {
		c.JSON(http.StatusOK, flow.Snapshot())
	}
}

// step 执行一个无请求体的状态迁移
func (oc *OnboardingController) step(fn func(*services.Flow) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		flow, ok := oc.flow(c)
		if !ok {
			return
		}
		if err := fn(flow); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, flow.Snapshot())
	}
}

func (oc *OnboardingController) Proceed() gin.HandlerFunc {
	return oc.step((*services.Flow).Proceed)
}

func (oc *OnboardingController) Edit() gin.HandlerFunc {
	return oc.step((*services.Flow).EditGoal)
}

func (oc *OnboardingController) Back() gin.HandlerFunc {
	return oc.step((*services.Flow).Back)
}

func (oc *OnboardingController) SelectAll() gin.HandlerFunc {
	return oc.step((*services.Flow).SelectAll)
}

func (oc *OnboardingController) ClearSelection() gin.HandlerFunc {
	return oc.step((*services.Flow).ClearSelection)
}

// Validate 降级结果同样返回 200，validation.fallback 标记
func (oc *OnboardingController) Validate(c *gin.Context) {
	flow, ok := oc.flow(c)
	if !ok {
		return
	}
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if _, err := flow.ValidateGoal(c.Request.Context(), req.Goal); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flow.Snapshot())
}

func (oc *OnboardingController) Refine(c *gin.Context) {
	flow, ok := oc.flow(c)
	if !ok {
		return
	}
	var req refineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := flow.ChooseRefinedVersion(*req.Index); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flow.Snapshot())
}

func (oc *OnboardingController) Suggest(c *gin.Context) {
	flow, ok := oc.flow(c)
	if !ok {
		return
	}
	if _, err := flow.GenerateTasks(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flow.Snapshot())
}

func (oc *OnboardingController) Toggle(c *gin.Context) {
	flow, ok := oc.flow(c)
	if !ok {
		return
	}
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := flow.Toggle(req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flow.Snapshot())
}

// Create 日历权限问题与请求失败区分开：前者 200 带 warning，提示重新授权日历而不是重试
func (oc *OnboardingController) Create(c *gin.Context) {
	flow, ok := oc.flow(c)
	if !ok {
		return
	}

	outcome, err := flow.MaterializeTasks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"flow": flow.Snapshot(), "outcome": outcome}
	if outcome.Warning != nil {
		resp["warning"] = outcome.Warning.Error()
		resp["warning_code"] = "calendar_permission_missing"
	}
	c.JSON(http.StatusOK, resp)
}

func (oc *OnboardingController) Abandon(c *gin.Context) {
	if !oc.Flows.Abandon(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "onboarding flow not found", "code": "not_found"})
		return
	}
	c.Status(http.StatusNoContent)
}
