package models

import (
	"encoding/json"
	"fmt"
)

// GoalSubmission 校验与建议接口的请求体，带 goal_id 时后端更新而不是新建
type GoalSubmission struct {
	Goal   string `json:"goal"`
	GoalID int64  `json:"goal_id,omitempty"`
}

// ValidationDetails SMART 五项
type ValidationDetails struct {
	Specific   bool `json:"specific"`
	Measurable bool `json:"measurable"`
	Achievable bool `json:"achievable"`
	Relevant   bool `json:"relevant"`
	TimeBound  bool `json:"time_bound"`
}

type RefinedVersion struct {
	Goal        string `json:"goal"`
	Improvement string `json:"improvement"`
	WhyBetter   string `json:"why_better"`
}

// ValidationResult 目标校验结果。GoalID 为 0 表示服务端尚无对应目标
type ValidationResult struct {
	GoalID            int64             `json:"goal_id"`
	IsValid           bool              `json:"is_valid"`
	ValidationDetails ValidationDetails `json:"validation_details"`
	Feedback          string            `json:"feedback"`
	Suggestions       []string          `json:"suggestions"`
	RefinedVersions   []RefinedVersion  `json:"refined_versions"`
	Fallback          bool              `json:"fallback"`
}

// SuggestedTask AI 建议的任务草稿，只存在于内存中的建议批次
type SuggestedTask struct {
	Title        string      `json:"title"`
	Category     Category    `json:"category"`
	TimeHours    float64     `json:"time_hours"`
	Goal         string      `json:"goal"`
	Artifact     Artifact    `json:"artifact"`
	Priority     int         `json:"priority"`
	EnergyLevel  EnergyLevel `json:"energy_level"`
	BatchGroup   string      `json:"batch_group"`
	Dependencies []string    `json:"dependencies"`
}

type EnergyAllocation struct {
	HighEnergyHours   float64 `json:"high_energy_hours"`
	MediumEnergyHours float64 `json:"medium_energy_hours"`
	LowEnergyHours    float64 `json:"low_energy_hours"`
}

type TaskSuggestionResponse struct {
	GoalID                  int64            `json:"goal_id"`
	SuggestedTasks          []SuggestedTask  `json:"suggested_tasks"`
	SchedulingStrategy      string           `json:"scheduling_strategy"`
	EstimatedTotalHours     float64          `json:"estimated_total_hours"`
	EnergyAllocation        EnergyAllocation `json:"energy_allocation"`
	BatchingRecommendations string           `json:"batching_recommendations,omitempty"`
	WeeklyBreakdown         string           `json:"weekly_breakdown,omitempty"`
}

type CreateFromSuggestionsRequest struct {
	SuggestedTasks []SuggestedTask `json:"suggested_tasks"`
	GoalID         int64           `json:"goal_id"`
}

// CreateFromSuggestionsResponse 兼容两种返回：对象或已创建任务数组
type CreateFromSuggestionsResponse struct {
	CreatedTaskIDs []int64 `json:"created_task_ids"`
	Count          int     `json:"count"`
	Message        string  `json:"message"`
	Tasks          []Task  `json:"tasks,omitempty"`
}

func (r *CreateFromSuggestionsResponse) UnmarshalJSON(b []byte) error {
	var tasks []Task
	if err := json.Unmarshal(b, &tasks); err == nil {
		*r = CreateFromSuggestionsResponse{Tasks: tasks, Count: len(tasks)}
		for _, t := range tasks {
			r.CreatedTaskIDs = append(r.CreatedTaskIDs, t.ID)
		}
		return nil
	}

	type plain CreateFromSuggestionsResponse
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("decode create-from-suggestions response: %w", err)
	}
	*r = CreateFromSuggestionsResponse(p)
	if r.Count == 0 {
		r.Count = len(r.CreatedTaskIDs)
		if r.Count == 0 {
			r.Count = len(r.Tasks)
		}
	}
	return nil
}
