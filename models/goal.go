package models

// Goal 目标模型，任务的归属方
type Goal struct {
	ID                 int64   `json:"id"`
	UserID             int64   `json:"user_id"`
	Goal               string  `json:"goal"`
	Timeframe          string  `json:"timeframe,omitempty"`
	Category           string  `json:"category,omitempty"`
	IsValidated        bool    `json:"is_validated"`
	ValidationFeedback string  `json:"validation_feedback,omitempty"`
	CreatedAt          string  `json:"created_at"`
	TasksGenerated     bool    `json:"tasks_generated"`
	TaskIDs            []int64 `json:"task_ids"` // 仅供参考，可能过期，关联关系以实时解析为准
}

// GoalCreate 创建目标请求
type GoalCreate struct {
	Goal      string `json:"goal" binding:"required"`
	Timeframe string `json:"timeframe,omitempty"`
	Category  string `json:"category,omitempty"`
}

// WeeklyGoal 周目标
type WeeklyGoal struct {
	ID           int64   `json:"id"`
	WeekNumber   int     `json:"week_number"`
	Goal         string  `json:"goal"`
	TaskIDs      []int64 `json:"task_ids"`
	WeeklyReview *Review `json:"weekly_review,omitempty"`
}

type WeeklyGoalCreate struct {
	WeekNumber int    `json:"week_number" binding:"required,min=1,max=53"`
	Goal       string `json:"goal" binding:"required"`
}

// WeeklyReviewRequest 周复盘请求体，goal_id 与复盘字段平铺
type WeeklyReviewRequest struct {
	GoalID int64 `json:"goal_id"`
	Review
}
