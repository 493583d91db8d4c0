package models

// Task 任务模型。是否完成只看 Review 是否存在
type Task struct {
	ID                 int64               `json:"id"`
	Title              string              `json:"title"`
	Category           Category            `json:"category"`
	TimeHours          float64             `json:"time_hours"`
	GoalID             int64               `json:"goal_id,omitempty"`
	Goal               string              `json:"goal,omitempty"` // 冗余的目标文本，旧数据只能靠它关联
	Artifact           Artifact            `json:"artifact"`
	Priority           *int                `json:"priority,omitempty"`
	DueDate            string              `json:"due_date,omitempty"`
	Review             *Review             `json:"review,omitempty"`
	CalendarScheduling *CalendarScheduling `json:"calendar_scheduling,omitempty"`
}

// HasGoalID 0 视为未设置
func (t *Task) HasGoalID() bool {
	return t.GoalID != 0
}

func (t *Task) IsCompleted() bool {
	return t.Review != nil
}

// EffectivePriority 缺省优先级为 5
func (t *Task) EffectivePriority() int {
	if t.Priority == nil {
		return DefaultPriority
	}
	return *t.Priority
}

// SchedulingError 返回自动排期失败原因，没有则为空
func (t *Task) SchedulingError() string {
	if t.CalendarScheduling == nil {
		return ""
	}
	return t.CalendarScheduling.Error
}

const DefaultPriority = 5

// Review 任务复盘，存在即表示任务完成。
// Artifact 是自由文本，不限于任务的产出物类型
type Review struct {
	Notes      string     `json:"notes"`
	FocusRate  float64    `json:"focus_rate"`
	Artifact   string     `json:"artifact"`
	DoneOnTime DoneOnTime `json:"done_on_time"`
}

// CalendarScheduling 创建任务时后端自动排期的结果
type CalendarScheduling struct {
	Scheduled []ScheduledSlot `json:"scheduled,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type ScheduledSlot struct {
	EventID   string `json:"event_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// TaskCreate 创建任务请求
type TaskCreate struct {
	Title     string   `json:"title" binding:"required"`
	Category  Category `json:"category" binding:"required"`
	TimeHours float64  `json:"time_hours" binding:"required,gt=0"`
	GoalID    int64    `json:"goal_id" binding:"required"`
	Artifact  Artifact `json:"artifact" binding:"required"`
	Review    *Review  `json:"review,omitempty"`
	Priority  *int     `json:"priority,omitempty" binding:"omitempty,min=1,max=10"`
	DueDate   string   `json:"due_date,omitempty"`
}

// TaskReviewRequest 复盘请求体，task_id 与复盘字段平铺
type TaskReviewRequest struct {
	TaskID int64 `json:"task_id"`
	Review
}
