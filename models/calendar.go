package models

// CalendarEvent 日历事件，与任务之间没有存储的外键
type CalendarEvent struct {
	EventID       string  `json:"event_id"`
	TaskTitle     string  `json:"task_title"`
	Category      string  `json:"category"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	DurationHours float64 `json:"duration_hours"`
	Description   string  `json:"description"`
}

type CalendarEventsResponse struct {
	Events  []CalendarEvent `json:"events"`
	Count   int             `json:"count"`
	TimeMin string          `json:"time_min"`
	TimeMax string          `json:"time_max"`
}

// Recommendation AI 建议
type Recommendation struct {
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
	Priority   int    `json:"priority"`
}

type ScheduleBlock struct {
	TaskID        int64   `json:"task_id"`
	TaskTitle     string  `json:"task_title"`
	Category      string  `json:"category"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	DurationHours float64 `json:"duration_hours"`
}

// WeekSchedule 周排期
type WeekSchedule struct {
	WeekStart         string           `json:"week_start"`
	Schedule          []ScheduleBlock  `json:"schedule"`
	Recommendations   []Recommendation `json:"recommendations"`
	TotalHours        float64          `json:"total_hours"`
	CognitiveTaxScore float64          `json:"cognitive_tax_score"`
}
