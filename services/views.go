package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Gandasoft/polylearner-web/models"
)

// GoalGrouping 按完整目标列表解析后的分组，每个任务最多出现一次
type GoalGrouping struct {
	ByGoal  map[int64][]models.Task
	Orphans []models.Task
}

func GroupTasksByGoal(goals []models.Goal, tasks []models.Task) GoalGrouping {
	g := GoalGrouping{ByGoal: make(map[int64][]models.Task, len(goals))}
	for _, t := range tasks {
		goal := ResolveGoalForTask(t, goals)
		if goal == nil {
			g.Orphans = append(g.Orphans, t)
			continue
		}
		g.ByGoal[goal.ID] = append(g.ByGoal[goal.ID], t)
	}
	return g
}

// GoalTab 目标列表筛选
type GoalTab string

const (
	GoalTabAll       GoalTab = "all"
	GoalTabActive    GoalTab = "active"
	GoalTabCompleted GoalTab = "completed"
)

type GoalFilter struct {
	Tab   GoalTab
	Query string
}

// GoalView 目标与其实时进度
type GoalView struct {
	Goal     models.Goal `json:"goal"`
	Progress Progress    `json:"progress"`
}

// FilterGoals 进行中：有任务且未全部完成；已完成：进度达到 100
func FilterGoals(goals []models.Goal, tasks []models.Task, f GoalFilter) []GoalView {
	query := normalizeGoalText(f.Query)
	out := make([]GoalView, 0, len(goals))
	for _, goal := range goals {
		if query != "" && !strings.Contains(strings.ToLower(goal.Goal), query) {
			continue
		}
		p := ProgressOf(goal, tasks)
		switch f.Tab {
		case GoalTabActive:
			if p.Total == 0 || p.Percent >= 100 {
				continue
			}
		case GoalTabCompleted:
			if p.Percent < 100 {
				continue
			}
		}
		out = append(out, GoalView{Goal: goal, Progress: p})
	}
	return out
}

// TaskTab 任务列表筛选
type TaskTab string

const (
	TaskTabAll       TaskTab = "all"
	TaskTabPending   TaskTab = "pending"
	TaskTabCompleted TaskTab = "completed"
)

type TaskFilter struct {
	Tab   TaskTab
	Query string
}

// FilterTasks 关键字匹配标题或冗余的目标文本，结果按 SortTaskList 排序
func FilterTasks(tasks []models.Task, f TaskFilter) []models.Task {
	query := normalizeGoalText(f.Query)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Goal), query) {
			continue
		}
		switch f.Tab {
		case TaskTabPending:
			if t.IsCompleted() {
				continue
			}
		case TaskTabCompleted:
			if !t.IsCompleted() {
				continue
			}
		}
		out = append(out, t)
	}
	return SortTaskList(out)
}

// SortTaskList 未完成的在前（按 UpcomingTasks 的顺序），已完成的保持原顺序排在后面
func SortTaskList(tasks []models.Task) []models.Task {
	pending := make([]models.Task, 0, len(tasks))
	done := make([]models.Task, 0)
	for _, t := range tasks {
		if t.IsCompleted() {
			done = append(done, t)
		} else {
			pending = append(pending, t)
		}
	}
	sortPending(pending)
	return append(pending, done...)
}

// PriorityBand 优先级分档，缺省为 low
type PriorityBand string

const (
	PriorityHigh   PriorityBand = "high"
	PriorityMedium PriorityBand = "medium"
	PriorityLow    PriorityBand = "low"
)

func BandOf(priority *int) PriorityBand {
	switch {
	case priority == nil:
		return PriorityLow
	case *priority >= 7:
		return PriorityHigh
	case *priority >= 5:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

const (
	PointsPerTask  = 10
	PointsPerLevel = 150
)

// UserStats 个人页统计
type UserStats struct {
	Level             int `json:"level"`
	Points            int `json:"points"`
	PointsToNextLevel int `json:"points_to_next_level"`
	TotalPoints       int `json:"total_points"`
	TasksCompleted    int `json:"tasks_completed"`
	TotalTasks        int `json:"total_tasks"`
	GoalsAchieved     int `json:"goals_achieved"`
}

func ComputeStats(goals []models.Goal, tasks []models.Task) UserStats {
	completed := 0
	for _, t := range tasks {
		if t.IsCompleted() {
			completed++
		}
	}
	total := completed * PointsPerTask
	inLevel := total % PointsPerLevel

	achieved := 0
	grouping := GroupTasksByGoal(goals, tasks)
	for _, goal := range goals {
		if progressOver(grouping.ByGoal[goal.ID]).IsComplete() {
			achieved++
		}
	}

	return UserStats{
		Level:             total/PointsPerLevel + 1,
		Points:            inLevel,
		PointsToNextLevel: PointsPerLevel - inLevel,
		TotalPoints:       total,
		TasksCompleted:    completed,
		TotalTasks:        len(tasks),
		GoalsAchieved:     achieved,
	}
}

// DashboardSummary 首页汇总
type DashboardSummary struct {
	ActiveGoals    int           `json:"active_goals"`
	CompletedTasks int           `json:"completed_tasks"`
	TotalTasks     int           `json:"total_tasks"`
	CompletionRate int           `json:"completion_rate"`
	Upcoming       []models.Task `json:"upcoming"`
	TopGoals       []GoalView    `json:"top_goals"`
}

const (
	dashboardUpcoming = 3
	dashboardTopGoals = 2
)

func Summarize(goals []models.Goal, tasks []models.Task) DashboardSummary {
	s := DashboardSummary{
		TotalTasks: len(tasks),
		Upcoming:   UpcomingTasks(tasks, dashboardUpcoming),
		TopGoals:   make([]GoalView, 0, dashboardTopGoals),
	}
	for _, t := range tasks {
		if t.IsCompleted() {
			s.CompletedTasks++
		}
	}
	for _, g := range goals {
		if !g.TasksGenerated || len(TasksForGoal(g, tasks)) > 0 {
			s.ActiveGoals++
		}
	}
	if s.ActiveGoals > 0 {
		denom := s.TotalTasks
		if denom < 1 {
			denom = 1
		}
		s.CompletionRate = int(math.Round(float64(s.CompletedTasks) / float64(denom) * 100))
	}
	for i, g := range goals {
		if i == dashboardTopGoals {
			break
		}
		s.TopGoals = append(s.TopGoals, GoalView{Goal: g, Progress: ProgressOf(g, tasks)})
	}
	return s
}

// ScheduledTask 日视图中的任务及其展示时间
type ScheduledTask struct {
	Task     models.Task     `json:"task"`
	Schedule ScheduleDisplay `json:"schedule"`
}

// DayView 某一天的日程：当天开始的日历事件，以及展示时间落在当天的任务
type DayView struct {
	Date   string                 `json:"date"`
	Events []models.CalendarEvent `json:"events"`
	Tasks  []ScheduledTask        `json:"tasks"`
}

func BuildDayView(date time.Time, tasks []models.Task, events []models.CalendarEvent, loc *time.Location) DayView {
	if loc == nil {
		loc = time.Local
	}
	day := date.In(loc)
	v := DayView{
		Date:   day.Format("2006-01-02"),
		Events: EventsOnDate(events, day, loc),
		Tasks:  make([]ScheduledTask, 0),
	}
	for _, t := range tasks {
		sd := MergeSchedule(t, loc)
		if sd.Source == ScheduleUnscheduled {
			continue
		}
		if sameDay(sd.At, day) {
			v.Tasks = append(v.Tasks, ScheduledTask{Task: t, Schedule: sd})
		}
	}
	sort.SliceStable(v.Tasks, func(i, j int) bool {
		return v.Tasks[i].Schedule.At.Before(v.Tasks[j].Schedule.At)
	})
	return v
}

// QuickCompleteReview 勾选完成时使用的默认复盘
func QuickCompleteReview(task models.Task) models.Review {
	return models.Review{
		Notes:      "Completed via task list",
		FocusRate:  7,
		Artifact:   string(task.Artifact),
		DoneOnTime: models.DoneOnTimeYes,
	}
}
