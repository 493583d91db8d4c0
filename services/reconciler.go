package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Gandasoft/polylearner-web/models"
)

// 目标、任务、日历三个集合独立拉取，这里在读取时推导它们的关系。
// 所有函数都不修改入参。

// ResolveGoalForTask 任务有 goal_id 时只按 id 匹配；否则按去空白、忽略大小写的目标文本匹配第一个目标。
// 找不到返回 nil
func ResolveGoalForTask(task models.Task, goals []models.Goal) *models.Goal {
	if task.HasGoalID() {
		for i := range goals {
			if goals[i].ID == task.GoalID {
				return &goals[i]
			}
		}
		// 目标已被删除时不能退回到文本匹配，否则会挂到错误的目标上
		return nil
	}

	text := normalizeGoalText(task.Goal)
	if text == "" {
		return nil
	}
	for i := range goals {
		if normalizeGoalText(goals[i].Goal) == text {
			return &goals[i]
		}
	}
	return nil
}

func normalizeGoalText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TasksForGoal 反向套用同一解析规则
func TasksForGoal(goal models.Goal, tasks []models.Task) []models.Task {
	single := []models.Goal{goal}
	out := make([]models.Task, 0)
	for _, t := range tasks {
		if ResolveGoalForTask(t, single) != nil {
			out = append(out, t)
		}
	}
	return out
}

// Progress 目标进度，每次从当前输入重新计算，不缓存
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

func (p Progress) IsComplete() bool {
	return p.Total > 0 && p.Completed == p.Total
}

func ProgressOf(goal models.Goal, tasks []models.Task) Progress {
	return progressOver(TasksForGoal(goal, tasks))
}

func progressOver(tasks []models.Task) Progress {
	p := Progress{Total: len(tasks)}
	for _, t := range tasks {
		if t.IsCompleted() {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	return p
}

// GoalProgress 百分比，没有任务时为 0
func GoalProgress(goal models.Goal, tasks []models.Task) int {
	return ProgressOf(goal, tasks).Percent
}

// UpcomingTasks 未复盘的任务，按优先级降序（缺省 5），同优先级按截止日期升序，无截止日期的排在后面。
// limit <= 0 表示不截断
func UpcomingTasks(tasks []models.Task, limit int) []models.Task {
	pending := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsCompleted() {
			pending = append(pending, t)
		}
	}
	sortPending(pending)
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending
}

func sortPending(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		pi, pj := tasks[i].EffectivePriority(), tasks[j].EffectivePriority()
		if pi != pj {
			return pi > pj
		}
		di, iok := parseTimestamp(tasks[i].DueDate, time.UTC)
		dj, jok := parseTimestamp(tasks[j].DueDate, time.UTC)
		switch {
		case iok && jok:
			return di.Before(dj)
		case iok:
			return true
		default:
			return false
		}
	})
}

// ScheduleSource 任务展示时间的来源
type ScheduleSource string

const (
	ScheduleCalendar    ScheduleSource = "calendar"
	ScheduleDueDate     ScheduleSource = "due_date"
	ScheduleUnscheduled ScheduleSource = "unscheduled"
)

// ScheduleDisplay 任务的展示时间。DateOnly 表示只有日期，没有具体时刻
type ScheduleDisplay struct {
	Source   ScheduleSource `json:"source"`
	At       time.Time      `json:"at"`
	DateOnly bool           `json:"date_only"`
}

// MergeSchedule 优先使用创建时后端自动排期的第一个时段，其次截止日期，否则未排期。
// 这里只读任务本身，不尝试与独立拉取的日历事件对应
func MergeSchedule(task models.Task, loc *time.Location) ScheduleDisplay {
	if loc == nil {
		loc = time.Local
	}
	if cs := task.CalendarScheduling; cs != nil && len(cs.Scheduled) > 0 {
		if at, ok := parseTimestamp(cs.Scheduled[0].StartTime, loc); ok {
			return ScheduleDisplay{Source: ScheduleCalendar, At: at.In(loc)}
		}
	}
	if task.DueDate != "" {
		if at, ok := parseTimestamp(task.DueDate, loc); ok {
			return ScheduleDisplay{Source: ScheduleDueDate, At: at.In(loc), DateOnly: isDateOnly(task.DueDate)}
		}
	}
	return ScheduleDisplay{Source: ScheduleUnscheduled}
}

// EventsOnDate 事件开始时间在 loc 下的日历日期等于 date 的日期
func EventsOnDate(events []models.CalendarEvent, date time.Time, loc *time.Location) []models.CalendarEvent {
	if loc == nil {
		loc = time.Local
	}
	out := make([]models.CalendarEvent, 0)
	for _, e := range events {
		start, ok := parseTimestamp(e.StartTime, loc)
		if !ok {
			continue
		}
		if sameDay(start.In(loc), date.In(loc)) {
			out = append(out, e)
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTimestamp 没有时区信息的时间按 loc 解释
func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDateOnly(s string) bool {
	_, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	return err == nil
}
