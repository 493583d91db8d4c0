package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Gandasoft/polylearner-web/models"
	"github.com/Gandasoft/polylearner-web/services"
	"github.com/charmbracelet/lipgloss"
)

var (
	Title   = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Muted   = lipgloss.NewStyle().Foreground(Secondary)
	Warning = lipgloss.NewStyle().Foreground(Orange).Bold(true)
	Danger  = lipgloss.NewStyle().Foreground(Red).Bold(true)
	Success = lipgloss.NewStyle().Foreground(Green)
)

func bandColor(b services.PriorityBand) lipgloss.Color {
	switch b {
	case services.PriorityHigh:
		return Red
	case services.PriorityMedium:
		return Orange
	case services.PriorityLow:
		return Secondary
	}
	panic(fmt.Sprintf("ui: unhandled priority band %q", b))
}

// CategoryBadge 有颜色的类别标签；空类别（后端未给）显示为灰色占位
func CategoryBadge(c models.Category) string {
	if c == "" {
		return Muted.Render("[-]")
	}
	return lipgloss.NewStyle().Foreground(CategoryColor(c)).Render("[" + string(c) + "]")
}

// TaskLine 任务列表中的一行
func TaskLine(t models.Task, schedule services.ScheduleDisplay) string {
	check := "[ ]"
	if t.IsCompleted() {
		check = Success.Render("[x]")
	}
	band := services.BandOf(t.Priority)
	prio := lipgloss.NewStyle().Foreground(bandColor(band)).Render(string(band))

	return fmt.Sprintf("%s %s %s %s %s %s",
		check,
		Muted.Render(fmt.Sprintf("#%d", t.ID)),
		t.Title,
		CategoryBadge(t.Category),
		prio,
		Muted.Render(ScheduleLabel(schedule)),
	)
}

// ScheduleLabel 展示时间的简短描述
func ScheduleLabel(s services.ScheduleDisplay) string {
	switch s.Source {
	case services.ScheduleCalendar:
		return "scheduled " + s.At.Format("Mon Jan 2 15:04")
	case services.ScheduleDueDate:
		if s.DateOnly {
			return "due " + s.At.Format("Jan 2")
		}
		return "due " + s.At.Format("Jan 2 15:04")
	case services.ScheduleUnscheduled:
		return "unscheduled"
	}
	panic(fmt.Sprintf("ui: unhandled schedule source %q", s.Source))
}

// ProgressBar width 个字符宽的进度条
func ProgressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	bar := lipgloss.NewStyle().Foreground(Green).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(Faded).Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3d%%", bar, percent)
}

// GoalLine 目标列表中的一行
func GoalLine(v services.GoalView) string {
	return fmt.Sprintf("%s %s %s %s",
		Muted.Render(fmt.Sprintf("#%d", v.Goal.ID)),
		ProgressBar(v.Progress.Percent, 20),
		v.Goal.Goal,
		Muted.Render(fmt.Sprintf("(%d/%d)", v.Progress.Completed, v.Progress.Total)),
	)
}

// SuggestionLine 引导流程中的建议任务
func SuggestionLine(i int, s services.Suggestion, selected bool) string {
	box := "[ ]"
	if selected {
		box = Success.Render("[x]")
	}
	energy := Muted.Render("-")
	if s.Task.EnergyLevel != "" {
		energy = lipgloss.NewStyle().Foreground(EnergyColor(s.Task.EnergyLevel)).Render(string(s.Task.EnergyLevel))
	}
	artifact := "-"
	if s.Task.Artifact != "" {
		artifact = ArtifactLabel(s.Task.Artifact)
	}
	return fmt.Sprintf("%2d. %s %s %s %s %s energy, %s, priority %d",
		i+1, box, s.Task.Title, CategoryBadge(s.Task.Category), Hours(s.Task.TimeHours), energy, artifact, s.Task.Priority)
}

// Hours 输出完整精度的小时数，如 12.5h
func Hours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64) + "h"
}

// CoachLine 对话中的一条消息
func CoachLine(role models.CoachRole, content string) string {
	if role == models.CoachRoleUser {
		return Muted.Render("you   ") + content
	}
	return lipgloss.NewStyle().Foreground(Purple).Bold(true).Render("coach ") + content
}

// SmartLine 校验结果中的一项
func SmartLine(name string, ok bool) string {
	if ok {
		return Success.Render("✓ ") + name
	}
	return Danger.Render("✗ ") + name
}
