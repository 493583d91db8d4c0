package ui

import (
	"fmt"

	"github.com/Gandasoft/polylearner-web/models"
	"github.com/charmbracelet/lipgloss"
)

const (
	Primary   = lipgloss.Color("#fff")
	Secondary = lipgloss.Color("#888")
	Faded     = lipgloss.Color("#555")

	Blue   = lipgloss.Color("#4db7ff")
	Green  = lipgloss.Color("#00a352")
	Red    = lipgloss.Color("#c42912")
	Yellow = lipgloss.Color("#c4b810")
	Orange = lipgloss.Color("#c27510")
	Purple = lipgloss.Color("#9b6bff")
)

// 下面的 switch 覆盖所有枚举值，新增枚举值时直接 panic 而不是落到默认样式

func CategoryColor(c models.Category) lipgloss.Color {
	switch c {
	case models.CategoryResearch:
		return Blue
	case models.CategoryCoding:
		return Purple
	case models.CategoryAdmin:
		return Yellow
	case models.CategoryNetworking:
		return Green
	}
	panic(fmt.Sprintf("ui: unhandled category %q", c))
}

func ArtifactLabel(a models.Artifact) string {
	switch a {
	case models.ArtifactArticle:
		return "article"
	case models.ArtifactNotes:
		return "notes"
	case models.ArtifactCode:
		return "code"
	}
	panic(fmt.Sprintf("ui: unhandled artifact %q", a))
}

func EnergyColor(e models.EnergyLevel) lipgloss.Color {
	switch e {
	case models.EnergyHigh:
		return Red
	case models.EnergyMedium:
		return Orange
	case models.EnergyLow:
		return Green
	}
	panic(fmt.Sprintf("ui: unhandled energy level %q", e))
}
