// Package common provides shared styles and utilities for the UI.
package common

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/spelling-bee/internal/timer"
)

// Icon constants
const (
	JudgeIcon    = "⚖️"
	DisplayIcon  = "📺"
	AudienceIcon = "👀"
	CorrectIcon  = "✅"
	WrongIcon    = "❌"
	InfoIcon     = "💡"
)

// Lipgloss Styles
var (
	DocStyle    = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	BoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	PromptStyle = lipgloss.NewStyle().MarginTop(1)
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	MutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	WordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	NoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	CorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true)
	WrongStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

// 倒计时颜色
var phaseStyles = map[timer.Phase]lipgloss.Style{
	timer.PhaseGreen:  lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true),
	timer.PhaseYellow: lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308")).Bold(true),
	timer.PhaseRed:    lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
}

// PhaseStyle returns the countdown style for p.
func PhaseStyle(p timer.Phase) lipgloss.Style {
	if s, ok := phaseStyles[p]; ok {
		return s
	}
	return MutedStyle
}

// RoleIcon returns the icon for a member role.
func RoleIcon(role string) string {
	switch role {
	case "judge":
		return JudgeIcon
	case "display":
		return DisplayIcon
	default:
		return AudienceIcon
	}
}
