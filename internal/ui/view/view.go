// Package view provides UI rendering functions.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/spelling-bee/internal/session"
	"github.com/palemoky/spelling-bee/internal/timer"
	"github.com/palemoky/spelling-bee/internal/ui/common"
)

// Header is the part shared by every screen.
type Header struct {
	Room      string
	Role      string
	Width     int
	Notice    string
	NoticeErr bool
	// Connection is empty while connected, otherwise a short status.
	Connection string
}

func renderHeader(h Header) string {
	title := common.TitleStyle(fmt.Sprintf("%s 🐝 Spelling Bee · Room %s", common.RoleIcon(h.Role), h.Room))
	var sb strings.Builder
	sb.WriteString(center(h.Width, title))
	if h.Connection != "" {
		sb.WriteString("\n")
		sb.WriteString(center(h.Width, common.ErrorStyle.Render(h.Connection)))
	}
	return sb.String()
}

func renderNotice(h Header) string {
	if h.Notice == "" {
		return ""
	}
	if h.NoticeErr {
		return center(h.Width, common.ErrorStyle.Render("⚠️ "+h.Notice))
	}
	return center(h.Width, common.NoticeStyle.Render(h.Notice))
}

// Countdown renders m:ss in the phase color.
func Countdown(s timer.State) string {
	text := timer.Format(s.TimeLeft)
	if !s.Active {
		return common.MutedStyle.Render("⏱ " + text)
	}
	return common.PhaseStyle(s.Phase).Render("⏱ " + text)
}

// MaskWord hides the letters of w, keeping its length visible.
func MaskWord(w string) string {
	n := len([]rune(w))
	if n == 0 {
		return ""
	}
	return strings.TrimSpace(strings.Repeat("_ ", n))
}

func renderVerdict(v *session.Verdict) string {
	if v == nil {
		return ""
	}
	var sb strings.Builder
	if v.Correct {
		sb.WriteString(common.CorrectStyle.Render(common.CorrectIcon + " " + session.StatusCorrect))
	} else {
		sb.WriteString(common.WrongStyle.Render(common.WrongIcon + " " + session.StatusIncorrect))
	}
	if v.TypedSpelling != "" {
		sb.WriteString("\n")
		sb.WriteString(common.MutedStyle.Render("Typed: ") + v.TypedSpelling)
	}
	return sb.String()
}

func center(width int, s string) string {
	if width <= 0 {
		return s
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}
