package view

import (
	"fmt"
	"strings"

	"github.com/palemoky/spelling-bee/internal/session"
	"github.com/palemoky/spelling-bee/internal/timer"
	"github.com/palemoky/spelling-bee/internal/ui/common"
	"github.com/palemoky/spelling-bee/internal/words"
)

// JudgeData is everything the judge screen shows besides the header.
type JudgeData struct {
	View  session.JudgeView
	Timer timer.State
	Level words.Difficulty
	Input string
	Help  string
}

// Judge renders the judge console. The judge always sees the word.
func Judge(d JudgeData, h Header) string {
	var body strings.Builder

	fmt.Fprintf(&body, "Level: %s (%d)\n", d.Level.Label(), int(d.Level))
	body.WriteString(stateLine(d.View.State))
	body.WriteString("\n\n")

	if sel := d.View.Selection; sel != nil {
		body.WriteString(common.WordStyle.Render(sel.Word.Word))
		body.WriteString("\n")
		for _, kind := range sel.AvailableInfo {
			content, _ := sel.Info(kind)
			body.WriteString(common.MutedStyle.Render(titleCase(kind) + ": "))
			body.WriteString(content)
			body.WriteString("\n")
		}
	} else {
		body.WriteString(common.MutedStyle.Render("No word selected"))
		body.WriteString("\n")
	}

	body.WriteString("\n")
	body.WriteString(Countdown(d.Timer))

	if d.View.Result != nil {
		body.WriteString("\n\n")
		body.WriteString(renderVerdict(d.View.Result))
	}

	var sb strings.Builder
	sb.WriteString(renderHeader(h))
	sb.WriteString("\n\n")
	sb.WriteString(center(h.Width, common.BoxStyle.Render(body.String())))

	if req := d.View.Request; req != nil {
		sb.WriteString("\n\n")
		sb.WriteString(center(h.Width, common.NoticeStyle.Render(common.InfoIcon+" Audience requests: "+req.Kind)))
	}

	sb.WriteString("\n")
	sb.WriteString(center(h.Width, common.PromptStyle.Render(d.Input)))

	if n := renderNotice(h); n != "" {
		sb.WriteString("\n\n")
		sb.WriteString(n)
	}
	if d.Help != "" {
		sb.WriteString("\n\n")
		sb.WriteString(center(h.Width, d.Help))
	}
	return sb.String()
}

func stateLine(s session.State) string {
	switch s {
	case session.StateWordReady:
		return session.StatusWordSelected
	case session.StateSpelling:
		return session.StatusSpelling
	case session.StateJudged:
		return "Judged"
	default:
		return session.StatusWaiting
	}
}
