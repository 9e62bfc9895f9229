package view

import (
	"strings"

	"github.com/palemoky/spelling-bee/internal/session"
	"github.com/palemoky/spelling-bee/internal/ui/common"
)

// Display renders the display and audience screen. The word stays masked
// until it is revealed or judged.
func Display(v session.View, h Header, help string) string {
	var body strings.Builder

	body.WriteString(Countdown(v.Timer))
	body.WriteString("\n\n")
	body.WriteString(v.Status)

	switch {
	case v.Revealed != nil:
		body.WriteString("\n\n")
		body.WriteString(common.WordStyle.Render(v.Revealed.Word))
	case v.Word != "":
		body.WriteString("\n\n")
		body.WriteString(common.WordStyle.Render(MaskWord(v.Word)))
	}

	if v.Result != nil {
		body.WriteString("\n\n")
		body.WriteString(renderVerdict(v.Result))
	} else if v.Revealed != nil && v.Revealed.TypedSpelling != "" {
		body.WriteString("\n\n")
		body.WriteString(common.MutedStyle.Render("Typed: ") + v.Revealed.TypedSpelling)
	}

	var sb strings.Builder
	sb.WriteString(renderHeader(h))
	sb.WriteString("\n\n")
	sb.WriteString(center(h.Width, common.BoxStyle.Render(body.String())))

	if v.Side != nil {
		sb.WriteString("\n\n")
		sb.WriteString(center(h.Width, renderSide(v.Side)))
	}
	if n := renderNotice(h); n != "" {
		sb.WriteString("\n\n")
		sb.WriteString(n)
	}
	if help != "" {
		sb.WriteString("\n\n")
		sb.WriteString(center(h.Width, help))
	}
	return sb.String()
}

func renderSide(m *session.SideMessage) string {
	if m.Content == "" {
		// request-info 只有类型
		return common.NoticeStyle.Render(common.InfoIcon + " Requested: " + m.Kind)
	}
	return common.BoxStyle.Render(common.InfoIcon + " " + titleCase(m.Kind) + "\n" + m.Content)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
