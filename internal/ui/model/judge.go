package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/session"
	"github.com/palemoky/spelling-bee/internal/timer"
	"github.com/palemoky/spelling-bee/internal/ui/view"
	"github.com/palemoky/spelling-bee/internal/words"
)

// 裁判操作名，也用于 ActionResultMsg
const (
	ActionSelectWord = "select word"
	ActionStart      = "start timer"
	ActionReset      = "reset timer"
	ActionDecide     = "judge"
	ActionReveal     = "reveal"
	ActionInfo       = "send info"
)

// JudgeModel is the judge console. Every action publishes through the
// session.Judge; the local countdown only mirrors what displays show.
type JudgeModel struct {
	judge  *session.Judge
	listen tea.Cmd
	role   string

	level     words.Difficulty
	countdown *timer.Countdown
	input     textinput.Model
	keys      judgeKeys
	help      help.Model
	notice    notice
	conn      string
	width     int
}

// NewJudgeModel creates the judge screen. listen may be nil when no
// connection feeds events back, e.g. in tests.
func NewJudgeModel(judge *session.Judge, cfg timer.Config, listen tea.Cmd) *JudgeModel {
	ti := textinput.New()
	ti.Placeholder = "Typed spelling (tab)"
	ti.CharLimit = 64
	ti.Width = 30

	return &JudgeModel{
		judge:     judge,
		listen:    listen,
		role:      protocol.RoleJudge,
		level:     words.Medium,
		countdown: timer.NewCountdown(cfg),
		input:     ti,
		keys:      newJudgeKeys(),
		help:      help.New(),
	}
}

func (m *JudgeModel) Init() tea.Cmd {
	return tea.Batch(m.listen, tick())
}

// Level returns the difficulty used for the next word.
func (m *JudgeModel) Level() words.Difficulty { return m.level }

// Update handles tea messages.
func (m *JudgeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case EventMsg:
		if err := m.judge.Apply(msg.Event); err != nil {
			return m, tea.Batch(m.notice.set(err.Error(), true), m.listen)
		}
		return m, m.listen

	case TickMsg:
		m.countdown.Tick()
		return m, tick()

	case ActionResultMsg:
		return m, m.handleResult(msg)

	case ClearNoticeMsg:
		m.notice.clear(msg)

	case ConnectionErrorMsg, ReconnectingMsg, ReconnectSuccessMsg:
		m.conn = connectionStatus(msg)
		return m, m.listen

	case ClosedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

// handleResult keeps the local countdown in step with successful actions.
func (m *JudgeModel) handleResult(msg ActionResultMsg) tea.Cmd {
	if msg.Err != nil {
		return m.notice.set(fmt.Sprintf("%s: %v", msg.Action, msg.Err), true)
	}
	switch msg.Action {
	case ActionSelectWord, ActionReset:
		m.countdown.Reset()
	case ActionStart:
		m.countdown.Start(m.countdown.Config().TotalTime)
	case ActionDecide, ActionReveal:
		m.countdown.Stop()
		m.input.Reset()
	}
	if msg.Notice != "" {
		return m.notice.set(msg.Notice, false)
	}
	return nil
}

func (m *JudgeModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.input.Focused() {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyTab, tea.KeyEnter:
			m.input.Blur()
			return nil
		case tea.KeyCtrlC:
			return tea.Quit
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Type):
		return m.input.Focus()
	case key.Matches(msg, m.keys.Level):
		if lvl, err := words.ParseDifficulty(msg.String()); err == nil {
			m.level = lvl
		}
	case key.Matches(msg, m.keys.NewWord):
		return m.selectWord()
	case key.Matches(msg, m.keys.Start):
		return m.run(ActionStart, "", func(ctx context.Context) error {
			return m.judge.StartTimer(ctx).Err
		})
	case key.Matches(msg, m.keys.Reset):
		return m.run(ActionReset, "", func(ctx context.Context) error {
			return m.judge.ResetTimer(ctx).Err
		})
	case key.Matches(msg, m.keys.Correct):
		return m.decide(true)
	case key.Matches(msg, m.keys.Incorrect):
		return m.decide(false)
	case key.Matches(msg, m.keys.Reveal):
		typed := m.typed()
		return m.run(ActionReveal, "Word revealed", func(ctx context.Context) error {
			return m.judge.Reveal(ctx, typed).Err
		})
	case key.Matches(msg, m.keys.Definition):
		return m.provide(words.InfoDefinition)
	case key.Matches(msg, m.keys.Sentence):
		return m.provide(words.InfoSentence)
	}
	return nil
}

func (m *JudgeModel) typed() string {
	return strings.TrimSpace(m.input.Value())
}

func (m *JudgeModel) selectWord() tea.Cmd {
	level, judge := m.level, m.judge
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		sel, ok, res := judge.SelectWord(ctx, level)
		if res.Err != nil {
			return ActionResultMsg{Action: ActionSelectWord, Err: res.Err}
		}
		if !ok {
			return ActionResultMsg{Action: ActionSelectWord, Err: fmt.Errorf("no words at level %s", level.Label())}
		}
		return ActionResultMsg{Action: ActionSelectWord, Notice: "Selected " + sel.Word.Word}
	}
}

func (m *JudgeModel) decide(correct bool) tea.Cmd {
	typed := m.typed()
	text := "Marked incorrect"
	if correct {
		text = "Marked correct"
	}
	return m.run(ActionDecide, text, func(ctx context.Context) error {
		return m.judge.Decide(ctx, correct, typed).Err
	})
}

func (m *JudgeModel) provide(kind string) tea.Cmd {
	return m.run(ActionInfo, "Sent "+kind, func(ctx context.Context) error {
		return m.judge.ProvideInfo(ctx, kind).Err
	})
}

// run executes fn off the update loop and reports the outcome.
func (m *JudgeModel) run(action, okNotice string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return ActionResultMsg{Action: action, Err: err}
		}
		return ActionResultMsg{Action: action, Notice: okNotice}
	}
}

// View renders the model.
func (m *JudgeModel) View() string {
	return view.Judge(view.JudgeData{
		View:  m.judge.View(),
		Timer: m.countdown.State(),
		Level: m.level,
		Input: m.input.View(),
		Help:  m.help.View(m.keys),
	}, view.Header{
		Room:       m.judge.Room(),
		Role:       m.role,
		Width:      m.width,
		Notice:     m.notice.text,
		NoticeErr:  m.notice.isErr,
		Connection: m.conn,
	})
}
