package model

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/relay"
	"github.com/palemoky/spelling-bee/internal/session"
	"github.com/palemoky/spelling-bee/internal/ui/view"
	"github.com/palemoky/spelling-bee/internal/words"
)

const actionTimeout = 5 * time.Second

// DisplayModel shows the round to the room. With the audience role and a
// publisher it can also ask the judge for a definition or sentence.
type DisplayModel struct {
	display  *session.Display
	pub      relay.Publisher
	listen   tea.Cmd
	room     string
	role     string
	memberID string

	keys   displayKeys
	help   help.Model
	notice notice
	conn   string
	width  int
}

// DisplayConfig wires a DisplayModel. Pub may be nil for a read-only screen.
type DisplayConfig struct {
	Display  *session.Display
	Pub      relay.Publisher
	Listen   tea.Cmd
	Room     string
	Role     string
	MemberID string
}

// NewDisplayModel creates the display or audience screen.
func NewDisplayModel(cfg DisplayConfig) *DisplayModel {
	canRequest := cfg.Pub != nil && cfg.Role == protocol.RoleAudience
	return &DisplayModel{
		display:  cfg.Display,
		pub:      cfg.Pub,
		listen:   cfg.Listen,
		room:     cfg.Room,
		role:     cfg.Role,
		memberID: cfg.MemberID,
		keys:     newDisplayKeys(canRequest),
		help:     help.New(),
	}
}

func (m *DisplayModel) Init() tea.Cmd {
	return tea.Batch(m.listen, tick())
}

// Update handles tea messages.
func (m *DisplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case EventMsg:
		if err := m.display.Apply(msg.Event); err != nil {
			return m, tea.Batch(m.notice.set(err.Error(), true), m.listen)
		}
		return m, m.listen

	case TickMsg:
		m.display.Tick()
		return m, tick()

	case ActionResultMsg:
		if msg.Err != nil {
			return m, m.notice.set(fmt.Sprintf("%s: %v", msg.Action, msg.Err), true)
		}
		if msg.Notice != "" {
			return m, m.notice.set(msg.Notice, false)
		}

	case ClearNoticeMsg:
		m.notice.clear(msg)

	case ConnectionErrorMsg, ReconnectingMsg, ReconnectSuccessMsg:
		m.conn = connectionStatus(msg)
		return m, m.listen

	case ClosedMsg:
		m.conn = "Disconnected"
		return m, tea.Quit

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *DisplayModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Definition):
		return m.requestInfo(words.InfoDefinition)
	case key.Matches(msg, m.keys.Sentence):
		return m.requestInfo(words.InfoSentence)
	}
	return nil
}

// requestInfo asks the judge for kind. Only kinds announced with the word
// can be requested.
func (m *DisplayModel) requestInfo(kind string) tea.Cmd {
	v := m.display.View()
	if v.Word == "" {
		return m.notice.set("Waiting for word...", true)
	}
	if !slices.Contains(v.AvailableInfo, kind) {
		return m.notice.set(kind+" is not available for this word", true)
	}

	pub, room, sender := m.pub, m.room, m.memberID
	return func() tea.Msg {
		ev, err := protocol.NewEvent(protocol.EventRequestInfo, room, protocol.RequestInfoPayload{Type: kind})
		if err != nil {
			return ActionResultMsg{Action: "request " + kind, Err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		res := pub.Publish(ctx, room, ev, sender)
		return ActionResultMsg{Action: "request " + kind, Err: res.Err, Notice: "Asked for the " + kind}
	}
}

// View renders the model.
func (m *DisplayModel) View() string {
	return view.Display(m.display.View(), view.Header{
		Room:       m.room,
		Role:       m.role,
		Width:      m.width,
		Notice:     m.notice.text,
		NoticeErr:  m.notice.isErr,
		Connection: m.conn,
	}, m.help.View(m.keys))
}

func connectionStatus(msg tea.Msg) string {
	switch msg := msg.(type) {
	case ConnectionErrorMsg:
		return fmt.Sprintf("Connection error: %v", msg.Err)
	case ReconnectingMsg:
		return fmt.Sprintf("🔄 Reconnecting (%d/%d)...", msg.Attempt, msg.MaxTries)
	default:
		return ""
	}
}
