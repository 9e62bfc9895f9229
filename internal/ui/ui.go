// Package ui provides the main entry point for the terminal client.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/session"
	"github.com/palemoky/spelling-bee/internal/timer"
	"github.com/palemoky/spelling-bee/internal/transport"
	"github.com/palemoky/spelling-bee/internal/ui/model"
	"github.com/palemoky/spelling-bee/internal/words"
)

const joinTimeout = 10 * time.Second

// Options configure one client session.
type Options struct {
	// ServerURL is the http(s) base URL of the server.
	ServerURL string
	Room      string
	Role      string
	Timer     timer.Config
	// Words overrides the server word bank for the judge, e.g. a local file.
	Words  session.WordSource
	Logger *zap.Logger
}

// Run connects, joins the room and runs the screen for the role until the
// user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	client := transport.NewClient(WebsocketURL(opts.ServerURL), log.Named("transport"))
	bridge := model.NewBridge()
	bridge.Attach(client)
	defer bridge.Close()
	defer client.Close()

	joinCtx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()
	if err := client.Connect(joinCtx); err != nil {
		return fmt.Errorf("connect to server: %w", err)
	}
	if err := client.JoinRoom(joinCtx, opts.Room, opts.Role); err != nil {
		return fmt.Errorf("join room %s: %w", opts.Room, err)
	}
	log.Info("joined room", zap.String("room", opts.Room), zap.String("role", opts.Role), zap.String("member", client.MemberID()))

	m := NewModel(client, bridge.Listen(), opts, log)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// NewModel builds the screen for opts.Role on top of a connected client.
func NewModel(client *transport.Client, listen tea.Cmd, opts Options, log *zap.Logger) tea.Model {
	if opts.Role == protocol.RoleJudge {
		source := opts.Words
		if source == nil {
			source = transport.NewWordAPI(HTTPURL(opts.ServerURL), nil)
		}
		judge := session.NewJudge(client, source, opts.Timer, opts.Room, client.MemberID(), log.Named("judge"))
		return model.NewJudgeModel(judge, opts.Timer, listen)
	}

	return model.NewDisplayModel(model.DisplayConfig{
		Display:  session.NewDisplay(opts.Timer, log.Named("display")),
		Pub:      client,
		Listen:   listen,
		Room:     opts.Room,
		Role:     opts.Role,
		MemberID: client.MemberID(),
	})
}

// WebsocketURL maps http(s)://host to ws(s)://host/ws.
func WebsocketURL(serverURL string) string {
	u := strings.TrimRight(serverURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	case !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://"):
		u = "ws://" + u
	}
	if !strings.HasSuffix(u, "/ws") {
		u += "/ws"
	}
	return u
}

// HTTPURL maps ws(s)://host/ws or a bare host:port to http(s)://host.
func HTTPURL(serverURL string) string {
	u := strings.TrimSuffix(strings.TrimRight(serverURL, "/"), "/ws")
	switch {
	case strings.HasPrefix(u, "wss://"):
		return "https://" + strings.TrimPrefix(u, "wss://")
	case strings.HasPrefix(u, "ws://"):
		return "http://" + strings.TrimPrefix(u, "ws://")
	case strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"):
		return u
	default:
		return "http://" + u
	}
}

// WordSourceFromFile opens a local word file for the judge.
func WordSourceFromFile(path string, log *zap.Logger) (*words.Bank, error) {
	store, err := words.NewFileStore(path)
	if err != nil {
		return nil, err
	}
	return words.NewBank(store, log, nil), nil
}
