// Package model holds the bubbletea models for the judge and display
// screens.
package model

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/transport"
)

// EventMsg 房间里其他成员发来的事件
type EventMsg struct {
	Event protocol.Event
}

// ConnectionErrorMsg 连接错误消息
type ConnectionErrorMsg struct {
	Err error
}

// ReconnectingMsg 正在重连消息
type ReconnectingMsg struct {
	Attempt  int
	MaxTries int
}

// ReconnectSuccessMsg 重连成功消息
type ReconnectSuccessMsg struct{}

// ClosedMsg 连接已关闭，不再重连
type ClosedMsg struct{}

// TickMsg drives the local countdown once per second.
type TickMsg time.Time

// ActionResultMsg reports a judge or audience action after its publish.
type ActionResultMsg struct {
	Action string
	Err    error
	Notice string
}

// ClearNoticeMsg 清除提示，seq 不匹配时忽略
type ClearNoticeMsg struct {
	seq int
}

const noticeTTL = 3 * time.Second

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func clearNotice(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return ClearNoticeMsg{seq: seq}
	})
}

// Bridge turns transport callbacks into tea messages. Callbacks block when
// the buffer is full so events are not lost; Close releases them.
type Bridge struct {
	ch   chan tea.Msg
	done chan struct{}
}

// NewBridge creates a bridge with a buffer of 64 messages.
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan tea.Msg, 64), done: make(chan struct{})}
}

// Attach sets the client callbacks.
func (b *Bridge) Attach(c *transport.Client) {
	c.OnEvent = func(ev protocol.Event) { b.Push(EventMsg{Event: ev}) }
	c.OnError = func(err error) { b.Push(ConnectionErrorMsg{Err: err}) }
	c.OnReconnecting = func(attempt, maxTries int) {
		b.Push(ReconnectingMsg{Attempt: attempt, MaxTries: maxTries})
	}
	c.OnReconnect = func() { b.Push(ReconnectSuccessMsg{}) }
	c.OnClose = func() { b.Push(ClosedMsg{}) }
}

// Push queues msg for the program.
func (b *Bridge) Push(msg tea.Msg) {
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}

// Listen waits for the next message. Models re-issue it after each one.
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.done:
			return nil
		}
	}
}

// Close releases blocked callbacks.
func (b *Bridge) Close() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}

// notice 临时提示
type notice struct {
	text  string
	isErr bool
	seq   int
}

func (n *notice) set(text string, isErr bool) tea.Cmd {
	n.seq++
	n.text, n.isErr = text, isErr
	return clearNotice(n.seq)
}

func (n *notice) clear(msg ClearNoticeMsg) {
	if msg.seq == n.seq {
		n.text, n.isErr = "", false
	}
}
