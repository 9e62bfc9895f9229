// Package transport is the terminal client's side of the relay: a websocket
// connection to the server and an HTTP word source.
package transport

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/protocol/codec"
	"github.com/palemoky/spelling-bee/internal/relay"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 64

	// 最大重连次数
	maxReconnectAttempts = 5
	// 重连间隔（指数退避起点）
	reconnectInterval = 2 * time.Second
	maxReconnectDelay = 30 * time.Second
)

var (
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("connection closed")
	// ErrReconnecting is returned by Publish until the rooms are rejoined.
	ErrReconnecting = errors.New("reconnecting")
)

// Client is a websocket connection to the relay server. It implements
// relay.Publisher so a session.Judge can publish through it.
type Client struct {
	URL string

	// 回调在读协程里调用，阻塞会推迟后续消息的读取
	OnEvent        func(protocol.Event)
	OnError        func(error)
	OnClose        func()
	OnReconnecting func(attempt, max int)
	OnReconnect    func()

	log    *zap.Logger
	dialer websocket.Dialer
	send   chan []byte
	done   chan struct{}

	mu       sync.RWMutex
	memberID string
	role     string
	rooms    []string
	closed   bool

	// 同一时间只有一个 join/leave 在等待服务器应答
	replyMu sync.Mutex
	reply   chan *protocol.Message

	ready        chan struct{}
	readyOnce    *sync.Once
	reconnecting atomic.Bool
}

// NewClient creates an unconnected client for a ws:// or wss:// URL.
func NewClient(url string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		URL:       url,
		log:       log,
		dialer:    websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		ready:     make(chan struct{}),
		readyOnce: new(sync.Once),
	}
}

// Connect dials the server and waits for the connected greeting.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.URL, err)
	}

	c.mu.RLock()
	ready := c.ready
	c.mu.RUnlock()

	c.start(conn)

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		c.Close()
		return ctx.Err()
	}
}

// MemberID is the id the server assigned, empty before Connect returns.
func (c *Client) MemberID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memberID
}

// Rooms returns the joined room codes.
func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.rooms)
}

// JoinRoom joins code with role and waits for room-joined.
func (c *Client) JoinRoom(ctx context.Context, code, role string) error {
	reply, err := c.request(ctx, &protocol.Message{Type: protocol.MsgJoinRoom, RoomCode: code, Role: role}, protocol.MsgRoomJoined, code)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.role = role
	if !slices.Contains(c.rooms, reply.RoomCode) {
		c.rooms = append(c.rooms, reply.RoomCode)
	}
	c.mu.Unlock()
	return nil
}

// LeaveRoom leaves code and waits for room-left.
func (c *Client) LeaveRoom(ctx context.Context, code string) error {
	if _, err := c.request(ctx, &protocol.Message{Type: protocol.MsgLeaveRoom, RoomCode: code}, protocol.MsgRoomLeft, code); err != nil {
		return err
	}
	c.mu.Lock()
	c.rooms = slices.DeleteFunc(c.rooms, func(r string) bool { return r == code })
	c.mu.Unlock()
	return nil
}

// request sends msg and waits for a reply of type want for code, or an
// error message from the server.
func (c *Client) request(ctx context.Context, msg *protocol.Message, want protocol.MessageType, code string) (*protocol.Message, error) {
	c.replyMu.Lock()
	defer c.replyMu.Unlock()

	reply := make(chan *protocol.Message, 1)
	c.mu.Lock()
	c.reply = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.reply = nil
		c.mu.Unlock()
	}()

	if err := c.SendMessage(msg); err != nil {
		return nil, err
	}

	for {
		select {
		case m := <-reply:
			if m.Type == protocol.MsgError {
				return nil, serverError(m)
			}
			if m.Type == want && m.RoomCode == code {
				return m, nil
			}
		case <-c.done:
			return nil, ErrClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Publish sends ev to the room. The server fans it out to everyone but this
// connection, so senderID is not sent. Delivered is always 0 because the
// server does not acknowledge relay events.
func (c *Client) Publish(_ context.Context, code string, ev protocol.Event, _ string) relay.Result {
	// 新连接还没重新加入房间，服务器会拒绝这条事件
	if c.reconnecting.Load() {
		return relay.Result{Err: apperrors.ErrRelayFailed.Wrap(ErrReconnecting)}
	}
	ev.Room = code
	if err := c.SendMessage(ev.ToMessage()); err != nil {
		return relay.Result{Err: apperrors.ErrRelayFailed.Wrap(err)}
	}
	return relay.Result{}
}

// SendMessage 发送消息
func (c *Client) SendMessage(msg *protocol.Message) error {
	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// drainSend discards messages queued for a dead connection.
func (c *Client) drainSend() int {
	n := 0
	for {
		select {
		case <-c.send:
			n++
		default:
			return n
		}
	}
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	return c.reconnecting.Load()
}

// Close 关闭连接，不再重连。写协程负责发送 close 帧
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func serverError(msg *protocol.Message) error {
	p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	if err != nil {
		return apperrors.ErrInvalidMessage.Wrap(err)
	}
	return &apperrors.AppError{Kind: apperrors.KindValidation, Code: p.Code, Message: p.Message}
}
