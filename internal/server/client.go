package server

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/logger"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 8192

	// 超速次数达到后断开连接
	maxRateWarnings = 5
)

// Client 代表一个 websocket 连接，实现 types.ClientInterface
type Client struct {
	ID string
	IP string

	server *Server
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.RWMutex
	role   string
	rooms  []string
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.New().String(),
		server: s,
		conn:   conn,
		send:   make(chan []byte, s.sendBuffer),
	}
}

func (c *Client) GetID() string { return c.ID }

func (c *Client) GetRole() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

func (c *Client) SetRole(role string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.role = role
}

func (c *Client) AddRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.rooms, code) {
		c.rooms = append(c.rooms, code)
	}
}

func (c *Client) RemoveRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = slices.DeleteFunc(c.rooms, func(r string) bool { return r == code })
}

// Rooms returns the joined room codes in join order.
func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.rooms)
}

// Deliver queues a relay event. A full buffer drops the event and keeps
// the connection.
func (c *Client) Deliver(ev protocol.Event) bool {
	data, err := codec.Encode(ev.ToMessage())
	if err != nil {
		c.server.log.Error("encode event", zap.String("event", string(ev.Name)), zap.Error(err))
		return false
	}
	return c.enqueue(data)
}

// SendMessage 发送控制消息给客户端
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := codec.Encode(msg)
	if err != nil {
		c.server.log.Error("encode message", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	if !c.enqueue(data) {
		c.server.log.Warn("send buffer full, dropping message",
			zap.String("member", c.ID),
			zap.String("type", string(msg.Type)),
		)
	}
}

// enqueue holds the read lock across the send so Close cannot close the
// channel underneath it.
func (c *Client) enqueue(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// ReadPump 从 WebSocket 读取消息
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(c.server.log, r)
		}
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.log.Warn("websocket read error", zap.String("member", c.ID), zap.Error(err))
			}
			return
		}

		// 消息速率限制检查
		allowed, warning := c.server.messageLimiter.AllowMessage(c.ID)
		if !allowed {
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRateLimit))
			if c.server.messageLimiter.GetWarningCount(c.ID) > maxRateWarnings {
				c.server.log.Warn("disconnecting flooding client", zap.String("member", c.ID), zap.String("ip", c.IP))
				return
			}
			continue
		}
		if warning {
			c.server.log.Debug("client close to message limit", zap.String("member", c.ID))
		}

		msg, err := codec.Decode(message)
		if err != nil {
			c.server.log.Debug("undecodable message", zap.String("member", c.ID), zap.Error(err))
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.server.handler.Handle(c, msg)
	}
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(c.server.log, r)
		}
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleDisconnect leaves every room before the connection is dropped so
// no further events are fanned out to it.
func (c *Client) handleDisconnect() {
	c.server.handler.Disconnect(c)
	c.server.messageLimiter.RemoveClient(c.ID)
	c.server.unregisterClient(c)
	c.Close()
}

// Close 关闭发送通道，WritePump 随后发送 close 帧
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
