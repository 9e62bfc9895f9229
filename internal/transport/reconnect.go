package transport

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/logger"
	"github.com/palemoky/spelling-bee/internal/protocol"
)

// tryReconnect redials with exponential backoff and rejoins the rooms the
// client was in. The server assigns a new member id. Publish fails with
// ErrReconnecting until the rooms are rejoined, and anything still queued
// for the old connection is dropped.
func (c *Client) tryReconnect() {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(c.log, r)
		}
		c.reconnecting.Store(false)
	}()

	backoff := reconnectInterval
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		if c.OnReconnecting != nil {
			c.OnReconnecting(attempt, maxReconnectAttempts)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-c.done:
			timer.Stop()
			return
		case <-timer.C:
		}

		// 指数退避，最大 30 秒
		backoff = min(backoff*2, maxReconnectDelay)

		if err := c.redial(); err != nil {
			c.log.Warn("reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		c.rejoin()
		c.log.Info("reconnected", zap.String("member", c.MemberID()))
		if c.OnReconnect != nil {
			c.OnReconnect()
		}
		return
	}

	c.log.Warn("giving up reconnecting", zap.Int("attempts", maxReconnectAttempts))
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}

func (c *Client) redial() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.dialer.HandshakeTimeout+pongWait/6)
	defer cancel()

	conn, _, err := c.dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}

	ready := make(chan struct{})
	c.mu.Lock()
	c.ready = ready
	c.readyOnce = new(sync.Once)
	c.mu.Unlock()

	// join-room 必须先于其它消息写出
	if n := c.drainSend(); n > 0 {
		c.log.Warn("dropped messages queued before disconnect", zap.Int("count", n))
	}
	c.start(conn)

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}

// rejoin sends join-room for every remembered room without waiting for
// the replies.
func (c *Client) rejoin() {
	c.mu.RLock()
	rooms, role := append([]string(nil), c.rooms...), c.role
	c.mu.RUnlock()

	for _, code := range rooms {
		if err := c.SendMessage(&protocol.Message{Type: protocol.MsgJoinRoom, RoomCode: code, Role: role}); err != nil {
			c.log.Warn("rejoin failed", zap.String("room", code), zap.Error(err))
		}
	}
}
