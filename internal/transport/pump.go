package transport

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/logger"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/protocol/codec"
)

// start runs the pumps for one connection. stop is closed when the read
// pump exits so the write pump of a dead connection does not linger.
func (c *Client) start(conn *websocket.Conn) {
	stop := make(chan struct{})
	go c.writePump(conn, stop)
	go c.readPump(conn, stop)
}

// readPump 从服务器读取消息
func (c *Client) readPump(conn *websocket.Conn, stop chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(c.log, r)
		}
		close(stop)
		_ = conn.Close()
		c.handleReadExit()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && c.OnError != nil && !c.isClosed() {
				c.OnError(err)
			}
			return
		}

		msg, err := codec.Decode(message)
		if err != nil {
			c.log.Debug("undecodable message", zap.Error(err))
			continue
		}
		c.processMessage(msg)
	}
}

func (c *Client) handleReadExit() {
	if c.isClosed() {
		if c.OnClose != nil {
			c.OnClose()
		}
		return
	}
	if !c.reconnecting.Load() {
		go c.tryReconnect()
	}
}

func (c *Client) processMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgConnected:
		p, err := codec.ParsePayload[protocol.ConnectedPayload](msg)
		if err != nil {
			c.log.Warn("bad connected payload", zap.Error(err))
			return
		}
		c.mu.Lock()
		c.memberID = p.MemberID
		ready, once := c.ready, c.readyOnce
		c.mu.Unlock()
		once.Do(func() { close(ready) })

	case protocol.MsgRoomJoined, protocol.MsgRoomLeft, protocol.MsgError:
		c.mu.RLock()
		reply := c.reply
		c.mu.RUnlock()
		if reply != nil {
			select {
			case reply <- msg:
			default:
			}
			return
		}
		if msg.Type == protocol.MsgError && c.OnError != nil {
			c.OnError(serverError(msg))
		}

	default:
		ev, ok := protocol.EventFromMessage(msg)
		if !ok {
			c.log.Debug("ignoring message", zap.String("type", string(msg.Type)))
			return
		}
		if c.OnEvent != nil {
			c.OnEvent(ev)
		}
	}
}

// writePump 向服务器写入消息
func (c *Client) writePump(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(c.log, r)
		}
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-stop:
			return

		case <-c.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
