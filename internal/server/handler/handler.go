package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/protocol/codec"
	"github.com/palemoky/spelling-bee/internal/relay"
	"github.com/palemoky/spelling-bee/internal/types"
)

// publishTimeout bounds a single relay publish or room join.
const publishTimeout = 5 * time.Second

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server types.ServerContext
	Relay  relay.Relay
	Logger *zap.Logger
}

// Handler 消息处理器
type Handler struct {
	server   types.ServerContext
	relay    relay.Relay
	log      *zap.Logger
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		server: deps.Server,
		relay:  deps.Relay,
		log:    log,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 房间操作
		protocol.MsgJoinRoom:  h.handleJoinRoom,
		protocol.MsgLeaveRoom: h.handleLeaveRoom,
	}

	// 中继事件
	for _, name := range protocol.Events() {
		h.handlers[name] = h.handleRelayEvent
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	h.log.Warn("unknown message type",
		zap.String("type", string(msg.Type)),
		zap.String("member", client.GetID()),
		zap.Int("payload_bytes", len(msg.Payload)),
	)
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeUnknownEvent))
}

// Disconnect removes the client from every room it joined.
func (h *Handler) Disconnect(client types.ClientInterface) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	left := h.relay.LeaveAll(ctx, client.GetID())
	for _, code := range left {
		client.RemoveRoom(code)
	}
	if len(left) > 0 {
		h.log.Debug("member left rooms on disconnect",
			zap.String("member", client.GetID()),
			zap.Strings("rooms", left),
		)
	}
}

// sendError 把错误映射成协议错误消息发回客户端
func sendError(client types.ClientInterface, err error) {
	ae := apperrors.From(err)
	client.SendMessage(codec.NewErrorMessageWithText(ae.Code, ae.Message))
}
