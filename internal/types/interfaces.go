package types

import (
	"github.com/palemoky/spelling-bee/internal/protocol"
)

// Member is anything a room can deliver relay events to.
type Member interface {
	GetID() string
	GetRole() string
	// Deliver queues ev without blocking. It reports false when the event
	// was dropped.
	Deliver(ev protocol.Event) bool
}

// ClientInterface 定义 websocket 客户端接口（用于打破循环依赖）
type ClientInterface interface {
	Member
	SetRole(role string)
	SendMessage(msg *protocol.Message)
	AddRoom(code string)
	RemoveRoom(code string)
	Rooms() []string
	Close()
}

// ServerContext 定义处理器需要的服务器能力
type ServerContext interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
}
