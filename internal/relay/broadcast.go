package relay

import (
	"context"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/types"
)

// Broadcast fans events out in process over the room registry.
type Broadcast struct {
	registry *room.Registry
	log      *zap.Logger
}

// NewBroadcast 创建进程内广播中继
func NewBroadcast(registry *room.Registry, log *zap.Logger) *Broadcast {
	return &Broadcast{registry: registry, log: log}
}

func (b *Broadcast) Join(_ context.Context, code string, m types.Member) error {
	_, err := b.registry.Join(code, m)
	return err
}

func (b *Broadcast) Leave(_ context.Context, code, memberID string) error {
	b.registry.Leave(code, memberID)
	return nil
}

func (b *Broadcast) LeaveAll(_ context.Context, memberID string) []string {
	return b.registry.LeaveAll(memberID)
}

func (b *Broadcast) Subscribe(ctx context.Context, code string, m types.Member) (func(), error) {
	return subscribe(ctx, b, code, m)
}

// Publish delivers ev to every member of the room except senderID. A member
// whose queue is full misses the event.
func (b *Broadcast) Publish(_ context.Context, code string, ev protocol.Event, senderID string) Result {
	ev, err := prepare(code, ev)
	if err != nil {
		return Result{Err: err}
	}
	n := fanOut(b.registry, b.log, ev, senderID)
	b.log.Debug("event relayed",
		zap.String("room", code),
		zap.String("event", string(ev.Name)),
		zap.Int("delivered", n),
	)
	return Result{Delivered: n}
}

func (b *Broadcast) Close() error { return nil }
