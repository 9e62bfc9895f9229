// Package relay forwards catalog events from one room member to the rest of
// the room. Delivery is best effort and at most once; nothing is replayed
// to members who join later.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/config"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/types"
)

// Result reports the outcome of a publish. Callers must check Err.
type Result struct {
	// Delivered counts local members for the broadcast adapter and
	// subscribed server instances for the redis adapter.
	Delivered int
	Err       error
}

// OK reports whether the publish was accepted.
func (r Result) OK() bool { return r.Err == nil }

// Publisher sends events into a room.
type Publisher interface {
	Publish(ctx context.Context, code string, ev protocol.Event, senderID string) Result
}

// Relay is implemented by the broadcast and redis adapters.
type Relay interface {
	Publisher
	Join(ctx context.Context, code string, m types.Member) error
	Leave(ctx context.Context, code, memberID string) error
	// LeaveAll removes the member from every room, e.g. on disconnect.
	LeaveAll(ctx context.Context, memberID string) []string
	// Subscribe joins m and returns a function that leaves again.
	Subscribe(ctx context.Context, code string, m types.Member) (func(), error)
	Close() error
}

// ChannelName is the pub/sub channel for a room.
func ChannelName(code string) string {
	return "spelling-bee-" + code
}

// New builds the adapter selected by cfg.Transport. client may be nil for
// the broadcast transport.
func New(cfg config.RelayConfig, registry *room.Registry, client redis.UniversalClient, log *zap.Logger) (Relay, error) {
	switch cfg.Transport {
	case config.TransportBroadcast:
		return NewBroadcast(registry, log), nil
	case config.TransportRedis:
		if client == nil {
			return nil, errors.New("redis transport needs a redis client")
		}
		return NewRedis(client, registry, log), nil
	default:
		return nil, fmt.Errorf("unknown relay transport %q", cfg.Transport)
	}
}

// prepare validates the room code and event and returns the event with its
// payload reduced to catalog fields.
func prepare(code string, ev protocol.Event) (protocol.Event, error) {
	if !room.ValidCode(code) {
		return protocol.Event{}, apperrors.ErrInvalidRoomCode
	}
	payload, err := protocol.ValidatePayload(ev.Name, ev.Payload)
	if err != nil {
		return protocol.Event{}, apperrors.From(err)
	}
	return protocol.Event{Name: ev.Name, Room: code, Payload: payload}, nil
}

// fanOut delivers ev to every local member except senderID.
func fanOut(registry *room.Registry, log *zap.Logger, ev protocol.Event, senderID string) int {
	delivered := 0
	for _, m := range registry.Others(ev.Room, senderID) {
		if m.Deliver(ev) {
			delivered++
			continue
		}
		log.Warn("event dropped for slow member",
			zap.String("room", ev.Room),
			zap.String("event", string(ev.Name)),
			zap.String("member", m.GetID()),
		)
	}
	return delivered
}

func subscribe(ctx context.Context, r Relay, code string, m types.Member) (func(), error) {
	if err := r.Join(ctx, code, m); err != nil {
		return nil, err
	}
	return func() { _ = r.Leave(context.Background(), code, m.GetID()) }, nil
}
