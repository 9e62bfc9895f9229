package relay

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/types"
)

// envelope is the pub/sub message body.
type envelope struct {
	Sender  string               `json:"sender,omitempty"`
	Event   protocol.MessageType `json:"event"`
	Payload json.RawMessage      `json:"payload"`
}

type subscription struct {
	ps   *redis.PubSub
	done chan struct{}
}

// Redis relays through Redis pub/sub so members on different server
// instances share rooms. Each instance holds one subscription per room that
// has local members.
type Redis struct {
	client   redis.UniversalClient
	registry *room.Registry
	log      *zap.Logger

	mu   sync.Mutex
	subs map[string]*subscription
}

// NewRedis 创建 Redis 发布订阅中继
func NewRedis(client redis.UniversalClient, registry *room.Registry, log *zap.Logger) *Redis {
	return &Redis{
		client:   client,
		registry: registry,
		log:      log,
		subs:     make(map[string]*subscription),
	}
}

// Join adds m locally and makes sure this instance is subscribed to the
// room channel.
func (r *Redis) Join(ctx context.Context, code string, m types.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.registry.Join(code, m); err != nil {
		return err
	}
	if _, ok := r.subs[code]; ok {
		return nil
	}

	ps := r.client.Subscribe(ctx, ChannelName(code))
	// Wait for the subscription confirmation
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		r.registry.Leave(code, m.GetID())
		r.log.Error("room subscribe failed", zap.String("room", code), zap.Error(err))
		return apperrors.ErrRelayFailed.Wrap(err)
	}

	sub := &subscription{ps: ps, done: make(chan struct{})}
	r.subs[code] = sub
	go r.listen(code, sub)
	r.log.Debug("room subscribed", zap.String("channel", ChannelName(code)))
	return nil
}

func (r *Redis) listen(code string, sub *subscription) {
	defer close(sub.done)
	for msg := range sub.ps.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			r.log.Warn("bad relay envelope", zap.String("room", code), zap.Error(err))
			continue
		}
		ev := protocol.Event{Name: env.Event, Room: code, Payload: env.Payload}
		fanOut(r.registry, r.log, ev, env.Sender)
	}
}

// Leave removes the member and drops the subscription with the last local
// member.
func (r *Redis) Leave(_ context.Context, code, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry.Leave(code, memberID)
	return r.unsubscribeIfEmpty(code)
}

func (r *Redis) LeaveAll(_ context.Context, memberID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	left := r.registry.LeaveAll(memberID)
	for _, code := range left {
		_ = r.unsubscribeIfEmpty(code)
	}
	return left
}

func (r *Redis) unsubscribeIfEmpty(code string) error {
	if r.registry.Size(code) > 0 {
		return nil
	}
	sub, ok := r.subs[code]
	if !ok {
		return nil
	}
	delete(r.subs, code)
	err := sub.ps.Close()
	<-sub.done
	r.log.Debug("room unsubscribed", zap.String("channel", ChannelName(code)))
	return err
}

func (r *Redis) Subscribe(ctx context.Context, code string, m types.Member) (func(), error) {
	return subscribe(ctx, r, code, m)
}

// Publish sends ev to the room channel. Every subscribed instance,
// including this one, delivers it to its local members except senderID.
func (r *Redis) Publish(ctx context.Context, code string, ev protocol.Event, senderID string) Result {
	ev, err := prepare(code, ev)
	if err != nil {
		return Result{Err: err}
	}

	data, err := json.Marshal(envelope{Sender: senderID, Event: ev.Name, Payload: ev.Payload})
	if err != nil {
		return Result{Err: err}
	}

	n, err := r.client.Publish(ctx, ChannelName(code), data).Result()
	if err != nil {
		r.log.Error("relay publish failed",
			zap.String("room", code),
			zap.String("event", string(ev.Name)),
			zap.Error(err),
		)
		return Result{Err: apperrors.ErrRelayFailed.Wrap(err)}
	}
	return Result{Delivered: int(n)}
}

// Close drops every subscription.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, sub := range r.subs {
		_ = sub.ps.Close()
		<-sub.done
		delete(r.subs, code)
	}
	return nil
}
