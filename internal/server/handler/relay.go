package handler

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/types"
)

// handleRelayEvent forwards a catalog event to the rest of the room. The
// sender must have joined the room. Without roomCode the event goes to the
// only room the client is in.
func (h *Handler) handleRelayEvent(client types.ClientInterface, msg *protocol.Message) {
	ev, ok := protocol.EventFromMessage(msg)
	if !ok {
		sendError(client, apperrors.ErrUnknownEvent)
		return
	}

	rooms := client.Rooms()
	switch {
	case ev.Room == "" && len(rooms) == 1:
		ev.Room = rooms[0]
	case ev.Room == "" || !slices.Contains(rooms, ev.Room):
		sendError(client, apperrors.ErrNotInRoom)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	res := h.relay.Publish(ctx, ev.Room, ev, client.GetID())
	if res.Err != nil {
		h.log.Warn("relay event rejected",
			zap.String("room", ev.Room),
			zap.String("event", string(ev.Name)),
			zap.String("member", client.GetID()),
			zap.Error(res.Err),
		)
		sendError(client, res.Err)
		return
	}

	h.log.Debug("relayed event",
		zap.String("room", ev.Room),
		zap.String("event", string(ev.Name)),
		zap.Int("delivered", res.Delivered),
	)
}
