package handler

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/protocol/codec"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/types"
)

// handleJoinRoom 处理加入房间。一个连接可以同时在多个房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.server != nil && h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeMaintenance))
		return
	}

	code := msg.RoomCode
	if !room.ValidCode(code) {
		sendError(client, apperrors.ErrInvalidRoomCode)
		return
	}

	if msg.Role != "" {
		client.SetRole(msg.Role)
	}

	if !slices.Contains(client.Rooms(), code) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := h.relay.Join(ctx, code, client); err != nil {
			h.log.Error("join room failed", zap.String("room", code), zap.String("member", client.GetID()), zap.Error(err))
			sendError(client, err)
			return
		}
		client.AddRoom(code)
	}

	h.log.Info("member joined room",
		zap.String("room", code),
		zap.String("member", client.GetID()),
		zap.String("role", client.GetRole()),
	)
	client.SendMessage(&protocol.Message{Type: protocol.MsgRoomJoined, RoomCode: code})
}

// handleLeaveRoom 处理离开房间。没有 roomCode 时离开所有房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface, msg *protocol.Message) {
	codes := client.Rooms()
	if msg.RoomCode != "" {
		if !slices.Contains(codes, msg.RoomCode) {
			sendError(client, apperrors.ErrNotInRoom)
			return
		}
		codes = []string{msg.RoomCode}
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	for _, code := range codes {
		if err := h.relay.Leave(ctx, code, client.GetID()); err != nil {
			h.log.Warn("leave room failed", zap.String("room", code), zap.Error(err))
		}
		client.RemoveRoom(code)
		client.SendMessage(&protocol.Message{Type: protocol.MsgRoomLeft, RoomCode: code})
	}
}
