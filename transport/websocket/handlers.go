package websocket

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
)

// handleJoinRoom seats the client. Both members get the room once it is full,
// a client joining a full room gets room-full. Each room change is stored and sent
// under the room's lock.
func (that *Server) handleJoinRoom(ctx context.Context, conn *connection, msg *protocol.Message) error {
	log := that.logger.With("method", "handleJoinRoom", "clientID", conn.id)

	payload, err := protocol.DecodePayload[protocol.JoinRoom](msg)
	if err != nil {
		return err
	}

	roomID := strings.TrimSpace(payload.RoomID)
	if roomID == "" {
		return apperror.ErrEmptyRoomID
	}

	if payload.Size != 0 {
		if _, err = entity.NewGameConfig(payload.Size); err != nil {
			return err
		}
	}

	if err = that.leave(ctx, conn.id, roomID); err != nil {
		return fmt.Errorf("failed to leave previous room: %w", err)
	}

	unlock := that.rooms.lock(roomID)
	defer unlock()

	room, err := that.uRoom.JoinRoom(ctx, conn.id, roomID, payload.Size)
	if errors.Is(err, apperror.ErrRoomFull) {
		log.Info("room is full", "roomID", roomID)
		return that.reply(conn, protocol.ActionRoomFull, protocol.RoomFull{RoomID: roomID})
	}

	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	if !room.IsFull() {
		log.Info("waiting for opponent", "roomID", roomID)
		return nil
	}

	return that.broadcast(room, protocol.ActionRoomData, roomData(room))
}

func (that *Server) handleMakeMove(ctx context.Context, conn *connection, msg *protocol.Message) error {
	payload, err := protocol.DecodePayload[protocol.MakeMove](msg)
	if err != nil {
		return err
	}

	unlock := that.rooms.lock(payload.RoomID)
	defer unlock()

	room, err := that.uRoom.MakeMove(ctx, conn.id, payload.RoomID, payload.Index)
	if err != nil {
		return err
	}

	return that.broadcast(room, protocol.ActionMoveMade, protocol.MoveMade{
		RoomID:  room.ID,
		Board:   room.Board,
		XIsNext: room.XIsNext,
	})
}

func (that *Server) handleResetGame(ctx context.Context, conn *connection, msg *protocol.Message) error {
	roomID, err := protocol.RoomIDOf(msg)
	if err != nil {
		return err
	}

	unlock := that.rooms.lock(roomID)
	defer unlock()

	room, err := that.uRoom.ResetGame(ctx, conn.id, roomID)
	if err != nil {
		return err
	}

	return that.broadcast(room, protocol.ActionResetBoard, protocol.ResetBoard{RoomID: room.ID})
}

func roomData(room *entity.Room) protocol.RoomData {
	return protocol.RoomData{
		RoomID:  room.ID,
		Size:    room.Config.BoardSize,
		Players: room.Players,
		Board:   room.Board,
		XIsNext: room.XIsNext,
	}
}
