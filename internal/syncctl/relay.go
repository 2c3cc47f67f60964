package syncctl

import (
	"context"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

// Relay is the process-wide connection to the relay service.
type Relay interface {
	// ClientID is the id the relay lists in a room's players.
	ClientID() string

	// Subscribe registers deliver for events of one room. Closing the subscription stops
	// deliveries for that room.
	Subscribe(roomID string, deliver func(Event)) (Subscription, error)

	JoinRoom(ctx context.Context, roomID string, size int) error
	MakeMove(ctx context.Context, roomID string, index int) error
	ResetGame(ctx context.Context, roomID string) error
}

type Subscription interface {
	Close()
}

// Event is one inbound relay event for a room.
type Event interface {
	eventName() string
}

// RoomSnapshot is the room-data event: the authoritative state on (re)join.
type RoomSnapshot struct {
	Size    int
	Players []string
	Board   entity.Board
	XIsNext bool
}

// RoomFull is the room-full event: the join was rejected.
type RoomFull struct{}

// MoveMade is the move-made event: the authoritative state after a move.
type MoveMade struct {
	Board   entity.Board
	XIsNext bool
}

// BoardReset is the reset-board event.
type BoardReset struct{}

func (RoomSnapshot) eventName() string { return "room-data" }
func (RoomFull) eventName() string     { return "room-full" }
func (MoveMade) eventName() string     { return "move-made" }
func (BoardReset) eventName() string   { return "reset-board" }
