package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
)

const RoomCapacity = 2

// Room is the relay's authoritative copy of one game. Players holds one slot per mark:
// slot 0 plays X, slot 1 plays O. A leaving player frees its slot, the other keeps its mark.
type Room struct {
	ID      string     `json:"id"`
	Config  GameConfig `json:"config"`
	Board   Board      `json:"board"`
	XIsNext bool       `json:"xIsNext"`
	Players []string   `json:"players"`
}

func NewRoom(id string, conf GameConfig) *Room {
	return &Room{
		ID:      id,
		Config:  conf,
		Board:   conf.NewBoard(),
		XIsNext: true,
		Players: make([]string, RoomCapacity),
	}
}

func (that *Room) IsFull() bool {
	return len(that.Members()) == RoomCapacity
}

func (that *Room) IsEmpty() bool {
	return len(that.Members()) == 0
}

// Members returns the ids of the players currently in the room, in slot order.
func (that *Room) Members() []string {
	members := make([]string, 0, RoomCapacity)
	for _, id := range that.Players {
		if id != "" {
			members = append(members, id)
		}
	}

	return members
}

func (that *Room) HasPlayer(playerID string) bool {
	_, ok := that.MarkOf(playerID)
	return ok
}

// MarkOf derives the player's mark from its slot.
func (that *Room) MarkOf(playerID string) (Mark, bool) {
	if playerID == "" {
		return MarkEmpty, false
	}

	for i, id := range that.Players {
		if id != playerID {
			continue
		}

		if i == 0 {
			return MarkX, true
		}

		return MarkO, true
	}

	return MarkEmpty, false
}

func (that *Room) Turn() Mark {
	if that.XIsNext {
		return MarkX
	}

	return MarkO
}

// AddPlayer puts the player in the first free slot. Adding a player that is already
// seated is a no-op.
func (that *Room) AddPlayer(playerID string) error {
	if that.HasPlayer(playerID) {
		return nil
	}

	for len(that.Players) < RoomCapacity {
		that.Players = append(that.Players, "")
	}

	for i, id := range that.Players {
		if id == "" {
			that.Players[i] = playerID
			return nil
		}
	}

	return fmt.Errorf("%w: room id %s", apperror.ErrRoomFull, that.ID)
}

func (that *Room) RemovePlayer(playerID string) bool {
	for i, id := range that.Players {
		if id == playerID && id != "" {
			that.Players[i] = ""
			return true
		}
	}

	return false
}

// Reset starts a new match in the same room with the same players and geometry.
func (that *Room) Reset() {
	that.Board = that.Config.NewBoard()
	that.XIsNext = true
}
