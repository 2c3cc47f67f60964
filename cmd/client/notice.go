package main

import (
	"errors"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
)

// notice turns an error into the line shown to the player.
func notice(err error) string {
	switch {
	case errors.Is(err, apperror.ErrRoomFull):
		return "Room is full, pick another room"
	case errors.Is(err, apperror.ErrJoinTimeout):
		return "Nobody joined in time, pick a room again"
	case errors.Is(err, apperror.ErrRelayUnavailable):
		return "Relay is not reachable"
	case errors.Is(err, apperror.ErrNotJoinable):
		return "Switch to online mode first"
	case errors.Is(err, apperror.ErrBoardSizeLocked):
		return "Board size can only change outside a room"
	default:
		return err.Error()
	}
}
