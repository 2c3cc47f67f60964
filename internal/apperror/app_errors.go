package apperror

import "errors"

var (
	ErrGameFinished = errors.New("game is already finished")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrInvalidCell  = errors.New("invalid cell index")

	ErrInvalidMark      = errors.New("invalid mark")
	ErrInvalidBoardSize = errors.New("unsupported board size")
	ErrBoardMismatch    = errors.New("board does not match game config")
	ErrBoardSizeLocked  = errors.New("board size can't be changed while in a room")

	ErrEmptyRoomID    = errors.New("room id is empty")
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrRoomFull       = errors.New("room is full")
	ErrNotInRoom      = errors.New("player is not in the room")
	ErrNotJoinable    = errors.New("join is not possible in the current state")
	ErrJoinTimeout    = errors.New("room did not answer in time")
	ErrTooManyRetries = errors.New("room is too busy, try again")

	ErrRelayUnavailable = errors.New("relay connection is closed")
)
