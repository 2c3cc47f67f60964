package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

// MakeTurn applies an authoritative move to a room: the mark is placed and the turn passes.
func MakeTurn(room *entity.Room, mark entity.Mark, cell int) error {
	if EvaluateConfig(room.Board, room.Config).IsTerminal() {
		return apperror.ErrGameFinished
	}

	if err := validateMove(room, mark, cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	room.Board[cell] = mark
	room.XIsNext = toggleMark(mark) == entity.MarkX

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(room *entity.Room, mark entity.Mark, cell int) error {
	if !room.Config.Contains(cell) || cell >= len(room.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if room.Turn() != mark {
		return apperror.ErrNotYourTurn
	}

	if !room.Board[cell].IsEmpty() {
		return apperror.ErrCellOccupied
	}

	return nil
}

func toggleMark(currentMark entity.Mark) entity.Mark {
	if currentMark == entity.MarkX {
		return entity.MarkO
	}
	return entity.MarkX
}
