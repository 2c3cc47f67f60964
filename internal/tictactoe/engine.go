package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

type direction struct {
	dx, dy int
}

// directions are scanned in this order; together with the index-order cell scan this makes
// the reported line deterministic when several lines exist.
var directions = []direction{
	{dx: 1, dy: 0},
	{dx: 0, dy: 1},
	{dx: 1, dy: 1},
	{dx: 1, dy: -1},
}

// Line is a completed run of one mark.
type Line struct {
	Mark  entity.Mark
	Cells []int
}

// Evaluate derives the outcome of a board. A board with a line has a winner even when it is full.
func Evaluate(board entity.Board, boardSize, runLength int) entity.Outcome {
	if line, ok := FindWinningLine(board, boardSize, runLength); ok {
		return entity.WinnerOutcome(line.Mark)
	}

	if board.IsFull() {
		return entity.DrawOutcome()
	}

	return entity.NoOutcome()
}

func EvaluateConfig(board entity.Board, conf entity.GameConfig) entity.Outcome {
	return Evaluate(board, conf.BoardSize, conf.RunLength)
}

// FindWinningLine returns the first run of runLength equal marks, scanning occupied cells in
// index order and directions in the order declared above. Runs never wrap across rows.
func FindWinningLine(board entity.Board, boardSize, runLength int) (Line, bool) {
	if boardSize <= 0 || runLength <= 0 || len(board) != boardSize*boardSize {
		return Line{}, false
	}

	for index, mark := range board {
		if mark.IsEmpty() {
			continue
		}

		x, y := index%boardSize, index/boardSize

		for _, dir := range directions {
			if cells, ok := runFrom(board, boardSize, runLength, x, y, dir); ok {
				return Line{Mark: mark, Cells: cells}, true
			}
		}
	}

	return Line{}, false
}

func runFrom(board entity.Board, boardSize, runLength, x, y int, dir direction) ([]int, bool) {
	mark := board[y*boardSize+x]
	cells := make([]int, 0, runLength)

	for step := 0; step < runLength; step++ {
		cx, cy := x+dir.dx*step, y+dir.dy*step
		if cx < 0 || cy < 0 || cx >= boardSize || cy >= boardSize {
			return nil, false
		}

		index := cy*boardSize + cx
		if board[index] != mark {
			return nil, false
		}

		cells = append(cells, index)
	}

	return cells, true
}

// ValidateBoard checks that a board received from elsewhere fits the config.
func ValidateBoard(board entity.Board, conf entity.GameConfig) error {
	if len(board) != conf.Cells() {
		return fmt.Errorf("%w: %d cells for size %d", apperror.ErrBoardMismatch, len(board), conf.BoardSize)
	}

	for i, cell := range board {
		if !cell.IsEmpty() && !cell.IsPlayer() {
			return fmt.Errorf("%w: cell %d", apperror.ErrInvalidMark, i)
		}
	}

	return nil
}
