package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
)

const (
	ClassicBoardSize = 3
	ClassicRunLength = 3

	MinExtendedBoardSize = 5
	MaxBoardSize         = 10
	ExtendedRunLength    = 5
)

// GameConfig is the board geometry both sides of a room must agree on.
type GameConfig struct {
	BoardSize int `json:"size"`
	RunLength int `json:"runLength"`
}

// NewGameConfig picks the run length for a board size: 3 in a row on the classic board,
// 5 in a row on anything from 5x5 up to 10x10. Other sizes are rejected.
func NewGameConfig(size int) (GameConfig, error) {
	switch {
	case size == ClassicBoardSize:
		return GameConfig{BoardSize: size, RunLength: ClassicRunLength}, nil
	case size >= MinExtendedBoardSize && size <= MaxBoardSize:
		return GameConfig{BoardSize: size, RunLength: ExtendedRunLength}, nil
	default:
		return GameConfig{}, fmt.Errorf("%w: %d", apperror.ErrInvalidBoardSize, size)
	}
}

func DefaultGameConfig() GameConfig {
	return GameConfig{BoardSize: ClassicBoardSize, RunLength: ClassicRunLength}
}

func (that GameConfig) Cells() int {
	return that.BoardSize * that.BoardSize
}

func (that GameConfig) Contains(index int) bool {
	return index >= 0 && index < that.Cells()
}

// Index converts column x and row y into a row-major cell index.
func (that GameConfig) Index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= that.BoardSize || y >= that.BoardSize {
		return 0, false
	}

	return y*that.BoardSize + x, true
}

func (that GameConfig) NewBoard() Board {
	return make(Board, that.Cells())
}

// Board is a row-major grid of marks, index = y*size + x.
type Board []Mark

func (that Board) Clone() Board {
	if that == nil {
		return nil
	}

	board := make(Board, len(that))
	copy(board, that)

	return board
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell.IsEmpty() {
			return false
		}
	}

	return true
}

func (that Board) Count(mark Mark) int {
	count := 0
	for _, cell := range that {
		if cell == mark {
			count++
		}
	}

	return count
}

func (that Board) Equal(other Board) bool {
	if len(that) != len(other) {
		return false
	}

	for i := range that {
		if that[i] != other[i] {
			return false
		}
	}

	return true
}
