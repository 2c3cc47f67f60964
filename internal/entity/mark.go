package entity

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
)

type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

func (that Mark) IsEmpty() bool {
	return that == MarkEmpty
}

func (that Mark) IsPlayer() bool {
	return that == MarkX || that == MarkO
}

// Opponent returns the other player's mark. The empty mark has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkEmpty
	}
}

// MarshalJSON writes an empty cell as null, the same way the relay clients do.
func (that Mark) MarshalJSON() ([]byte, error) {
	if that.IsEmpty() {
		return []byte("null"), nil
	}

	return json.Marshal(string(that))
}

func (that *Mark) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*that = MarkEmpty
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidMark, data)
	}

	switch mark := Mark(raw); mark {
	case MarkEmpty, MarkX, MarkO:
		*that = mark
		return nil
	default:
		return fmt.Errorf("%w: %q", apperror.ErrInvalidMark, raw)
	}
}
