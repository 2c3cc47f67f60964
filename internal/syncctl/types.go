package syncctl

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

type State int

const (
	StateIdle State = iota
	StateLocalPlay
	StateOnlineUnjoined
	StateOnlineWaiting
	StateOnlinePlaying
	StateOnlineTerminal
)

func (that State) String() string {
	switch that {
	case StateIdle:
		return "idle"
	case StateLocalPlay:
		return "local"
	case StateOnlineUnjoined:
		return "online-unjoined"
	case StateOnlineWaiting:
		return "online-waiting"
	case StateOnlinePlaying:
		return "online-playing"
	case StateOnlineTerminal:
		return "online-terminal"
	default:
		return fmt.Sprintf("state(%d)", int(that))
	}
}

func (that State) IsOnline() bool {
	return that >= StateOnlineUnjoined
}

// inRoom reports whether the relay has confirmed our seat.
func (that State) inRoom() bool {
	return that == StateOnlinePlaying || that == StateOnlineTerminal
}

type ConnectionStatus int

const (
	StatusUnjoined ConnectionStatus = iota
	StatusWaitingForPeer
	StatusActive
)

func (that ConnectionStatus) String() string {
	switch that {
	case StatusWaitingForPeer:
		return "waiting-for-peer"
	case StatusActive:
		return "active"
	default:
		return "unjoined"
	}
}

type RoomSession struct {
	RoomID string
	Status ConnectionStatus
	Full   bool
}

type ScoreTally struct {
	X int
	O int
}

func (that *ScoreTally) Add(mark entity.Mark) {
	switch mark {
	case entity.MarkX:
		that.X++
	case entity.MarkO:
		that.O++
	}
}

func (that *ScoreTally) Of(mark entity.Mark) int {
	switch mark {
	case entity.MarkX:
		return that.X
	case entity.MarkO:
		return that.O
	default:
		return 0
	}
}

// View is a copy of the controller state for rendering. It never aliases controller memory.
type View struct {
	State    State
	Config   entity.GameConfig
	Board    entity.Board
	XIsNext  bool
	Outcome  entity.Outcome
	Identity entity.Mark
	Session  RoomSession
	Scores   ScoreTally
}

func (that View) Turn() entity.Mark {
	if that.XIsNext {
		return entity.MarkX
	}

	return entity.MarkO
}

// Status is the one-line game status shown to the player.
func (that View) Status() string {
	switch that.State {
	case StateOnlineUnjoined:
		return ""
	case StateOnlineWaiting:
		return "Waiting for opponent to join..."
	}

	switch {
	case that.Outcome.HasWinner():
		return "Winner: " + string(that.Outcome.Winner)
	case that.Outcome.IsDraw():
		return "It's a Draw!"
	case that.State == StateIdle || that.State == StateLocalPlay:
		return "Next: " + string(that.Turn())
	case that.Identity == that.Turn():
		return "Next: " + string(that.Turn()) + " (You)"
	default:
		return "Next: " + string(that.Turn()) + " (Opponent)"
	}
}
