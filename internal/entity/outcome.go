package entity

type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeWinner
	OutcomeDraw
)

// Outcome is always derived from a board, never stored next to it.
type Outcome struct {
	Kind   OutcomeKind
	Winner Mark
}

func NoOutcome() Outcome {
	return Outcome{Kind: OutcomeNone}
}

func WinnerOutcome(mark Mark) Outcome {
	return Outcome{Kind: OutcomeWinner, Winner: mark}
}

func DrawOutcome() Outcome {
	return Outcome{Kind: OutcomeDraw}
}

func (that Outcome) IsTerminal() bool {
	return that.Kind != OutcomeNone
}

func (that Outcome) HasWinner() bool {
	return that.Kind == OutcomeWinner
}

func (that Outcome) IsDraw() bool {
	return that.Kind == OutcomeDraw
}

func (that Outcome) String() string {
	switch that.Kind {
	case OutcomeWinner:
		return "winner " + string(that.Winner)
	case OutcomeDraw:
		return "draw"
	default:
		return "none"
	}
}
