package entity

type OutcomeKind string

const (
	OutcomeContinue  OutcomeKind = "continue"
	OutcomeWin       OutcomeKind = "win"
	OutcomeTie       OutcomeKind = "tie"
	OutcomeTileTaken OutcomeKind = "tile_taken"
	OutcomeGameEnded OutcomeKind = "game_ended"
)

// Outcome classifies the result of a move attempt. Player is set for
// Continue (the player to move next) and Win (the winner); Line holds every
// winning tile for Win.
type Outcome struct {
	Kind   OutcomeKind  `json:"kind"`
	Player Player       `json:"player,omitempty"`
	Line   []Coordinate `json:"line,omitempty"`
}

func Continue(next Player) Outcome {
	return Outcome{Kind: OutcomeContinue, Player: next}
}

func Win(winner Player, tiles []Coordinate) Outcome {
	return Outcome{Kind: OutcomeWin, Player: winner, Line: tiles}
}

func Tie() Outcome {
	return Outcome{Kind: OutcomeTie}
}

func TileTaken() Outcome {
	return Outcome{Kind: OutcomeTileTaken}
}

func GameEnded() Outcome {
	return Outcome{Kind: OutcomeGameEnded}
}

// Changed reports whether the move that produced the outcome placed a mark.
func (that Outcome) Changed() bool {
	switch that.Kind {
	case OutcomeContinue, OutcomeWin, OutcomeTie:
		return true
	default:
		return false
	}
}
