// Package presenter turns game state into what a client draws: tile labels,
// the status line and the highlight/restart toggles.
package presenter

import (
	"fmt"

	"github.com/rocketscienceinc/noughts-and-crosses/internal/entity"
)

const (
	statusTie       = "Tie!"
	statusTileTaken = "Tile already taken."
	statusGameEnded = "Game has ended. Press restart."
)

type View struct {
	Tiles         [entity.BoardSize][entity.BoardSize]string `json:"tiles"`
	Status        string                                     `json:"status"`
	WinningTiles  []entity.Coordinate                        `json:"winning_tiles,omitempty"`
	ShouldRestart bool                                       `json:"should_restart"`
}

// GameResponse is the payload both transports send for a session.
type GameResponse struct {
	ID      string         `json:"id"`
	Game    entity.Game    `json:"game"`
	Outcome entity.Outcome `json:"outcome"`
	View    View           `json:"view"`
}

// Status returns the status line for an outcome.
func Status(outcome entity.Outcome) string {
	switch outcome.Kind {
	case entity.OutcomeContinue:
		return fmt.Sprintf("Player %s turn", outcome.Player.Show())
	case entity.OutcomeWin:
		return fmt.Sprintf("Player %s WINS!", outcome.Player.Show())
	case entity.OutcomeTie:
		return statusTie
	case entity.OutcomeTileTaken:
		return statusTileTaken
	case entity.OutcomeGameEnded:
		return statusGameEnded
	default:
		return ""
	}
}

// Render builds the view for a game after the given outcome. Highlighting and
// the restart toggle follow the game itself, so they survive rejected moves.
func Render(game entity.Game, outcome entity.Outcome) View {
	view := View{
		Status:        Status(outcome),
		ShouldRestart: game.Ended,
	}

	for row := range game.Board {
		for col, cell := range game.Board[row] {
			view.Tiles[row][col] = cell.Show()
		}
	}

	view.WinningTiles = game.WinningTiles()

	return view
}

func NewGameResponse(session *entity.Session, outcome entity.Outcome) *GameResponse {
	return &GameResponse{
		ID:      session.ID,
		Game:    session.Game,
		Outcome: outcome,
		View:    Render(session.Game, outcome),
	}
}
