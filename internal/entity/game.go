package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/noughts-and-crosses/internal/apperror"
)

// Game is the state of a single round. It is a value: ApplyMove returns the
// next state and leaves the receiver untouched.
type Game struct {
	Board   Board  `json:"board"`
	Current Player `json:"current"`
	Ended   bool   `json:"ended"`
}

func NewGame() Game {
	return Game{Current: PlayerX}
}

// ApplyMove places the current player's mark at (row, col).
// Rejected moves return the receiver unchanged with a TileTaken or GameEnded outcome.
func (that Game) ApplyMove(row, col int) (Game, Outcome, error) {
	if !InBounds(row, col) {
		return that, Outcome{}, fmt.Errorf("%w: row %d, col %d", apperror.ErrInvalidCell, row, col)
	}

	if that.Ended {
		return that, GameEnded(), nil
	}

	if !that.Board[row][col].IsEmpty() {
		return that, TileTaken(), nil
	}

	that.Board[row][col] = that.Current

	if winner, ok := that.ComputeWinner(); ok {
		that.Ended = true
		return that, Win(winner, that.WinningTiles()), nil
	}

	if that.IsFull() {
		that.Ended = true
		return that, Tie(), nil
	}

	that.Current = that.Current.Swap()

	return that, Continue(that.Current), nil
}

// ComputeWinner returns the owner of the first completed line, if any.
func (that Game) ComputeWinner() (Player, bool) {
	winner, _, ok := that.winningLine()
	return winner, ok
}

// WinningLine returns the first completed line and its owner.
func (that Game) WinningLine() (Line, bool) {
	_, line, ok := that.winningLine()
	return line, ok
}

// WinningTiles returns the cells of every line completed by the winner, in
// check order and without repeats. A single move can finish two lines at once.
func (that Game) WinningTiles() []Coordinate {
	winner, ok := that.ComputeWinner()
	if !ok {
		return nil
	}

	var tiles []Coordinate
	seen := make(map[Coordinate]struct{}, BoardSize*2)

	for _, line := range WinLines {
		if owner, owned := that.Board.Owner(line); !owned || owner != winner {
			continue
		}

		for _, c := range line {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			tiles = append(tiles, c)
		}
	}

	return tiles
}

func (that Game) IsFull() bool {
	for _, row := range that.Board {
		for _, cell := range row {
			if cell.IsEmpty() {
				return false
			}
		}
	}
	return true
}

func (that Game) winningLine() (Player, Line, bool) {
	for _, line := range WinLines {
		if owner, ok := that.Board.Owner(line); ok {
			return owner, line, true
		}
	}
	return NoPlayer, Line{}, false
}

// Session is a stored game together with the outcome of its last move.
type Session struct {
	ID        string    `json:"id"`
	Game      Game      `json:"game"`
	Last      Outcome   `json:"last_outcome"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(id string, now time.Time) *Session {
	game := NewGame()

	return &Session{
		ID:        id,
		Game:      game,
		Last:      Continue(game.Current),
		UpdatedAt: now,
	}
}

// Restart discards the current round and starts a fresh one.
func (that *Session) Restart(now time.Time) {
	that.Game = NewGame()
	that.Last = Continue(that.Game.Current)
	that.UpdatedAt = now
}
