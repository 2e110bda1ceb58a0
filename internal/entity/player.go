package entity

// Player is the mark a participant places on the board.
type Player string

const (
	PlayerX Player = "X"
	PlayerO Player = "O"

	// NoPlayer marks an empty cell.
	NoPlayer Player = ""
)

// Swap returns the opponent of the player.
func (that Player) Swap() Player {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// Show returns the label drawn on a tile.
func (that Player) Show() string {
	return string(that)
}

func (that Player) IsEmpty() bool {
	return that == NoPlayer
}
