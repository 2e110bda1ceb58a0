package entity

const BoardSize = 3

// Coordinate addresses a single cell of the board.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Line is one of the eight triples a player can win with.
type Line [BoardSize]Coordinate

// WinLines lists rows, then columns, then the two diagonals.
var WinLines = [...]Line{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{2, 0}, {1, 1}, {0, 2}},
}

// Board holds the marks, indexed as board[row][col].
type Board [BoardSize][BoardSize]Player

func (that *Board) At(c Coordinate) Player {
	return that[c.Row][c.Col]
}

// Owner returns the player holding all three cells of the line.
func (that *Board) Owner(line Line) (Player, bool) {
	first := that.At(line[0])
	if first.IsEmpty() {
		return NoPlayer, false
	}

	for _, c := range line[1:] {
		if that.At(c) != first {
			return NoPlayer, false
		}
	}

	return first, true
}

// Count returns how many cells carry the given mark.
func (that *Board) Count(player Player) int {
	n := 0
	for _, row := range that {
		for _, cell := range row {
			if cell == player {
				n++
			}
		}
	}
	return n
}

func InBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}
