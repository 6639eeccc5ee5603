package checkers

import "fmt"

// Position is a (row, column) pair. Positions held by a Game are canonical:
// they use Red's orientation, where Red starts on rows 5-7 and advances toward row 0.
type Position struct {
	Row int `json:"row"`
	Col int `json:"cell"`
}

func Pos(row, col int) Position { return Position{Row: row, Col: col} }

func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

// Dark reports whether the square is playable.
func (p Position) Dark() bool { return (p.Row+p.Col)%2 == 1 }

// Mirror maps a position to the opposite viewer's coordinates.
func (p Position) Mirror() Position {
	return Position{Row: BoardSize - 1 - p.Row, Col: BoardSize - 1 - p.Col}
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

func (p Position) offset(dr, dc int) Position {
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

func (p Position) midpoint(q Position) Position {
	return Position{Row: (p.Row + q.Row) / 2, Col: (p.Col + q.Col) / 2}
}

// ToViewerPerspective converts between canonical coordinates and the
// coordinates seen by viewer. The transform is its own inverse, so the same
// call maps a viewer's input back to canonical form.
func ToViewerPerspective(viewer Color, p Position) Position {
	if viewer == White {
		return p.Mirror()
	}
	return p
}
