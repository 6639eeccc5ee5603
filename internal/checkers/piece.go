package checkers

import (
	"fmt"
	"strings"
)

// Color identifies a side. The zero value marks an empty square.
type Color uint8

const (
	NoColor Color = iota
	Red
	White
)

// Opponent returns the other side. NoColor has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case Red:
		return White
	case White:
		return Red
	default:
		return NoColor
	}
}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case White:
		return "white"
	default:
		return "none"
	}
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseColor accepts "red"/"r", "white"/"w" and "none"/"" (case-insensitive).
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "r":
		return Red, nil
	case "white", "w":
		return White, nil
	case "none", "":
		return NoColor, nil
	default:
		return NoColor, fmt.Errorf("unknown color %q", s)
	}
}

// forward is the row delta of a man's advance on the canonical board.
func (c Color) forward() int {
	if c == White {
		return 1
	}
	return -1
}

// crownRow is the canonical row on which a man of this color is crowned.
func (c Color) crownRow() int {
	if c == White {
		return BoardSize - 1
	}
	return 0
}

type Rank uint8

const (
	Man Rank = iota
	King
)

func (r Rank) String() string {
	if r == King {
		return "king"
	}
	return "man"
}

func (r Rank) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Rank) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "man", "single", "":
		*r = Man
	case "king":
		*r = King
	default:
		return fmt.Errorf("unknown rank %q", string(b))
	}
	return nil
}

// Piece is a value; boards own their pieces and never share them.
type Piece struct {
	Color Color `json:"color"`
	Rank  Rank  `json:"rank"`
}

func (p Piece) Empty() bool  { return p.Color == NoColor }
func (p Piece) IsKing() bool { return p.Rank == King }

// glyph renders the piece for Board.String: r/w for men, R/W for kings.
func (p Piece) glyph() byte {
	var g byte
	switch p.Color {
	case Red:
		g = 'r'
	case White:
		g = 'w'
	default:
		return '.'
	}
	if p.Rank == King {
		g -= 'a' - 'A'
	}
	return g
}
