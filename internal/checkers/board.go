package checkers

import (
	"errors"
	"strings"
)

const (
	BoardSize      = 8
	StartingPieces = 12
)

var ErrEmptySquare = errors.New("checkers: square is empty")

// Square is one cell of the board. Dark is fixed by coordinate parity.
type Square struct {
	Dark     bool  `json:"dark"`
	Occupant Piece `json:"occupant"`
}

// IsOpen reports whether a piece may land here.
func (s Square) IsOpen() bool { return s.Dark && s.Occupant.Empty() }

// Board is an 8x8 grid plus live piece counts per side. It is a plain value:
// copying a Board copies every piece.
type Board struct {
	squares [BoardSize][BoardSize]Square
	counts  [3]int
}

// NewBoard returns an empty board.
func NewBoard() Board {
	var b Board
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			b.squares[r][c].Dark = Pos(r, c).Dark()
		}
	}
	return b
}

// StartingBoard returns the standard opening position in canonical
// orientation: White on rows 0-2, Red on rows 5-7.
func StartingBoard() Board {
	b := NewBoard()
	for r := 0; r < BoardSize; r++ {
		var color Color
		switch {
		case r < 3:
			color = White
		case r > 4:
			color = Red
		default:
			continue
		}
		for c := 0; c < BoardSize; c++ {
			if b.squares[r][c].Dark {
				b.squares[r][c].Occupant = Piece{Color: color}
			}
		}
	}
	b.counts[Red] = StartingPieces
	b.counts[White] = StartingPieces
	return b
}

func (b *Board) SquareAt(p Position) (Square, error) {
	if !p.Valid() {
		return Square{}, reject(KindOutOfBounds, "%s is off the board", p)
	}
	return b.squares[p.Row][p.Col], nil
}

// At returns the occupant of p, or the empty piece when p is off the board.
func (b *Board) At(p Position) Piece {
	if !p.Valid() {
		return Piece{}
	}
	return b.squares[p.Row][p.Col].Occupant
}

func (b *Board) IsOpen(p Position) bool {
	return p.Valid() && b.squares[p.Row][p.Col].IsOpen()
}

// Count is the live number of pieces of color c.
func (b *Board) Count(c Color) int {
	if c != Red && c != White {
		return 0
	}
	return b.counts[c]
}

// PlacePiece puts an already-counted piece on an open square. Counters are
// unchanged; use RestorePiece to bring a removed piece back.
func (b *Board) PlacePiece(p Position, pc Piece) error {
	if !p.Valid() {
		return reject(KindOutOfBounds, "%s is off the board", p)
	}
	if pc.Empty() {
		return ErrEmptySquare
	}
	if !b.squares[p.Row][p.Col].IsOpen() {
		return reject(KindDestinationBlocked, "%s is not an open square", p)
	}
	b.put(p, pc)
	return nil
}

// RemovePiece clears p and decrements the removed piece's counter.
func (b *Board) RemovePiece(p Position) (Piece, error) {
	if !p.Valid() {
		return Piece{}, reject(KindOutOfBounds, "%s is off the board", p)
	}
	if b.At(p).Empty() {
		return Piece{}, ErrEmptySquare
	}
	return b.remove(p), nil
}

// RestorePiece places pc on p and counts it again.
func (b *Board) RestorePiece(p Position, pc Piece) error {
	if err := b.PlacePiece(p, pc); err != nil {
		return err
	}
	b.counts[pc.Color]++
	return nil
}

// Recount recomputes the live counters from the occupied squares.
func (b *Board) Recount() {
	b.counts = [3]int{}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if pc := b.squares[r][c].Occupant; !pc.Empty() {
				b.counts[pc.Color]++
			}
		}
	}
}

// Oriented returns a copy of the board in viewer's coordinates.
func (b *Board) Oriented(viewer Color) Board {
	if viewer != White {
		return *b
	}
	out := Board{counts: b.counts}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			m := Pos(r, c).Mirror()
			out.squares[r][c] = b.squares[m.Row][m.Col]
		}
	}
	return out
}

func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			sq := b.squares[r][c]
			if !sq.Dark {
				sb.WriteByte(' ')
				continue
			}
			sb.WriteByte(sq.Occupant.glyph())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b *Board) put(p Position, pc Piece) { b.squares[p.Row][p.Col].Occupant = pc }

func (b *Board) take(p Position) Piece {
	pc := b.squares[p.Row][p.Col].Occupant
	b.squares[p.Row][p.Col].Occupant = Piece{}
	return pc
}

func (b *Board) remove(p Position) Piece {
	pc := b.take(p)
	if !pc.Empty() {
		b.counts[pc.Color]--
	}
	return pc
}
