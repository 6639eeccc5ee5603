package checkers

import (
	"testing"
	"time"
)

func man(c Color) Piece  { return Piece{Color: c} }
func king(c Color) Piece { return Piece{Color: c, Rank: King} }

// boardWith builds a canonical board holding exactly pieces.
func boardWith(t *testing.T, pieces map[Position]Piece) Board {
	t.Helper()
	b := NewBoard()
	for p, pc := range pieces {
		if err := b.PlacePiece(p, pc); err != nil {
			t.Fatalf("place %v at %s: %v", pc, p, err)
		}
	}
	b.Recount()
	return b
}

// gameWith starts a game from a custom committed position.
func gameWith(t *testing.T, b Board, active Color) *Game {
	t.Helper()
	return NewGameFrom("g-test", Player{ID: "u-red", Name: "alice"}, Player{ID: "u-white", Name: "bob"}, b, active)
}

var clockStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fixedClock returns a clock advancing one second per call from clockStart.
func fixedClock() func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return clockStart.Add(time.Duration(n) * time.Second)
	}
}

// playOpening plays three committed turns: a Red advance, a White advance
// into Red's reach and Red's capture. White is left to recapture.
func playOpening(t *testing.T) *Game {
	t.Helper()
	g := NewGame("g-open", Player{ID: "u-red", Name: "alice"}, Player{ID: "u-white", Name: "bob"})
	steps := []struct {
		c          Color
		start, end Position
	}{
		{Red, Pos(5, 2), Pos(4, 3)},
		{White, Pos(5, 2), Pos(4, 3)}, // canonical (2,5)-(3,4)
		{Red, Pos(4, 3), Pos(2, 5)},   // jumps (3,4)
	}
	for _, s := range steps {
		if _, err := g.Play(s.c, s.start, s.end); err != nil {
			t.Fatalf("play %s %s-%s: %v", s.c, s.start, s.end, err)
		}
		if err := g.CommitTurn(); err != nil {
			t.Fatalf("commit %s: %v", s.c, err)
		}
	}
	return g
}
