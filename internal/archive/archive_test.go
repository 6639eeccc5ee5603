package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/park285/Cheese-Checkers/internal/checkers"
)

func finishedGame(t *testing.T, id string) checkers.Snapshot {
	t.Helper()
	g := checkers.NewGame(id, checkers.Player{ID: "u1", Name: "alice"}, checkers.Player{ID: "u2", Name: "bob"})
	steps := []struct {
		c          checkers.Color
		start, end checkers.Position
	}{
		{checkers.Red, checkers.Pos(5, 2), checkers.Pos(4, 3)},
		{checkers.White, checkers.Pos(5, 2), checkers.Pos(4, 3)},
		{checkers.Red, checkers.Pos(4, 3), checkers.Pos(2, 5)},
	}
	for _, s := range steps {
		if _, err := g.Play(s.c, s.start, s.end); err != nil {
			t.Fatalf("play: %v", err)
		}
		if err := g.CommitTurn(); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	if err := g.Resign(checkers.White); err != nil {
		t.Fatal(err)
	}
	return g.Snapshot()
}

func TestNotation(t *testing.T) {
	s := finishedGame(t, "g1")
	got := Notation(s)
	for _, want := range []string{
		`[Red "alice"]`,
		`[White "bob"]`,
		`[Termination "resignation"]`,
		`[Result "2-0"]`,
		"1. 22-18 11-15 2. 18x11 2-0",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("notation missing %q:\n%s", want, got)
		}
	}
}

func TestSquareNumber(t *testing.T) {
	cases := map[checkers.Position]int{
		checkers.Pos(0, 1): 1,
		checkers.Pos(0, 7): 4,
		checkers.Pos(1, 0): 5,
		checkers.Pos(7, 6): 32,
	}
	for p, want := range cases {
		if got := SquareNumber(p); got != want {
			t.Fatalf("SquareNumber(%s) = %d, want %d", p, got, want)
		}
	}
}

func TestWinnerAndMethod(t *testing.T) {
	s := finishedGame(t, "g1")
	if Winner(s) != checkers.Red || Method(s) != MethodResignation || Result(s) != "2-0" {
		t.Fatalf("winner=%s method=%s result=%s", Winner(s), Method(s), Result(s))
	}
	s.Resigned = checkers.NoColor
	s.Status = checkers.StatusWon
	s.Winner = checkers.White
	if Winner(s) != checkers.White || Method(s) != MethodCapture || Result(s) != "0-2" {
		t.Fatalf("winner=%s method=%s result=%s", Winner(s), Method(s), Result(s))
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	t.Cleanup(func() { _ = st.Close() })

	older := finishedGame(t, "g-old")
	older.LastMoveAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := finishedGame(t, "g-new")
	newer.LastMoveAt = older.LastMoveAt.Add(time.Hour)
	for _, s := range []checkers.Snapshot{older, newer} {
		if err := st.Save(ctx, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if err := st.Save(ctx, checkers.Snapshot{}); err == nil {
		t.Fatalf("snapshot without id accepted")
	}

	got, err := st.Load(ctx, "g-old")
	if err != nil || got.ID != "g-old" || len(got.History) != 3 {
		t.Fatalf("Load = %+v, %v", got, err)
	}
	if _, err := st.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err=%v", err)
	}

	list, err := st.List(ctx, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if list[0].ID != "g-new" || list[0].Method != MethodResignation || list[0].Winner != checkers.Red {
		t.Fatalf("unexpected order or summary: %+v", list[0])
	}
	if list, _ := st.List(ctx, 1); len(list) != 1 {
		t.Fatalf("limit not applied: %d", len(list))
	}
}
