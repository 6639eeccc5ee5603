package checkers

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	g := playOpening(t)
	// White recaptures but does not submit yet.
	if _, err := g.Play(White, Pos(6, 1), Pos(4, 3)); err != nil {
		t.Fatalf("white recapture: %v", err)
	}
	g.AddSpectator("s1")

	snap := g.Snapshot()
	if snap.Active != White || len(snap.History) != 3 || len(snap.Pending) != 1 {
		t.Fatalf("snapshot = active %s history %d pending %d", snap.Active, len(snap.History), len(snap.Pending))
	}
	if snap.RedPieces != 11 || snap.WhitePieces != 11 {
		t.Fatalf("pieces red=%d white=%d", snap.RedPieces, snap.WhitePieces)
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(snap, decoded); diff != "" {
		t.Fatalf("json round trip (-want +got):\n%s", diff)
	}

	restored, err := Restore(decoded)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if diff := cmp.Diff(snap, restored.Snapshot()); diff != "" {
		t.Fatalf("restored snapshot (-want +got):\n%s", diff)
	}
	for _, c := range []Color{Red, White} {
		want, got := g.Board(c), restored.Board(c)
		if diff := cmp.Diff(want, got, cmp.AllowUnexported(Board{})); diff != "" {
			t.Fatalf("%s view differs:\n%s", c, diff)
		}
	}
	if restored.Turn() != g.Turn() {
		t.Fatalf("turn = %+v, want %+v", restored.Turn(), g.Turn())
	}
}

func TestRestoreResigned(t *testing.T) {
	g := playOpening(t)
	if err := g.Resign(White); err != nil {
		t.Fatal(err)
	}
	restored, err := Restore(g.Snapshot())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if c, ok := restored.Resigned(); !ok || c != White {
		t.Fatalf("Resigned() = %s, %v", c, ok)
	}
	if _, err := restored.Play(White, Pos(6, 1), Pos(4, 3)); !errors.Is(err, ErrGameAlreadyOver) {
		t.Fatalf("restored resigned game accepted a move: %v", err)
	}
}

func TestRestoreRejectsCorruptHistory(t *testing.T) {
	snap := playOpening(t).Snapshot()
	snap.History[1].Start = Pos(3, 0)
	if _, err := Restore(snap); !errors.Is(err, ErrNotYourPiece) {
		t.Fatalf("err = %v, want NotYourPiece", err)
	}
	if _, err := Restore(Snapshot{}); err == nil {
		t.Fatalf("snapshot without id accepted")
	}
}
