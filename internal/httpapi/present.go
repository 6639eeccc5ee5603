package httpapi

import (
	"github.com/park285/Cheese-Checkers/internal/archive"
	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/match"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
)

func toPosition(p checkers.Position) checkersdto.Position {
	return checkersdto.Position{Row: p.Row, Cell: p.Col}
}

func fromPosition(p checkersdto.Position) checkers.Position {
	return checkers.Pos(p.Row, p.Cell)
}

func toMove(m checkers.Move) checkersdto.Move {
	return checkersdto.Move{
		Start:    toPosition(m.Start),
		End:      toPosition(m.End),
		Mover:    m.Mover.String(),
		Capture:  m.Capture,
		Promoted: m.Promoted,
	}
}

// boardView renders a board that is already oriented for viewer.
func boardView(b checkers.Board, viewer checkers.Color) checkersdto.BoardView {
	v := checkersdto.BoardView{
		Viewer:      viewer.String(),
		Rows:        make([]checkersdto.Row, 0, checkers.BoardSize),
		RedPieces:   b.Count(checkers.Red),
		WhitePieces: b.Count(checkers.White),
	}
	for r := 0; r < checkers.BoardSize; r++ {
		row := checkersdto.Row{Index: r, Spaces: make([]checkersdto.Space, 0, checkers.BoardSize)}
		for c := 0; c < checkers.BoardSize; c++ {
			sq, _ := b.SquareAt(checkers.Pos(r, c))
			sp := checkersdto.Space{Cell: c, Dark: sq.Dark}
			if !sq.Occupant.Empty() {
				kind := "SINGLE"
				if sq.Occupant.IsKing() {
					kind = "KING"
				}
				sp.Piece = &checkersdto.Piece{Color: sq.Occupant.Color.String(), Type: kind}
			}
			row.Spaces = append(row.Spaces, sp)
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

func gameView(g *checkers.Game, viewer checkers.Color) checkersdto.GameView {
	snap := g.Snapshot()
	view := checkersdto.GameView{
		ID:          snap.ID,
		Red:         checkersdto.Player{ID: snap.Red.ID, Name: snap.Red.Name},
		White:       checkersdto.Player{ID: snap.White.ID, Name: snap.White.Name},
		ActiveColor: snap.Active.String(),
		Status:      string(snap.Status),
		Board:       boardView(g.Board(viewer), viewer),
		LastMoveAt:  snap.LastMoveAt,
	}
	if snap.Winner != checkers.NoColor {
		view.Winner = snap.Winner.String()
	}
	if snap.Resigned != checkers.NoColor {
		view.Resigned = snap.Resigned.String()
	}
	if viewer != checkers.NoColor && viewer == snap.Active {
		view.MustContinue = g.Turn().MustContinueCapture
		for _, m := range snap.Pending {
			view.Pending = append(view.Pending, toMove(m.ForViewer(viewer)))
		}
	}
	return view
}

func replayView(f match.ReplayFrame) checkersdto.ReplayView {
	v := checkersdto.ReplayView{
		GameID:      f.GameID,
		Cursor:      f.Cursor,
		Total:       f.Total,
		AtStart:     f.AtStart,
		AtEnd:       f.AtEnd,
		ActiveColor: f.Active.String(),
		Board:       boardView(f.Board, f.Viewer),
	}
	if f.LastMove != nil {
		mv := toMove(*f.LastMove)
		v.LastMove = &mv
	}
	return v
}

func archiveEntry(s archive.Summary) checkersdto.ArchiveEntry {
	e := checkersdto.ArchiveEntry{
		ID:      s.ID,
		Red:     s.RedName,
		White:   s.WhiteName,
		Status:  string(s.Status),
		Method:  s.Method,
		Moves:   s.Moves,
		EndedAt: s.EndedAt,
	}
	if s.Winner != checkers.NoColor {
		e.Winner = s.Winner.String()
	}
	return e
}
