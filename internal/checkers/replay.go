package checkers

// ReplaySession walks a private copy of a finished game's history over a
// fresh board. It is not safe for concurrent use.
type ReplaySession struct {
	game   Snapshot
	moves  []Move
	board  Board
	cursor int
	active Color
}

func BeginReplay(s Snapshot) *ReplaySession {
	return &ReplaySession{
		game:   s,
		moves:  append([]Move(nil), s.History...),
		board:  StartingBoard(),
		active: Red,
	}
}

// StepForward plays the next turn, following a capture chain to its end.
func (r *ReplaySession) StepForward() bool {
	if r.AtEnd() {
		return false
	}
	for r.cursor < len(r.moves) {
		m := derive(&r.board, r.moves[r.cursor])
		r.moves[r.cursor] = m
		applyMove(&r.board, m)
		r.cursor++
		if !m.ContinuesCapture {
			break
		}
	}
	r.active = r.moves[r.cursor-1].Mover.Opponent()
	return true
}

// StepBackward undoes the last shown turn as a unit.
func (r *ReplaySession) StepBackward() bool {
	if r.AtStart() {
		return false
	}
	for r.cursor > 0 {
		r.cursor--
		m := r.moves[r.cursor]
		reverseMove(&r.board, m)
		if m.FirstOfTurn {
			break
		}
	}
	r.active = r.moves[r.cursor].Mover
	return true
}

func (r *ReplaySession) AtStart() bool { return r.cursor == 0 }
func (r *ReplaySession) AtEnd() bool   { return r.cursor >= len(r.moves) }

// Active is the color whose turn is displayed.
func (r *ReplaySession) Active() Color { return r.active }

func (r *ReplaySession) Cursor() int { return r.cursor }
func (r *ReplaySession) Len() int    { return len(r.moves) }

func (r *ReplaySession) Game() Snapshot { return r.game }

// LastMove is the most recently shown move.
func (r *ReplaySession) LastMove() (Move, bool) {
	if r.cursor == 0 {
		return Move{}, false
	}
	return r.moves[r.cursor-1], true
}

func (r *ReplaySession) Board(viewer Color) Board { return r.board.Oriented(viewer) }
