package checkers

// TurnState holds the per-turn flags consulted by the validator.
// ChainAt is only meaningful while MustContinueCapture is set.
type TurnState struct {
	FirstMove           bool     `json:"first_move"`
	MustContinueCapture bool     `json:"must_continue_capture"`
	ChainAt             Position `json:"chain_at"`
}

func freshTurn() TurnState { return TurnState{FirstMove: true} }

// after returns the turn state once m has been applied.
func (t TurnState) after(m Move) TurnState {
	next := TurnState{MustContinueCapture: m.ContinuesCapture}
	if m.ContinuesCapture {
		next.ChainAt = m.End
	}
	return next
}

// MoveDecision is the outcome of a successful validation.
type MoveDecision struct {
	Move Move
	// MustContinueCapture tells the caller the same piece has to jump again
	// before the turn can be committed.
	MustContinueCapture bool
}

var diagonals = [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

func directions(pc Piece) [][2]int {
	if pc.Rank == King {
		return diagonals
	}
	f := pc.Color.forward()
	return [][2]int{{f, -1}, {f, 1}}
}

// Validate decides whether mover may play start to end on b under turn.
// Positions are canonical. b is never modified.
//
// A crowning move always ends the turn: a man promoted by a capture does not
// continue the chain even if a further jump exists.
func Validate(b *Board, mover Color, turn TurnState, start, end Position) (MoveDecision, error) {
	if !start.Valid() {
		return MoveDecision{}, reject(KindOutOfBounds, "start %s is off the board", start)
	}
	if !end.Valid() {
		return MoveDecision{}, reject(KindOutOfBounds, "end %s is off the board", end)
	}
	if !turn.FirstMove && !turn.MustContinueCapture {
		return MoveDecision{}, reject(KindAlreadyMoved, "you have already moved this turn")
	}
	pc := b.At(start)
	if pc.Color != mover {
		return MoveDecision{}, reject(KindNotYourPiece, "there is no %s piece on %s", mover, start)
	}
	dr, dc := end.Row-start.Row, end.Col-start.Col
	dist := abs(dr)
	if dist != abs(dc) || dist < 1 || dist > 2 {
		return MoveDecision{}, reject(KindIllegalMoveShape, "pieces move one square diagonally or jump two")
	}
	if turn.MustContinueCapture && start != turn.ChainAt {
		return MoveDecision{}, reject(KindMustCapture, "continue the jump with the piece on %s", turn.ChainAt)
	}
	if pc.Rank == Man && sign(dr) != mover.forward() {
		return MoveDecision{}, reject(KindIllegalBackwardMove, "only kings may move backward")
	}

	mv := Move{
		Start:             start,
		End:               end,
		Mover:             mover,
		FirstOfTurn:       turn.FirstMove,
		ChainContinuation: turn.MustContinueCapture,
	}
	if dist == 1 {
		if turn.MustContinueCapture {
			return MoveDecision{}, reject(KindMustCapture, "the jump must be continued")
		}
		if CaptureAvailable(b, mover) {
			return MoveDecision{}, reject(KindMustCapture, "a capture is available and must be taken")
		}
		if !b.IsOpen(end) {
			return MoveDecision{}, reject(KindDestinationBlocked, "%s is not an open square", end)
		}
	} else {
		mid := start.midpoint(end)
		victim := b.At(mid)
		if victim.Empty() {
			return MoveDecision{}, reject(KindNoPieceToCapture, "there is no piece to jump on %s", mid)
		}
		if victim.Color == mover {
			return MoveDecision{}, reject(KindCaptureTargetInvalid, "you cannot jump your own piece")
		}
		if !b.IsOpen(end) {
			return MoveDecision{}, reject(KindCaptureTargetInvalid, "landing square %s is not open", end)
		}
		mv.Capture = true
		mv.Captured = victim
	}
	mv.Promoted = pc.Rank == Man && end.Row == mover.crownRow()

	// The chain check runs on a copy with the jump already made, so the
	// vacated start square and the removed piece are seen as they will be.
	if mv.Capture && !mv.Promoted {
		next := *b
		applyMove(&next, mv)
		mv.ContinuesCapture = canCapture(&next, end)
	}
	return MoveDecision{Move: mv, MustContinueCapture: mv.ContinuesCapture}, nil
}

// CaptureAvailable reports whether any piece of color has a jump.
func CaptureAvailable(b *Board, color Color) bool {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			p := Pos(r, c)
			if b.At(p).Color == color && canCapture(b, p) {
				return true
			}
		}
	}
	return false
}

// Captures lists the landing squares of every jump available to the piece at p.
func Captures(b *Board, p Position) []Position {
	pc := b.At(p)
	if pc.Empty() {
		return nil
	}
	var out []Position
	for _, d := range directions(pc) {
		mid, land := p.offset(d[0], d[1]), p.offset(2*d[0], 2*d[1])
		if !land.Valid() {
			continue
		}
		if v := b.At(mid); !v.Empty() && v.Color != pc.Color && b.IsOpen(land) {
			out = append(out, land)
		}
	}
	return out
}

func canCapture(b *Board, p Position) bool { return len(Captures(b, p)) > 0 }

// applyMove relocates, crowns and captures as recorded on m.
func applyMove(b *Board, m Move) {
	pc := b.take(m.Start)
	if m.Promoted {
		pc.Rank = King
	}
	b.put(m.End, pc)
	if m.Capture {
		b.remove(m.Midpoint())
	}
}

// reverseMove is the exact inverse of applyMove.
func reverseMove(b *Board, m Move) {
	pc := b.take(m.End)
	if m.Promoted {
		pc.Rank = Man
	}
	b.put(m.Start, pc)
	if m.Capture && !m.Captured.Empty() {
		b.put(m.Midpoint(), m.Captured)
		b.counts[m.Captured.Color]++
	}
}

// derive recomputes a recorded move's capture and promotion effects against b.
func derive(b *Board, m Move) Move {
	pc := b.At(m.Start)
	m.Capture = abs(m.End.Row-m.Start.Row) == 2
	m.Captured = Piece{}
	if m.Capture {
		m.Captured = b.At(m.Midpoint())
	}
	m.Promoted = pc.Rank == Man && m.End.Row == pc.Color.crownRow()
	return m
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
