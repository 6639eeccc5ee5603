package checkers

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Status is the lifecycle state of a game.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusWon      Status = "WON"
	StatusResigned Status = "RESIGNED"
)

// Game is one match. All methods are safe for concurrent use; mutations are
// serialised by an internal lock.
//
// The game keeps a single canonical board for the last committed position
// and a working copy carrying the active player's pending moves. The active
// player sees the working board, everyone else sees the committed one.
type Game struct {
	mu sync.RWMutex

	id         string
	red, white Player

	committed Board
	working   Board
	active    Color
	turn      TurnState
	history   []Move
	pending   []Move
	resigned  Color

	spectators map[string]*atomic.Bool

	createdAt  time.Time
	lastMoveAt time.Time
	now        func() time.Time
}

// NewGame seats playerA as Red, who moves first, and playerB as White.
func NewGame(id string, playerA, playerB Player) *Game {
	return NewGameFrom(id, playerA, playerB, StartingBoard(), Red)
}

// NewGameFrom starts a game from a set-up position with active to move.
// The board's piece counts are recomputed.
func NewGameFrom(id string, playerA, playerB Player, b Board, active Color) *Game {
	b.Recount()
	g := &Game{
		id:         id,
		red:        playerA,
		white:      playerB,
		committed:  b,
		active:     active,
		turn:       freshTurn(),
		spectators: make(map[string]*atomic.Bool),
		now:        time.Now,
	}
	g.working = g.committed
	g.createdAt = g.now()
	g.lastMoveAt = g.createdAt
	return g
}

func (g *Game) ID() string { return g.id }

func (g *Game) Player(c Color) Player {
	switch c {
	case Red:
		return g.red
	case White:
		return g.white
	}
	return Player{}
}

// ColorOf returns the seat of playerID, or NoColor for non-participants.
func (g *Game) ColorOf(playerID string) Color {
	switch {
	case playerID == "":
		return NoColor
	case playerID == g.red.ID:
		return Red
	case playerID == g.white.ID:
		return White
	}
	return NoColor
}

func (g *Game) ActiveColor() Color {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

func (g *Game) Turn() TurnState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.turn
}

func (g *Game) CreatedAt() time.Time { return g.createdAt }

func (g *Game) LastMoveAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastMoveAt
}

// History returns the committed moves in order.
func (g *Game) History() []Move {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Move(nil), g.history...)
}

// PendingMoves returns the uncommitted moves of the current turn.
func (g *Game) PendingMoves() []Move {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Move(nil), g.pending...)
}

// Board returns the position as viewer sees it. Only the active player
// sees pending moves. NoColor gets the committed board in canonical form.
func (g *Game) Board(viewer Color) Board {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if viewer != NoColor && viewer == g.active {
		return g.working.Oriented(viewer)
	}
	return g.committed.Oriented(viewer)
}

// ValidateMove checks start to end for mover without changing anything.
// Positions are in mover's own coordinates.
func (g *Game) ValidateMove(mover Color, start, end Position) (MoveDecision, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkMover(mover); err != nil {
		return MoveDecision{}, err
	}
	return Validate(&g.working, mover, g.turn,
		ToViewerPerspective(mover, start), ToViewerPerspective(mover, end))
}

// ApplyMove plays the Move of a decision returned by ValidateMove. Its
// squares are canonical. The move is validated again before it is applied.
func (g *Game) ApplyMove(mover Color, mv Move) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.playLocked(mover, mv.Start, mv.End)
	return err
}

// Play validates and applies start to end in one step. Positions are in
// mover's own coordinates.
func (g *Game) Play(mover Color, start, end Position) (MoveDecision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playLocked(mover, ToViewerPerspective(mover, start), ToViewerPerspective(mover, end))
}

func (g *Game) playLocked(mover Color, start, end Position) (MoveDecision, error) {
	if err := g.checkMover(mover); err != nil {
		return MoveDecision{}, err
	}
	d, err := Validate(&g.working, mover, g.turn, start, end)
	if err != nil {
		return MoveDecision{}, err
	}
	applyMove(&g.working, d.Move)
	g.pending = append(g.pending, d.Move)
	g.turn = g.turn.after(d.Move)
	g.flagSpectators(false)
	return d, nil
}

// CommitTurn ends the active player's turn: pending moves are replayed onto
// the committed board in order and the other side becomes active.
// A game won by the pending moves may still be committed.
func (g *Game) CommitTurn() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resigned != NoColor {
		return reject(KindGameAlreadyOver, "%s resigned", g.resigned)
	}
	if len(g.pending) == 0 {
		if _, won := g.winnerLocked(); won {
			return reject(KindGameAlreadyOver, "the game is over")
		}
		return reject(KindNoMoveMade, "make a move before submitting the turn")
	}
	if g.turn.MustContinueCapture {
		return reject(KindChainIncomplete, "the piece on %s must keep jumping",
			ToViewerPerspective(g.active, g.turn.ChainAt))
	}
	for _, m := range g.pending {
		applyMove(&g.committed, m)
	}
	g.history = append(g.history, g.pending...)
	g.pending = nil
	g.active = g.active.Opponent()
	g.turn = freshTurn()
	g.lastMoveAt = g.now()
	g.flagSpectators(true)
	return nil
}

// UndoPending reverses the most recent uncommitted move. It reports false
// when there was nothing to undo.
func (g *Game) UndoPending() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkOver(); err != nil {
		return false, err
	}
	n := len(g.pending)
	if n == 0 {
		return false, nil
	}
	last := g.pending[n-1]
	reverseMove(&g.working, last)
	g.pending = g.pending[:n-1]
	if len(g.pending) == 0 {
		g.pending = nil
	}
	g.turn = TurnState{FirstMove: last.FirstOfTurn, MustContinueCapture: last.ChainContinuation}
	if last.ChainContinuation {
		g.turn.ChainAt = last.Start
	}
	return true, nil
}

// Resign ends the game in favour of c's opponent.
func (g *Game) Resign(c Color) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkOver(); err != nil {
		return err
	}
	if c != Red && c != White {
		return reject(KindNotPlayersTurn, "%s is not seated in this game", c)
	}
	g.resigned = c
	return nil
}

// Winner reports the side whose opponent has no pieces left on the live
// board. Resignation does not make a winner here; see Resigned.
func (g *Game) Winner() (Color, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.winnerLocked()
}

func (g *Game) Resigned() (Color, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resigned, g.resigned != NoColor
}

func (g *Game) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.statusLocked()
}

func (g *Game) Over() bool { return g.Status() != StatusActive }

func (g *Game) statusLocked() Status {
	if g.resigned != NoColor {
		return StatusResigned
	}
	if _, won := g.winnerLocked(); won {
		return StatusWon
	}
	return StatusActive
}

func (g *Game) winnerLocked() (Color, bool) {
	switch {
	case g.working.Count(White) <= 0:
		return Red, true
	case g.working.Count(Red) <= 0:
		return White, true
	}
	return NoColor, false
}

func (g *Game) checkOver() error {
	switch g.statusLocked() {
	case StatusResigned:
		return reject(KindGameAlreadyOver, "%s resigned", g.resigned)
	case StatusWon:
		w, _ := g.winnerLocked()
		return reject(KindGameAlreadyOver, "%s has already won", w)
	}
	return nil
}

func (g *Game) checkMover(mover Color) error {
	if err := g.checkOver(); err != nil {
		return err
	}
	if mover != g.active {
		return reject(KindNotPlayersTurn, "it is %s's turn", g.active)
	}
	return nil
}

// AddSpectator registers id. It reports false if id was already watching.
func (g *Game) AddSpectator(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.spectators[id]; ok {
		return false
	}
	g.spectators[id] = new(atomic.Bool)
	return true
}

func (g *Game) RemoveSpectator(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.spectators, id)
}

func (g *Game) Spectators() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.spectators))
	for id := range g.spectators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TakeNewMove reports whether a turn was committed since the spectator last
// asked, and clears the flag. ok is false for unknown spectators.
func (g *Game) TakeNewMove(id string) (fresh, ok bool) {
	g.mu.RLock()
	flag, ok := g.spectators[id]
	g.mu.RUnlock()
	if !ok {
		return false, false
	}
	return flag.Swap(false), true
}

func (g *Game) flagSpectators(v bool) {
	for _, f := range g.spectators {
		f.Store(v)
	}
}
