package checkers

import (
	"errors"
	"fmt"
	"time"
)

// Snapshot is a detached, serialisable record of a game. Terminal snapshots
// are what gets archived and replayed.
type Snapshot struct {
	ID          string    `json:"id"`
	Red         Player    `json:"red"`
	White       Player    `json:"white"`
	Active      Color     `json:"active"`
	Status      Status    `json:"status"`
	Winner      Color     `json:"winner,omitempty"`
	Resigned    Color     `json:"resigned,omitempty"`
	History     []Move    `json:"history"`
	Pending     []Move    `json:"pending,omitempty"`
	RedPieces   int       `json:"red_pieces"`
	WhitePieces int       `json:"white_pieces"`
	CreatedAt   time.Time `json:"created_at"`
	LastMoveAt  time.Time `json:"last_move_at"`
}

func (g *Game) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	winner, _ := g.winnerLocked()
	return Snapshot{
		ID:          g.id,
		Red:         g.red,
		White:       g.white,
		Active:      g.active,
		Status:      g.statusLocked(),
		Winner:      winner,
		Resigned:    g.resigned,
		History:     append([]Move(nil), g.history...),
		Pending:     append([]Move(nil), g.pending...),
		RedPieces:   g.working.Count(Red),
		WhitePieces: g.working.Count(White),
		CreatedAt:   g.createdAt,
		LastMoveAt:  g.lastMoveAt,
	}
}

// Restore rebuilds a live game from s by replaying every recorded move
// through the validator. A record that does not replay cleanly is rejected.
func Restore(s Snapshot) (*Game, error) {
	if s.ID == "" {
		return nil, errors.New("restore: snapshot has no id")
	}
	g := NewGame(s.ID, s.Red, s.White)
	for i, m := range s.History {
		if m.Mover != g.active {
			if err := g.CommitTurn(); err != nil {
				return nil, fmt.Errorf("restore %s: commit before move %d: %w", s.ID, i, err)
			}
		}
		if err := g.ApplyMove(m.Mover, m); err != nil {
			return nil, fmt.Errorf("restore %s: move %d (%s): %w", s.ID, i, m, err)
		}
	}
	if len(s.History) > 0 {
		if err := g.CommitTurn(); err != nil {
			return nil, fmt.Errorf("restore %s: final commit: %w", s.ID, err)
		}
	}
	for i, m := range s.Pending {
		if err := g.ApplyMove(m.Mover, m); err != nil {
			return nil, fmt.Errorf("restore %s: pending move %d (%s): %w", s.ID, i, m, err)
		}
	}
	if s.Active != NoColor && s.Active != g.active {
		return nil, fmt.Errorf("restore %s: active color %s does not match replayed %s", s.ID, s.Active, g.active)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.resigned = s.Resigned
	if !s.CreatedAt.IsZero() {
		g.createdAt = s.CreatedAt
	}
	if !s.LastMoveAt.IsZero() {
		g.lastMoveAt = s.LastMoveAt
	}
	return g, nil
}
