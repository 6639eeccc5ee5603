package match

import (
	"context"
	"strings"

	"github.com/park285/Cheese-Checkers/internal/checkers"
)

// ReplayFrame is what a viewer of a replay sees at the current cursor.
type ReplayFrame struct {
	GameID   string
	Viewer   checkers.Color
	Cursor   int
	Total    int
	AtStart  bool
	AtEnd    bool
	Active   checkers.Color
	LastMove *checkers.Move
	Board    checkers.Board
}

// StartReplay opens an archived game for viewerID, replacing any replay the
// viewer had open. The board is oriented for viewer (Red if unset).
func (m *Manager) StartReplay(ctx context.Context, viewerID, gameID string, viewer checkers.Color) (ReplayFrame, error) {
	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return ReplayFrame{}, ErrInvalidArgs
	}
	snap, err := m.ArchivedGame(ctx, gameID)
	if err != nil {
		return ReplayFrame{}, err
	}
	if viewer == checkers.NoColor {
		viewer = checkers.Red
	}
	r := &replay{session: checkers.BeginReplay(*snap), viewer: viewer}
	m.mu.Lock()
	m.replays[viewerID] = r
	frame := r.frame()
	m.mu.Unlock()
	return frame, nil
}

// ReplayNext advances one turn. moved is false at the end.
func (m *Manager) ReplayNext(viewerID string) (frame ReplayFrame, moved bool, err error) {
	return m.stepReplay(viewerID, (*checkers.ReplaySession).StepForward)
}

// ReplayPrevious goes back one turn. moved is false at the start.
func (m *Manager) ReplayPrevious(viewerID string) (frame ReplayFrame, moved bool, err error) {
	return m.stepReplay(viewerID, (*checkers.ReplaySession).StepBackward)
}

func (m *Manager) stepReplay(viewerID string, step func(*checkers.ReplaySession) bool) (ReplayFrame, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.replays[strings.TrimSpace(viewerID)]
	if !ok {
		return ReplayFrame{}, false, ErrNoReplay
	}
	moved := step(r.session)
	return r.frame(), moved, nil
}

func (m *Manager) CurrentReplay(viewerID string) (ReplayFrame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.replays[strings.TrimSpace(viewerID)]
	if !ok {
		return ReplayFrame{}, ErrNoReplay
	}
	return r.frame(), nil
}

func (m *Manager) StopReplay(viewerID string) {
	m.mu.Lock()
	delete(m.replays, strings.TrimSpace(viewerID))
	m.mu.Unlock()
}

func (r *replay) frame() ReplayFrame {
	s := r.session
	f := ReplayFrame{
		GameID:  s.Game().ID,
		Viewer:  r.viewer,
		Cursor:  s.Cursor(),
		Total:   s.Len(),
		AtStart: s.AtStart(),
		AtEnd:   s.AtEnd(),
		Active:  s.Active(),
		Board:   s.Board(r.viewer),
	}
	if mv, ok := s.LastMove(); ok {
		mv = mv.ForViewer(r.viewer)
		f.LastMove = &mv
	}
	return f
}
