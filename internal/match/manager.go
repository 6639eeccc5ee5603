package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers/internal/archive"
	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/obslog"
)

var (
	ErrInvalidArgs    = errors.New("invalid arguments")
	ErrGameNotFound   = errors.New("game not found")
	ErrNotParticipant = errors.New("user is not playing in this game")
	ErrPlayerBusy     = errors.New("player already has a live game")
	ErrTooManyGames   = errors.New("live game limit reached")
	ErrNoReplay       = errors.New("no replay in progress")
)

// Manager is the process-wide registry of live games. It is created once
// and passed to whoever needs it.
type Manager struct {
	mu      sync.RWMutex
	games   map[string]*entry
	byUser  map[string]string
	replays map[string]*replay

	store   *Store
	archive archive.Store
	maxLive int
	newID   func() string
}

type entry struct {
	game    *checkers.Game
	version atomic.Int64
}

type replay struct {
	session *checkers.ReplaySession
	viewer  checkers.Color
}

type Options struct {
	// Store is optional; without it live games are not snapshotted.
	Store *Store
	// Archive defaults to an in-memory store.
	Archive      archive.Store
	MaxLiveGames int
}

func NewManager(opts Options) *Manager {
	arch := opts.Archive
	if arch == nil {
		arch = archive.NewMemoryStore()
	}
	return &Manager{
		games:   make(map[string]*entry),
		byUser:  make(map[string]string),
		replays: make(map[string]*replay),
		store:   opts.Store,
		archive: arch,
		maxLive: opts.MaxLiveGames,
		newID:   uuid.NewString,
	}
}

func (m *Manager) Close() error {
	var err error
	if m.store != nil {
		err = multierr.Append(err, m.store.Close())
	}
	return multierr.Append(err, m.archive.Close())
}

// CreateGame pairs red and white in a fresh game. Red moves first.
func (m *Manager) CreateGame(ctx context.Context, red, white checkers.Player) (*checkers.Game, error) {
	red.ID, white.ID = strings.TrimSpace(red.ID), strings.TrimSpace(white.ID)
	red.Name, white.Name = strings.TrimSpace(red.Name), strings.TrimSpace(white.Name)
	if red.ID == "" || white.ID == "" || red.ID == white.ID {
		return nil, ErrInvalidArgs
	}
	if red.Name == "" {
		red.Name = red.ID
	}
	if white.Name == "" {
		white.Name = white.ID
	}

	m.mu.Lock()
	if _, busy := m.byUser[red.ID]; busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPlayerBusy, red.Name)
	}
	if _, busy := m.byUser[white.ID]; busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPlayerBusy, white.Name)
	}
	if m.maxLive > 0 && len(m.games) >= m.maxLive {
		m.mu.Unlock()
		return nil, ErrTooManyGames
	}
	e := &entry{game: checkers.NewGame(m.newID(), red, white)}
	m.register(e)
	m.mu.Unlock()

	id := e.game.ID()
	if m.store != nil {
		if err := m.store.Index(ctx, id, red.ID, white.ID); err != nil {
			obslog.L().Warn("checkers_index_error", zap.String("game_id", id), zap.Error(err))
		}
	}
	m.persist(ctx, e)
	obslog.L().Info("checkers_game_create",
		zap.String("game_id", id),
		zap.String("red_id", red.ID),
		zap.String("white_id", white.ID),
	)
	return e.game, nil
}

// register must be called with m.mu held.
func (m *Manager) register(e *entry) {
	g := e.game
	m.games[g.ID()] = e
	m.byUser[g.Player(checkers.Red).ID] = g.ID()
	m.byUser[g.Player(checkers.White).ID] = g.ID()
}

// Game returns a live game, restoring it from its snapshot if needed.
func (m *Manager) Game(ctx context.Context, id string) (*checkers.Game, error) {
	e, err := m.lookup(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return e.game, nil
}

// GameForUser returns the live game userID is seated in.
func (m *Manager) GameForUser(ctx context.Context, userID string) (*checkers.Game, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidArgs
	}
	m.mu.RLock()
	id, ok := m.byUser[userID]
	m.mu.RUnlock()
	if ok {
		return m.Game(ctx, id)
	}
	if m.store == nil {
		return nil, ErrGameNotFound
	}
	ids, err := m.store.GamesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		g, err := m.Game(ctx, id)
		if err == nil && !g.Over() {
			return g, nil
		}
	}
	return nil, ErrGameNotFound
}

func (m *Manager) lookup(ctx context.Context, id string) (*entry, error) {
	if id == "" {
		return nil, ErrInvalidArgs
	}
	m.mu.RLock()
	e, ok := m.games[id]
	m.mu.RUnlock()
	if ok {
		return e, nil
	}
	if m.store == nil {
		return nil, ErrGameNotFound
	}
	snap, version, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrGameNotFound
	}
	g, err := checkers.Restore(*snap)
	if err != nil {
		obslog.L().Error("checkers_restore_error", zap.String("game_id", id), zap.Error(err))
		return nil, fmt.Errorf("restore game %s: %w", id, err)
	}
	restored := &entry{game: g}
	restored.version.Store(version)

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.games[id]; ok {
		return e, nil
	}
	m.register(restored)
	obslog.L().Info("checkers_restore", zap.String("game_id", id), zap.Int("moves", len(snap.History)))
	return restored, nil
}

// seat resolves the game and the caller's color in it.
func (m *Manager) seat(ctx context.Context, gameID, userID string) (*entry, checkers.Color, error) {
	e, err := m.lookup(ctx, strings.TrimSpace(gameID))
	if err != nil {
		return nil, checkers.NoColor, err
	}
	c := e.game.ColorOf(strings.TrimSpace(userID))
	if c == checkers.NoColor {
		return nil, checkers.NoColor, ErrNotParticipant
	}
	return e, c, nil
}

// Validate checks a move for userID without applying it. Positions are in
// the user's own view.
func (m *Manager) Validate(ctx context.Context, gameID, userID string, start, end checkers.Position) (checkers.MoveDecision, error) {
	e, c, err := m.seat(ctx, gameID, userID)
	if err != nil {
		return checkers.MoveDecision{}, err
	}
	return e.game.ValidateMove(c, start, end)
}

// Play validates and applies a move as a pending move of userID's turn.
func (m *Manager) Play(ctx context.Context, gameID, userID string, start, end checkers.Position) (checkers.MoveDecision, error) {
	e, c, err := m.seat(ctx, gameID, userID)
	if err != nil {
		return checkers.MoveDecision{}, err
	}
	d, err := e.game.Play(c, start, end)
	if err != nil {
		return d, err
	}
	obslog.L().Info("checkers_move",
		zap.String("game_id", e.game.ID()),
		zap.String("user_id", userID),
		zap.Stringer("move", d.Move),
		zap.Bool("must_continue", d.MustContinueCapture),
	)
	m.persist(ctx, e)
	return d, nil
}

// Submit commits userID's pending moves. A game ended by the commit is archived.
func (m *Manager) Submit(ctx context.Context, gameID, userID string) error {
	e, c, err := m.seat(ctx, gameID, userID)
	if err != nil {
		return err
	}
	if err := m.requireTurn(e.game, c); err != nil {
		return err
	}
	if err := e.game.CommitTurn(); err != nil {
		return err
	}
	obslog.L().Info("checkers_commit",
		zap.String("game_id", e.game.ID()),
		zap.String("user_id", userID),
		zap.Stringer("next", e.game.ActiveColor()),
	)
	if e.game.Over() {
		m.finish(ctx, e)
		return nil
	}
	m.persist(ctx, e)
	return nil
}

// Backup undoes userID's most recent pending move.
func (m *Manager) Backup(ctx context.Context, gameID, userID string) (bool, error) {
	e, c, err := m.seat(ctx, gameID, userID)
	if err != nil {
		return false, err
	}
	if err := m.requireTurn(e.game, c); err != nil {
		return false, err
	}
	undone, err := e.game.UndoPending()
	if err != nil || !undone {
		return undone, err
	}
	obslog.L().Info("checkers_undo", zap.String("game_id", e.game.ID()), zap.String("user_id", userID))
	m.persist(ctx, e)
	return true, nil
}

// Resign ends the game in favour of userID's opponent and archives it.
func (m *Manager) Resign(ctx context.Context, gameID, userID string) error {
	e, c, err := m.seat(ctx, gameID, userID)
	if err != nil {
		return err
	}
	if err := e.game.Resign(c); err != nil {
		return err
	}
	obslog.L().Info("checkers_resign",
		zap.String("game_id", e.game.ID()),
		zap.String("resigner", userID),
		zap.Stringer("color", c),
	)
	m.finish(ctx, e)
	return nil
}

// requireTurn only checks whose turn it is. The game itself rejects calls on
// a finished game, except the commit of the turn that won it.
func (m *Manager) requireTurn(g *checkers.Game, c checkers.Color) error {
	if active := g.ActiveColor(); active != c {
		return &checkers.Rejection{Kind: checkers.KindNotPlayersTurn, Reason: fmt.Sprintf("it is %s's turn", active)}
	}
	return nil
}

// Spectate adds spectatorID to a live game. Players cannot spectate their own game.
func (m *Manager) Spectate(ctx context.Context, gameID, spectatorID string) (*checkers.Game, error) {
	spectatorID = strings.TrimSpace(spectatorID)
	if spectatorID == "" {
		return nil, ErrInvalidArgs
	}
	e, err := m.lookup(ctx, strings.TrimSpace(gameID))
	if err != nil {
		return nil, err
	}
	if e.game.ColorOf(spectatorID) != checkers.NoColor {
		return nil, ErrInvalidArgs
	}
	e.game.AddSpectator(spectatorID)
	return e.game, nil
}

func (m *Manager) StopSpectating(ctx context.Context, gameID, spectatorID string) error {
	e, err := m.lookup(ctx, strings.TrimSpace(gameID))
	if err != nil {
		return err
	}
	e.game.RemoveSpectator(strings.TrimSpace(spectatorID))
	return nil
}

// CheckTurn reports whether a turn was committed since spectatorID last asked.
// A game that has ended since reports true, so the spectator can leave.
func (m *Manager) CheckTurn(ctx context.Context, gameID, spectatorID string) (bool, error) {
	gameID = strings.TrimSpace(gameID)
	e, err := m.lookup(ctx, gameID)
	if errors.Is(err, ErrGameNotFound) {
		if _, aerr := m.archive.Load(ctx, gameID); aerr == nil {
			return true, nil
		}
	}
	if err != nil {
		return false, err
	}
	fresh, ok := e.game.TakeNewMove(strings.TrimSpace(spectatorID))
	if !ok {
		return false, ErrInvalidArgs
	}
	return fresh, nil
}

// IdleFor is the time since the game's last committed turn.
func (m *Manager) IdleFor(ctx context.Context, gameID string, now time.Time) (time.Duration, error) {
	g, err := m.Game(ctx, gameID)
	if err != nil {
		return 0, err
	}
	return now.Sub(g.LastMoveAt()), nil
}

// LiveGames returns the ids of games in memory.
func (m *Manager) LiveGames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	return ids
}

// finish archives a terminal game and drops it from the live registry.
func (m *Manager) finish(ctx context.Context, e *entry) {
	g := e.game
	snap := g.Snapshot()
	red, white := g.Player(checkers.Red).ID, g.Player(checkers.White).ID

	m.mu.Lock()
	delete(m.games, g.ID())
	if m.byUser[red] == g.ID() {
		delete(m.byUser, red)
	}
	if m.byUser[white] == g.ID() {
		delete(m.byUser, white)
	}
	m.mu.Unlock()

	if err := m.archive.Save(ctx, snap); err != nil {
		obslog.L().Error("checkers_archive_error", zap.String("game_id", g.ID()), zap.Error(err))
	} else {
		obslog.L().Info("checkers_archive",
			zap.String("game_id", g.ID()),
			zap.String("status", string(snap.Status)),
			zap.Stringer("winner", archive.Winner(snap)),
			zap.String("method", archive.Method(snap)),
		)
	}
	if m.store != nil {
		if err := m.store.Delete(ctx, g.ID(), red, white); err != nil {
			obslog.L().Warn("checkers_snapshot_error", zap.String("game_id", g.ID()), zap.Error(err))
		}
	}
}

// persist snapshots a live game. Failures are logged; the in-memory game
// stays authoritative.
func (m *Manager) persist(ctx context.Context, e *entry) {
	if m.store == nil {
		return
	}
	v := e.version.Add(1)
	err := m.store.Save(ctx, v, e.game.Snapshot())
	switch {
	case errors.Is(err, ErrStaleSnapshot):
		obslog.L().Debug("checkers_snapshot_stale", zap.String("game_id", e.game.ID()), zap.Int64("version", v))
	case err != nil:
		obslog.L().Warn("checkers_snapshot_error", zap.String("game_id", e.game.ID()), zap.Error(err))
	}
}

// Archived lists finished games, most recent first.
func (m *Manager) Archived(ctx context.Context, limit int) ([]archive.Summary, error) {
	return m.archive.List(ctx, limit)
}

func (m *Manager) ArchivedGame(ctx context.Context, id string) (*checkers.Snapshot, error) {
	snap, err := m.archive.Load(ctx, strings.TrimSpace(id))
	if errors.Is(err, archive.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	return snap, err
}
