package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers/internal/archive"
	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/match"
	"github.com/park285/Cheese-Checkers/internal/msgcat"
	"github.com/park285/Cheese-Checkers/internal/obslog"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
)

// Server exposes the match manager as JSON over fasthttp.
type Server struct {
	mgr          *match.Manager
	cat          *msgcat.Catalog
	archiveLimit int
	srv          *fasthttp.Server
}

func New(mgr *match.Manager, cat *msgcat.Catalog, archiveLimit int) *Server {
	s := &Server{mgr: mgr, cat: cat, archiveLimit: archiveLimit}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler(),
		Name:         "checkers",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	obslog.L().Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler routes requests by path segment.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		parts := strings.Split(strings.Trim(string(ctx.Path()), "/"), "/")
		method := string(ctx.Method())
		switch {
		case len(parts) == 1 && parts[0] == "healthz":
			writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
		case parts[0] == "games":
			s.routeGames(ctx, method, parts[1:])
		case parts[0] == "archive":
			s.routeArchive(ctx, method, parts[1:])
		case parts[0] == "replays":
			s.routeReplays(ctx, method, parts[1:])
		default:
			s.notFound(ctx)
		}
	}
}

func (s *Server) routeGames(ctx *fasthttp.RequestCtx, method string, rest []string) {
	switch {
	case len(rest) == 0 && method == fasthttp.MethodPost:
		s.createGame(ctx)
	case len(rest) == 1 && method == fasthttp.MethodGet:
		s.getGame(ctx, rest[0])
	case len(rest) == 2 && method == fasthttp.MethodPost:
		switch rest[1] {
		case "validate":
			s.move(ctx, rest[0], false)
		case "moves":
			s.move(ctx, rest[0], true)
		case "submit":
			s.submit(ctx, rest[0])
		case "backup":
			s.backup(ctx, rest[0])
		case "resign":
			s.resign(ctx, rest[0])
		case "spectators":
			s.spectate(ctx, rest[0])
		default:
			s.notFound(ctx)
		}
	case len(rest) == 3 && rest[1] == "spectators" && method == fasthttp.MethodDelete:
		if err := s.mgr.StopSpectating(ctx, rest[0], rest[2]); err != nil {
			s.writeError(ctx, err)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	case len(rest) == 4 && rest[1] == "spectators" && rest[3] == "check" && method == fasthttp.MethodGet:
		s.checkTurn(ctx, rest[0], rest[2])
	default:
		s.notFound(ctx)
	}
}

func (s *Server) routeArchive(ctx *fasthttp.RequestCtx, method string, rest []string) {
	if method != fasthttp.MethodGet {
		s.notFound(ctx)
		return
	}
	switch len(rest) {
	case 0:
		list, err := s.mgr.Archived(ctx, s.archiveLimit)
		if err != nil {
			s.writeError(ctx, err)
			return
		}
		out := make([]checkersdto.ArchiveEntry, 0, len(list))
		for _, e := range list {
			out = append(out, archiveEntry(e))
		}
		writeJSON(ctx, fasthttp.StatusOK, out)
	case 1:
		snap, err := s.mgr.ArchivedGame(ctx, rest[0])
		if err != nil {
			s.writeError(ctx, err)
			return
		}
		e := checkersdto.ArchiveEntry{
			ID:       snap.ID,
			Red:      snap.Red.Name,
			White:    snap.White.Name,
			Status:   string(snap.Status),
			Method:   archive.Method(*snap),
			Moves:    len(snap.History),
			EndedAt:  snap.LastMoveAt,
			Notation: archive.Notation(*snap),
		}
		if w := archive.Winner(*snap); w != checkers.NoColor {
			e.Winner = w.String()
		}
		writeJSON(ctx, fasthttp.StatusOK, e)
	default:
		s.notFound(ctx)
	}
}

func (s *Server) routeReplays(ctx *fasthttp.RequestCtx, method string, rest []string) {
	switch {
	case len(rest) == 0 && method == fasthttp.MethodPost:
		var req checkersdto.ReplayRequest
		if !decode(ctx, &req) {
			return
		}
		color, err := checkers.ParseColor(req.Color)
		if err != nil {
			s.writeError(ctx, match.ErrInvalidArgs)
			return
		}
		f, err := s.mgr.StartReplay(ctx, req.ViewerID, req.GameID, color)
		if err != nil {
			s.writeError(ctx, err)
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, replayView(f))
	case len(rest) == 1 && method == fasthttp.MethodGet:
		f, err := s.mgr.CurrentReplay(rest[0])
		if err != nil {
			s.writeError(ctx, err)
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, replayView(f))
	case len(rest) == 1 && method == fasthttp.MethodDelete:
		s.mgr.StopReplay(rest[0])
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	case len(rest) == 2 && method == fasthttp.MethodPost && (rest[1] == "next" || rest[1] == "previous"):
		step := s.mgr.ReplayNext
		edge := "replay.at_end"
		if rest[1] == "previous" {
			step, edge = s.mgr.ReplayPrevious, "replay.at_start"
		}
		f, moved, err := step(rest[0])
		if err != nil {
			s.writeError(ctx, err)
			return
		}
		body := struct {
			checkersdto.ReplayView
			Message *checkersdto.Message `json:"message,omitempty"`
		}{ReplayView: replayView(f)}
		if !moved {
			msg := checkersdto.Info(s.cat.RenderOr(edge, nil, "No more moves."))
			body.Message = &msg
		}
		writeJSON(ctx, fasthttp.StatusOK, body)
	default:
		s.notFound(ctx)
	}
}

func (s *Server) createGame(ctx *fasthttp.RequestCtx) {
	var req checkersdto.CreateGameRequest
	if !decode(ctx, &req) {
		return
	}
	g, err := s.mgr.CreateGame(ctx,
		checkers.Player{ID: req.Red.ID, Name: req.Red.Name},
		checkers.Player{ID: req.White.ID, Name: req.White.Name})
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, gameView(g, checkers.Red))
}

// getGame shows the game to ?viewer=<user id>. Anyone else gets the
// committed position from Red's side.
func (s *Server) getGame(ctx *fasthttp.RequestCtx, id string) {
	g, err := s.mgr.Game(ctx, id)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	viewer := g.ColorOf(string(ctx.QueryArgs().Peek("viewer")))
	writeJSON(ctx, fasthttp.StatusOK, gameView(g, viewer))
}

func (s *Server) move(ctx *fasthttp.RequestCtx, gameID string, apply bool) {
	var req checkersdto.MoveRequest
	if !decode(ctx, &req) {
		return
	}
	start, end := fromPosition(req.Start), fromPosition(req.End)
	var (
		d   checkers.MoveDecision
		err error
	)
	if apply {
		d, err = s.mgr.Play(ctx, gameID, req.UserID, start, end)
	} else {
		d, err = s.mgr.Validate(ctx, gameID, req.UserID, start, end)
	}
	if err != nil {
		if rej, ok := checkers.AsRejection(err); ok {
			text := s.cat.RenderOr("move.invalid", map[string]any{"Reason": s.rejectionText(rej)}, rej.Error())
			writeJSON(ctx, fasthttp.StatusOK, checkersdto.MoveResponse{Message: checkersdto.Error(text)})
			return
		}
		s.writeError(ctx, err)
		return
	}
	key := "move.valid"
	if d.MustContinueCapture {
		key = "move.continue"
	}
	g, err := s.mgr.Game(ctx, gameID)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	mv := toMove(d.Move.ForViewer(g.ColorOf(req.UserID)))
	writeJSON(ctx, fasthttp.StatusOK, checkersdto.MoveResponse{
		Message:      checkersdto.Info(s.cat.RenderOr(key, nil, "This is a valid move.")),
		MustContinue: d.MustContinueCapture,
		Move:         &mv,
	})
}

func (s *Server) submit(ctx *fasthttp.RequestCtx, gameID string) {
	var req checkersdto.TurnRequest
	if !decode(ctx, &req) {
		return
	}
	g, err := s.mgr.Game(ctx, gameID)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	if err := s.mgr.Submit(ctx, gameID, req.UserID); err != nil {
		s.writeError(ctx, err)
		return
	}
	if w, won := g.Winner(); won {
		text := s.cat.RenderOr("game.won", map[string]any{"Name": g.Player(w).Name}, "The game is over.")
		writeJSON(ctx, fasthttp.StatusOK, checkersdto.Info(text))
		return
	}
	next := g.ActiveColor()
	writeJSON(ctx, fasthttp.StatusOK, checkersdto.Info(
		s.cat.RenderOr("turn.submitted", map[string]any{"Color": next.String()}, "Turn submitted.")))
}

func (s *Server) backup(ctx *fasthttp.RequestCtx, gameID string) {
	var req checkersdto.TurnRequest
	if !decode(ctx, &req) {
		return
	}
	undone, err := s.mgr.Backup(ctx, gameID, req.UserID)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	if !undone {
		writeJSON(ctx, fasthttp.StatusOK, checkersdto.Error(s.cat.RenderOr("turn.nothing_to_backup", nil, "Nothing to back up.")))
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, checkersdto.Info(s.cat.RenderOr("turn.backup", nil, "Move undone.")))
}

func (s *Server) resign(ctx *fasthttp.RequestCtx, gameID string) {
	var req checkersdto.TurnRequest
	if !decode(ctx, &req) {
		return
	}
	g, err := s.mgr.Game(ctx, gameID)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	if err := s.mgr.Resign(ctx, gameID, req.UserID); err != nil {
		s.writeError(ctx, err)
		return
	}
	name := g.Player(g.ColorOf(req.UserID)).Name
	writeJSON(ctx, fasthttp.StatusOK, checkersdto.Info(
		s.cat.RenderOr("game.resigned", map[string]any{"Name": name}, "Resigned.")))
}

func (s *Server) spectate(ctx *fasthttp.RequestCtx, gameID string) {
	var req checkersdto.SpectateRequest
	if !decode(ctx, &req) {
		return
	}
	g, err := s.mgr.Spectate(ctx, gameID, req.SpectatorID)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, gameView(g, checkers.NoColor))
}

func (s *Server) checkTurn(ctx *fasthttp.RequestCtx, gameID, spectatorID string) {
	fresh, err := s.mgr.CheckTurn(ctx, gameID, spectatorID)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	if !fresh {
		writeJSON(ctx, fasthttp.StatusOK, checkersdto.Info(s.cat.RenderOr("spectator.no_change", nil, "No new move yet.")))
		return
	}
	color := "a player"
	if g, err := s.mgr.Game(ctx, gameID); err == nil {
		color = g.ActiveColor().Opponent().String()
	}
	writeJSON(ctx, fasthttp.StatusOK, checkersdto.Info(
		s.cat.RenderOr("spectator.new_move", map[string]any{"Color": color}, "A new move has been made.")))
}

func (s *Server) rejectionText(rej *checkers.Rejection) string {
	return s.cat.RenderOr("rejection."+string(rej.Kind), map[string]any{"Reason": rej.Reason}, rej.Reason)
}

func (s *Server) notFound(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusNotFound, checkersdto.DomainError{Code: "not_found", Message: "no such route"})
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, err error) {
	if rej, ok := checkers.AsRejection(err); ok {
		writeJSON(ctx, fasthttp.StatusConflict, checkersdto.DomainError{Code: string(rej.Kind), Message: s.rejectionText(rej)})
		return
	}
	status, code, retry := fasthttp.StatusInternalServerError, "internal", false
	msg := err.Error()
	switch {
	case errors.Is(err, match.ErrGameNotFound):
		status, code = fasthttp.StatusNotFound, "game_not_found"
		msg = s.cat.RenderOr("game.not_found", nil, msg)
	case errors.Is(err, match.ErrNotParticipant):
		status, code = fasthttp.StatusForbidden, "not_participant"
		msg = s.cat.RenderOr("game.not_participant", nil, msg)
	case errors.Is(err, match.ErrInvalidArgs):
		status, code = fasthttp.StatusBadRequest, "invalid_args"
	case errors.Is(err, match.ErrPlayerBusy):
		status, code = fasthttp.StatusConflict, "player_busy"
	case errors.Is(err, match.ErrTooManyGames):
		status, code, retry = fasthttp.StatusServiceUnavailable, "too_many_games", true
	case errors.Is(err, match.ErrNoReplay):
		status, code = fasthttp.StatusNotFound, "no_replay"
	default:
		obslog.L().Error("http_internal_error", zap.ByteString("path", ctx.Path()), zap.Error(err))
	}
	writeJSON(ctx, status, checkersdto.DomainError{Code: code, Message: msg, Retryable: retry})
}

func decode(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, checkersdto.DomainError{Code: "bad_request", Message: err.Error()})
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
