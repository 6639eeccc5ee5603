package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/Cheese-Checkers/internal/match"
	"github.com/park285/Cheese-Checkers/internal/msgcat"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
)

func newTestServer(t *testing.T) fasthttp.RequestHandler {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	mgr := match.NewManager(match.Options{})
	t.Cleanup(func() { _ = mgr.Close() })
	return New(mgr, cat, 10).Handler()
}

func call(t *testing.T, h fasthttp.RequestHandler, method, uri string, body any) *fasthttp.RequestCtx {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBody(b)
	}
	h(&ctx)
	return &ctx
}

func decodeBody(t *testing.T, ctx *fasthttp.RequestCtx, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), v), "body: %s", ctx.Response.Body())
}

func createGame(t *testing.T, h fasthttp.RequestHandler) string {
	t.Helper()
	ctx := call(t, h, fasthttp.MethodPost, "/games", checkersdto.CreateGameRequest{
		Red:   checkersdto.Player{ID: "u-alice", Name: "alice"},
		White: checkersdto.Player{ID: "u-bob", Name: "bob"},
	})
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	var view checkersdto.GameView
	decodeBody(t, ctx, &view)
	require.NotEmpty(t, view.ID)
	return view.ID
}

func move(t *testing.T, h fasthttp.RequestHandler, id, action, user string, sr, sc, er, ec int) checkersdto.MoveResponse {
	t.Helper()
	ctx := call(t, h, fasthttp.MethodPost, "/games/"+id+"/"+action, checkersdto.MoveRequest{
		UserID: user,
		Start:  checkersdto.Position{Row: sr, Cell: sc},
		End:    checkersdto.Position{Row: er, Cell: ec},
	})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var resp checkersdto.MoveResponse
	decodeBody(t, ctx, &resp)
	return resp
}

func TestGameFlow(t *testing.T) {
	h := newTestServer(t)
	id := createGame(t, h)

	var view checkersdto.GameView
	decodeBody(t, call(t, h, fasthttp.MethodGet, "/games/"+id+"?viewer=u-bob", nil), &view)
	assert.Equal(t, "white", view.Board.Viewer)
	assert.Equal(t, "red", view.ActiveColor)
	assert.Equal(t, "ACTIVE", view.Status)
	require.Len(t, view.Board.Rows, 8)
	assert.Equal(t, 12, view.Board.RedPieces)
	// White's own men sit at the bottom of White's view.
	require.NotNil(t, view.Board.Rows[5].Spaces[0].Piece)
	assert.Equal(t, "white", view.Board.Rows[5].Spaces[0].Piece.Color)

	resp := move(t, h, id, "validate", "u-alice", 5, 2, 3, 2)
	assert.Equal(t, checkersdto.MessageError, resp.Message.Type)

	resp = move(t, h, id, "validate", "u-alice", 5, 2, 4, 3)
	assert.Equal(t, checkersdto.MessageInfo, resp.Message.Type)

	resp = move(t, h, id, "moves", "u-alice", 5, 2, 4, 3)
	require.Equal(t, checkersdto.MessageInfo, resp.Message.Type)
	require.NotNil(t, resp.Move)
	assert.Equal(t, checkersdto.Position{Row: 4, Cell: 3}, resp.Move.End)

	resp = move(t, h, id, "moves", "u-alice", 5, 4, 4, 5)
	assert.Equal(t, checkersdto.MessageError, resp.Message.Type)
	assert.Contains(t, resp.Message.Text, "already moved")

	// Bob only sees the committed board while alice's move is pending.
	decodeBody(t, call(t, h, fasthttp.MethodGet, "/games/"+id+"?viewer=u-bob", nil), &view)
	assert.Empty(t, view.Pending)
	decodeBody(t, call(t, h, fasthttp.MethodGet, "/games/"+id+"?viewer=u-alice", nil), &view)
	require.Len(t, view.Pending, 1)

	ctx := call(t, h, fasthttp.MethodPost, "/games/"+id+"/submit", checkersdto.TurnRequest{UserID: "u-bob"})
	require.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())
	var derr checkersdto.DomainError
	decodeBody(t, ctx, &derr)
	assert.Equal(t, "not_players_turn", derr.Code)

	ctx = call(t, h, fasthttp.MethodPost, "/games/"+id+"/submit", checkersdto.TurnRequest{UserID: "u-alice"})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var msg checkersdto.Message
	decodeBody(t, ctx, &msg)
	assert.Equal(t, "It is now the white player's turn.", msg.Text)

	resp = move(t, h, id, "moves", "u-bob", 5, 2, 4, 3)
	require.Equal(t, checkersdto.MessageInfo, resp.Message.Type)
	ctx = call(t, h, fasthttp.MethodPost, "/games/"+id+"/backup", checkersdto.TurnRequest{UserID: "u-bob"})
	decodeBody(t, ctx, &msg)
	assert.Equal(t, checkersdto.MessageInfo, msg.Type)
	ctx = call(t, h, fasthttp.MethodPost, "/games/"+id+"/backup", checkersdto.TurnRequest{UserID: "u-bob"})
	decodeBody(t, ctx, &msg)
	assert.Equal(t, checkersdto.MessageError, msg.Type)

	ctx = call(t, h, fasthttp.MethodPost, "/games/"+id+"/submit", checkersdto.TurnRequest{UserID: "u-bob"})
	require.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())
	decodeBody(t, ctx, &derr)
	assert.Equal(t, "no_move_made", derr.Code)
}

func TestSpectateResignAndReplay(t *testing.T) {
	h := newTestServer(t)
	id := createGame(t, h)

	ctx := call(t, h, fasthttp.MethodPost, "/games/"+id+"/spectators", checkersdto.SpectateRequest{SpectatorID: "u-watch"})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var msg checkersdto.Message
	decodeBody(t, call(t, h, fasthttp.MethodGet, "/games/"+id+"/spectators/u-watch/check", nil), &msg)
	assert.Equal(t, "No new move yet.", msg.Text)

	move(t, h, id, "moves", "u-alice", 5, 2, 4, 3)
	call(t, h, fasthttp.MethodPost, "/games/"+id+"/submit", checkersdto.TurnRequest{UserID: "u-alice"})
	decodeBody(t, call(t, h, fasthttp.MethodGet, "/games/"+id+"/spectators/u-watch/check", nil), &msg)
	assert.Equal(t, "red has moved.", msg.Text)

	ctx = call(t, h, fasthttp.MethodPost, "/games/"+id+"/resign", checkersdto.TurnRequest{UserID: "u-bob"})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	decodeBody(t, ctx, &msg)
	assert.Equal(t, "bob has resigned.", msg.Text)

	ctx = call(t, h, fasthttp.MethodGet, "/games/"+id, nil)
	require.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	var list []checkersdto.ArchiveEntry
	decodeBody(t, call(t, h, fasthttp.MethodGet, "/archive", nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, "red", list[0].Winner)
	assert.Equal(t, 1, list[0].Moves)

	var entry checkersdto.ArchiveEntry
	decodeBody(t, call(t, h, fasthttp.MethodGet, "/archive/"+id, nil), &entry)
	assert.Contains(t, entry.Notation, "1. 22-18")

	var rv checkersdto.ReplayView
	ctx = call(t, h, fasthttp.MethodPost, "/replays", checkersdto.ReplayRequest{ViewerID: "u-watch", GameID: id, Color: "red"})
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	decodeBody(t, ctx, &rv)
	assert.True(t, rv.AtStart)
	assert.Equal(t, 1, rv.Total)

	decodeBody(t, call(t, h, fasthttp.MethodPost, "/replays/u-watch/next", nil), &rv)
	assert.True(t, rv.AtEnd)
	require.NotNil(t, rv.LastMove)
	assert.Equal(t, "white", rv.ActiveColor)

	var edge struct {
		checkersdto.ReplayView
		Message *checkersdto.Message `json:"message"`
	}
	decodeBody(t, call(t, h, fasthttp.MethodPost, "/replays/u-watch/next", nil), &edge)
	require.NotNil(t, edge.Message)
	assert.Equal(t, "This is the end of the game.", edge.Message.Text)

	ctx = call(t, h, fasthttp.MethodDelete, "/replays/u-watch", nil)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	ctx = call(t, h, fasthttp.MethodGet, "/replays/u-watch", nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestErrors(t *testing.T) {
	h := newTestServer(t)

	ctx := call(t, h, fasthttp.MethodPost, "/games", checkersdto.CreateGameRequest{
		Red: checkersdto.Player{ID: "same"}, White: checkersdto.Player{ID: "same"},
	})
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	id := createGame(t, h)
	ctx = call(t, h, fasthttp.MethodPost, "/games/"+id+"/moves", checkersdto.MoveRequest{UserID: "u-mallory"})
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	ctx = call(t, h, fasthttp.MethodGet, "/games/nope", nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	var derr checkersdto.DomainError
	decodeBody(t, ctx, &derr)
	assert.Equal(t, "That game does not exist.", derr.Message)

	var ctxBad fasthttp.RequestCtx
	ctxBad.Request.Header.SetMethod(fasthttp.MethodPost)
	ctxBad.Request.SetRequestURI("/games")
	ctxBad.Request.SetBodyString("{")
	h(&ctxBad)
	assert.Equal(t, fasthttp.StatusBadRequest, ctxBad.Response.StatusCode())

	ctx = call(t, h, fasthttp.MethodGet, "/nowhere", nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	var health map[string]string
	decodeBody(t, call(t, h, fasthttp.MethodGet, "/healthz", nil), &health)
	assert.Equal(t, "ok", health["status"])
}

func TestServeAndShutdown(t *testing.T) {
	cat, err := msgcat.New("")
	require.NoError(t, err)
	mgr := match.NewManager(match.Options{})
	t.Cleanup(func() { _ = mgr.Close() })
	srv := New(mgr, cat, 10)

	ln := fasthttputil.NewInmemoryListener()
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	client := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
	status, body, err := client.Get(nil, "http://checkers.test/healthz")
	require.NoError(t, err)
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}
