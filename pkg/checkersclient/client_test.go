package checkersclient

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/Cheese-Checkers/internal/httpapi"
	"github.com/park285/Cheese-Checkers/internal/match"
	"github.com/park285/Cheese-Checkers/internal/msgcat"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
)

func serve(t *testing.T, h fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: h}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return New("http://checkers.test",
		WithTimeout(2*time.Second),
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
	)
}

func newAPI(t *testing.T, maxLive int) *Client {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	mgr := match.NewManager(match.Options{MaxLiveGames: maxLive})
	t.Cleanup(func() { _ = mgr.Close() })
	return serve(t, httpapi.New(mgr, cat, 10).Handler())
}

func pos(r, c int) checkersdto.Position { return checkersdto.Position{Row: r, Cell: c} }

func TestClientPlaysATurn(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t, 0)

	g, err := c.CreateGame(ctx, checkersdto.Player{ID: "u-alice", Name: "alice"}, checkersdto.Player{ID: "u-bob", Name: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "red", g.ActiveColor)

	resp, err := c.Play(ctx, g.ID, "u-alice", pos(5, 2), pos(4, 3))
	require.NoError(t, err)
	assert.Equal(t, checkersdto.MessageInfo, resp.Message.Type)

	msg, err := c.Submit(ctx, g.ID, "u-alice")
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "white")

	view, err := c.Game(ctx, g.ID, "u-bob")
	require.NoError(t, err)
	assert.Equal(t, "white", view.ActiveColor)
	assert.Equal(t, "white", view.Board.Viewer)

	_, err = c.Submit(ctx, g.ID, "u-alice")
	var derr checkersdto.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "not_players_turn", derr.Code)

	_, err = c.Resign(ctx, g.ID, "u-bob")
	require.NoError(t, err)
	entry, err := c.ArchivedGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "red", entry.Winner)
	assert.Equal(t, "resignation", entry.Method)
}

func TestClientRetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString(`{"code":"too_many_games","message":"busy","retryable":true}`)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`[]`)
	})

	list, err := c.Archive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClientDoesNotRetryMoves(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("boom")
	})

	_, err := c.Play(context.Background(), "g", "u", pos(5, 2), pos(4, 3))
	var derr checkersdto.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "http_500", derr.Code)
	assert.Equal(t, "boom", derr.Message)
	assert.EqualValues(t, 1, calls.Load())
}
