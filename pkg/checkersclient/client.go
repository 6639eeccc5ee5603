// Package checkersclient is a Go client for the checkers HTTP API.
package checkersclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
)

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateGame(ctx context.Context, red, white checkersdto.Player) (*checkersdto.GameView, error) {
	var out checkersdto.GameView
	req := checkersdto.CreateGameRequest{Red: red, White: white}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/games", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Game fetches the game as viewerID sees it.
func (c *Client) Game(ctx context.Context, gameID, viewerID string) (*checkersdto.GameView, error) {
	var out checkersdto.GameView
	path := "/games/" + url.PathEscape(gameID) + "?viewer=" + url.QueryEscape(viewerID)
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Validate(ctx context.Context, gameID, userID string, start, end checkersdto.Position) (*checkersdto.MoveResponse, error) {
	return c.move(ctx, gameID, "validate", userID, start, end)
}

func (c *Client) Play(ctx context.Context, gameID, userID string, start, end checkersdto.Position) (*checkersdto.MoveResponse, error) {
	return c.move(ctx, gameID, "moves", userID, start, end)
}

func (c *Client) move(ctx context.Context, gameID, action, userID string, start, end checkersdto.Position) (*checkersdto.MoveResponse, error) {
	var out checkersdto.MoveResponse
	req := checkersdto.MoveRequest{UserID: userID, Start: start, End: end}
	if err := c.doJSON(ctx, fasthttp.MethodPost, gamePath(gameID, action), req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Submit(ctx context.Context, gameID, userID string) (checkersdto.Message, error) {
	return c.turn(ctx, gameID, "submit", userID)
}

func (c *Client) Backup(ctx context.Context, gameID, userID string) (checkersdto.Message, error) {
	return c.turn(ctx, gameID, "backup", userID)
}

func (c *Client) Resign(ctx context.Context, gameID, userID string) (checkersdto.Message, error) {
	return c.turn(ctx, gameID, "resign", userID)
}

func (c *Client) turn(ctx context.Context, gameID, action, userID string) (checkersdto.Message, error) {
	var out checkersdto.Message
	err := c.doJSON(ctx, fasthttp.MethodPost, gamePath(gameID, action), checkersdto.TurnRequest{UserID: userID}, &out, false)
	return out, err
}

func (c *Client) Spectate(ctx context.Context, gameID, spectatorID string) (*checkersdto.GameView, error) {
	var out checkersdto.GameView
	req := checkersdto.SpectateRequest{SpectatorID: spectatorID}
	if err := c.doJSON(ctx, fasthttp.MethodPost, gamePath(gameID, "spectators"), req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckTurn polls for a committed turn on behalf of a spectator.
func (c *Client) CheckTurn(ctx context.Context, gameID, spectatorID string) (checkersdto.Message, error) {
	var out checkersdto.Message
	path := gamePath(gameID, "spectators") + "/" + url.PathEscape(spectatorID) + "/check"
	err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out, true)
	return out, err
}

func (c *Client) Archive(ctx context.Context) ([]checkersdto.ArchiveEntry, error) {
	var out []checkersdto.ArchiveEntry
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/archive", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ArchivedGame(ctx context.Context, gameID string) (*checkersdto.ArchiveEntry, error) {
	var out checkersdto.ArchiveEntry
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/archive/"+url.PathEscape(gameID), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func gamePath(gameID, action string) string {
	return "/games/" + url.PathEscape(gameID) + "/" + action
}

// doJSON sends in as JSON and decodes a 2xx body into out. Error statuses
// come back as checkersdto.DomainError. Only idempotent calls retry.
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			derr := decodeError(status, resp.Body())
			if attempt == attempts || !shouldRetry(status, derr) {
				return derr
			}
			lastErr = derr
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil && status != fasthttp.StatusNoContent {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func decodeError(status int, body []byte) checkersdto.DomainError {
	var derr checkersdto.DomainError
	if err := json.Unmarshal(body, &derr); err != nil || derr.Code == "" {
		return checkersdto.DomainError{
			Code:      fmt.Sprintf("http_%d", status),
			Message:   truncate(string(body), 512),
			Retryable: status >= 500,
		}
	}
	return derr
}

func shouldRetry(status int, derr checkersdto.DomainError) bool {
	switch status {
	case 500, 502, 503, 504:
		return true
	}
	return derr.Retryable
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
