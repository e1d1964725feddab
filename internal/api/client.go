// Package api wraps the game server's request/response surface: the identity
// handshake plus the one-shot room and stats calls. The session credential is
// an opaque cookie the jar carries on every call; callers only ever observe
// the translated outcome.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wordchain/client/internal/protocol"
)

type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

func New(base string, log *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
		log:  log,
	}, nil
}

// errorBody is the server's shape for rejected requests.
type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindInternal, Msg: err.Error()}
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return &Error{Kind: KindInternal, Msg: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindConnectivity, Msg: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindConnectivity, Msg: err.Error()}
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		if eb.Message == "" {
			eb.Message = http.StatusText(resp.StatusCode)
		}
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return &Error{Kind: KindAuth, Status: resp.StatusCode, Msg: eb.Message}
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
			return &Error{Kind: KindValidation, Status: resp.StatusCode, Msg: eb.Message, Fields: eb.Errors}
		default:
			return &Error{Kind: KindInternal, Status: resp.StatusCode, Msg: eb.Message}
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Kind: KindInternal, Msg: "bad response body: " + err.Error()}
		}
	}
	return nil
}

// Me exchanges whatever ambient credential the jar holds for the Player it
// identifies. The three outcomes the caller distinguishes: a Player, an auth
// failure (not logged in), or a connectivity failure (unknown either way).
func (c *Client) Me(ctx context.Context) (*protocol.Player, error) {
	var p protocol.Player
	if err := c.do(ctx, http.MethodGet, "/players/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePlayer(ctx context.Context, name string) (*protocol.Player, error) {
	var p protocol.Player
	body := struct {
		Name string `json:"name"`
	}{Name: name}
	if err := c.do(ctx, http.MethodPost, "/players", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Login exchanges a known player id for a refreshed Player and a fresh
// session cookie, which the jar picks up transparently.
func (c *Client) Login(ctx context.Context, id string) (*protocol.Player, error) {
	var p protocol.Player
	body := struct {
		ID string `json:"id"`
	}{ID: id}
	if err := c.do(ctx, http.MethodPost, "/players/login", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Logout invalidates the session server-side. Safe to call with the channel
// already gone; the caller treats any failure as best-effort.
func (c *Client) Logout(ctx context.Context, id string) error {
	body := struct {
		ID string `json:"id"`
	}{ID: id}
	return c.do(ctx, http.MethodPost, "/players/logout", body, nil)
}

func (c *Client) Stats(ctx context.Context) (map[string]float64, error) {
	stats := map[string]float64{}
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
