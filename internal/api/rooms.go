package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wordchain/client/internal/protocol"
)

type CreateRoomParams struct {
	Name     string                   `json:"name"`
	Capacity int                      `json:"capacity"`
	Rules    protocol.DeathmatchRules `json:"rules"`
}

type UpdateRoomParams struct {
	Capacity int                      `json:"capacity"`
	Rules    protocol.DeathmatchRules `json:"rules"`
}

func (c *Client) CreateRoom(ctx context.Context, p CreateRoomParams) (*protocol.RoomSummary, error) {
	var room protocol.RoomSummary
	if err := c.do(ctx, http.MethodPost, "/rooms", p, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) UpdateRoom(ctx context.Context, id int64, p UpdateRoomParams) (*protocol.RoomSummary, error) {
	var room protocol.RoomSummary
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/rooms/%d", id), p, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) JoinRoom(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/rooms/%d/join", id), nil, nil)
}

func (c *Client) LeaveRoom(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/rooms/%d/leave", id), nil, nil)
}

// Ready toggles the caller's readiness; the new roster arrives as a
// room_state push rather than in the response.
func (c *Client) Ready(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/rooms/%d/ready", id), nil, nil)
}

func (c *Client) SetRoomStatus(ctx context.Context, id int64, status protocol.RoomStatus) error {
	body := struct {
		Status protocol.RoomStatus `json:"status"`
	}{Status: status}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/rooms/%d/status", id), body, nil)
}

func (c *Client) StartGame(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/rooms/%d/start", id), nil, nil)
}
