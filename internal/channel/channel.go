// Package channel owns the single persistent push connection. One reader
// goroutine delivers envelopes strictly in arrival order as typed events;
// outbound envelopes go through a per-connection writer goroutine so sends
// never block the consumer. Transport drops are redialed with doubling
// backoff; a forced disconnect (code 4001) is fatal and never retried.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wordchain/client/internal/protocol"
)

// StatusSuperseded is the server's close code for "another client session
// took over this identity".
const StatusSuperseded websocket.StatusCode = 4001

var errSuperseded = errors.New("session superseded by another client")

type Event interface{ isChannelEvent() }

// Received carries one well-formed push envelope.
type Received struct{ Env protocol.Envelope }

// Superseded reports a forced disconnect; the manager has already stopped.
type Superseded struct{ Reason string }

// Dropped reports a transport drop the manager will retry after Wait.
type Dropped struct {
	Err  error
	Wait time.Duration
}

// Closed reports that the manager stopped for good.
type Closed struct{}

func (Received) isChannelEvent()   {}
func (Superseded) isChannelEvent() {}
func (Dropped) isChannelEvent()    {}
func (Closed) isChannelEvent()     {}

type Manager struct {
	url    string
	log    *zap.Logger
	events chan Event
	outbox chan protocol.Envelope

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewManager(url string, log *zap.Logger) *Manager {
	return &Manager{
		url:        url,
		log:        log.With(zap.String("client_id", uuid.NewString())),
		events:     make(chan Event, 64),
		outbox:     make(chan protocol.Envelope, 16),
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// Events is consumed by exactly one reader; envelope order on it matches
// arrival order on the wire.
func (m *Manager) Events() <-chan Event { return m.events }

// Send queues an envelope fire-and-forget. A full outbox drops the envelope
// rather than blocking the caller.
func (m *Manager) Send(env protocol.Envelope) {
	select {
	case m.outbox <- env:
	default:
		m.log.Warn("outbox full, dropping envelope", zap.String("type", env.Type))
	}
}

// SendChat sends a chat line; the authoritative copy comes back on the push
// path and is what actually lands in the log.
func (m *Manager) SendChat(content, playerName string, roomID int64) {
	env, err := protocol.NewEnvelope(protocol.TypeChat, protocol.ChatOut{
		Content:    content,
		PlayerName: playerName,
		RoomID:     roomID,
	})
	if err != nil {
		m.log.Warn("encoding chat envelope", zap.Error(err))
		return
	}
	m.Send(env)
}

// SendWord submits a word for the current turn; the verdict arrives as a
// game_state push.
func (m *Manager) SendWord(content string) {
	env, err := protocol.NewEnvelope(protocol.TypeWord, protocol.WordOut{Content: content})
	if err != nil {
		m.log.Warn("encoding word envelope", zap.Error(err))
		return
	}
	m.Send(env)
}

// Run owns the connection for the life of ctx. It returns when ctx is done,
// the server closes normally, or the session is superseded.
func (m *Manager) Run(ctx context.Context) error {
	backoff := m.minBackoff
	for {
		conn, _, err := websocket.Dial(ctx, m.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				m.emit(Closed{})
				return ctx.Err()
			}
			if !m.sleep(ctx, backoff, err) {
				m.emit(Closed{})
				return ctx.Err()
			}
			backoff = min(backoff*2, m.maxBackoff)
			continue
		}
		m.log.Info("channel connected")
		backoff = m.minBackoff

		err = m.pump(ctx, conn)
		status := websocket.CloseStatus(err)
		switch {
		case ctx.Err() != nil:
			m.emit(Closed{})
			return ctx.Err()
		case errors.Is(err, errSuperseded) || status == StatusSuperseded:
			m.log.Warn("session superseded, giving up the channel")
			m.emit(Superseded{Reason: err.Error()})
			return nil
		case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
			m.emit(Closed{})
			return nil
		default:
			if !m.sleep(ctx, backoff, err) {
				m.emit(Closed{})
				return ctx.Err()
			}
			backoff = min(backoff*2, m.maxBackoff)
		}
	}
}

// pump reads until the connection dies. Malformed envelopes are logged and
// dropped; they never stop the loop.
func (m *Manager) pump(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	writeCtx, writeCancel := context.WithCancel(ctx)
	defer writeCancel()
	go func() {
		for {
			select {
			case <-writeCtx.Done():
				return
			case env := <-m.outbox:
				payload, err := json.Marshal(env)
				if err != nil {
					m.log.Warn("encoding outbound envelope", zap.Error(err))
					continue
				}
				wctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(wctx, websocket.MessageText, payload)
				cancel()
			}
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			m.log.Warn("dropping malformed envelope", zap.Error(err))
			continue
		}

		switch env.Type {
		case protocol.TypeConnectionState:
			var cs protocol.ConnectionState
			if err := json.Unmarshal(env.Payload, &cs); err != nil {
				m.log.Warn("dropping malformed connection_state", zap.Error(err))
				continue
			}
			if cs.Code == int(StatusSuperseded) {
				return errSuperseded
			}
			m.emit(Received{Env: env})
		case protocol.TypeChat, protocol.TypeLobbyState, protocol.TypeRoomState, protocol.TypeGameState:
			m.emit(Received{Env: env})
		default:
			m.log.Warn("dropping envelope of unknown type", zap.String("type", env.Type))
		}
	}
}

// emit blocks rather than drops: merge correctness depends on every envelope
// reaching the consumer in order.
func (m *Manager) emit(ev Event) { m.events <- ev }

func (m *Manager) sleep(ctx context.Context, d time.Duration, cause error) bool {
	m.log.Warn("channel dropped, reconnecting", zap.Error(cause), zap.Duration("wait", d))
	m.emit(Dropped{Err: cause, Wait: d})
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
