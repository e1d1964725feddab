// Package app runs the single-writer event loop at the center of the client.
// Channel envelopes, remote-call completions, user intents, and timer ticks
// all arrive as discrete messages on one inbox; handlers run to completion and
// never block, so the store and the phase machine need no locking. Remote
// calls run in worker goroutines and post their outcome back as messages.
package app

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/wordchain/client/internal/api"
	"github.com/wordchain/client/internal/channel"
	"github.com/wordchain/client/internal/countdown"
	"github.com/wordchain/client/internal/phase"
	"github.com/wordchain/client/internal/protocol"
	"github.com/wordchain/client/internal/state"
)

const (
	tickEvery  = 250 * time.Millisecond
	statsEvery = 30 * time.Second
	// Shown between game start and the first turn push, which carries the
	// real server anchor.
	preGameWait = 3 * time.Second
)

// API is the request/response surface the loop calls out to; *api.Client
// implements it.
type API interface {
	Me(ctx context.Context) (*protocol.Player, error)
	CreatePlayer(ctx context.Context, name string) (*protocol.Player, error)
	Login(ctx context.Context, id string) (*protocol.Player, error)
	Logout(ctx context.Context, id string) error
	CreateRoom(ctx context.Context, p api.CreateRoomParams) (*protocol.RoomSummary, error)
	UpdateRoom(ctx context.Context, id int64, p api.UpdateRoomParams) (*protocol.RoomSummary, error)
	JoinRoom(ctx context.Context, id int64) error
	LeaveRoom(ctx context.Context, id int64) error
	Ready(ctx context.Context, id int64) error
	SetRoomStatus(ctx context.Context, id int64, status protocol.RoomStatus) error
	StartGame(ctx context.Context, id int64) error
	Stats(ctx context.Context) (map[string]float64, error)
}

// Pusher is the push-channel surface; *channel.Manager implements it.
type Pusher interface {
	SendChat(content, playerName string, roomID int64)
	SendWord(content string)
	Events() <-chan channel.Event
}

type App struct {
	log     *zap.Logger
	api     API
	push    Pusher
	store   *state.Store
	machine *phase.Machine
	inbox   chan Msg

	player       *protocol.Player
	reconnecting bool

	turn       *countdown.Countdown
	lastAnchor time.Time
	ticker     *time.Ticker
	remaining  int

	chatBackup []protocol.ChatMessage

	ctx context.Context
}

func New(apiClient API, push Pusher, log *zap.Logger) *App {
	return &App{
		log:       log,
		api:       apiClient,
		push:      push,
		store:     state.NewStore(),
		machine:   phase.NewMachine(),
		inbox:     make(chan Msg, 64),
		remaining: -1,
	}
}

// Inbox is where intents and observation requests go in.
func (a *App) Inbox() chan<- Msg { return a.inbox }

// Run drives the loop until ctx is done or a Shutdown message arrives. It
// opens with a who-am-I check so a surviving session lands straight in the
// lobby.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	go func() {
		p, err := a.api.Me(ctx)
		a.post(sessionChecked{player: p, err: err})
	}()

	stats := time.NewTicker(statsEvery)
	defer stats.Stop()
	defer a.stopCountdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case m := <-a.inbox:
			if _, stop := m.(Shutdown); stop {
				return nil
			}
			a.handle(m)

		case ev := <-a.push.Events():
			a.handleChannel(ev)

		case now := <-a.tickC():
			if a.turn != nil {
				a.remaining = a.turn.Remaining(now)
			}

		case <-stats.C:
			// Read-only poll; runs alongside whatever else is in flight.
			if a.machine.Phase() == phase.Lobby {
				go func() {
					s, err := a.api.Stats(ctx)
					if err != nil {
						a.log.Debug("stats poll failed", zap.Error(err))
						return
					}
					a.post(statsFetched{stats: s})
				}()
			}
		}
	}
}

// post delivers a message back into the loop from a worker goroutine.
func (a *App) post(m Msg) {
	select {
	case a.inbox <- m:
	case <-a.ctx.Done():
	}
}

func (a *App) handle(m Msg) {
	switch m := m.(type) {
	case CreatePlayer:
		if !a.begin(phase.IntentCreatePlayer) {
			return
		}
		go func() {
			p, err := a.api.CreatePlayer(a.ctx, m.Name)
			a.post(callDone{intent: phase.IntentCreatePlayer, player: p, err: err})
		}()

	case LogIn:
		if !a.begin(phase.IntentLogIn) {
			return
		}
		a.logIn(m.ID)

	case LogOut:
		if !a.begin(phase.IntentLogOut) {
			return
		}
		var id string
		if a.player != nil {
			id = a.player.ID
		}
		go func() {
			a.post(callDone{intent: phase.IntentLogOut, err: a.api.Logout(a.ctx, id)})
		}()

	case CreateRoom:
		if !a.begin(phase.IntentCreateRoom) {
			return
		}
		go func() {
			room, err := a.api.CreateRoom(a.ctx, m.Params)
			a.post(callDone{intent: phase.IntentCreateRoom, room: room, err: err})
		}()

	case JoinRoom:
		if !a.begin(phase.IntentJoinRoom) {
			return
		}
		go func() {
			a.post(callDone{intent: phase.IntentJoinRoom, err: a.api.JoinRoom(a.ctx, m.ID)})
		}()

	case LeaveRoom:
		if a.store.Room == nil {
			return
		}
		if !a.begin(phase.IntentLeaveRoom) {
			return
		}
		// Optimistic clear; restored if the call fails.
		a.chatBackup = a.store.Chat.Messages()
		a.store.Chat.Clear()
		id := a.store.Room.ID
		go func() {
			a.post(callDone{intent: phase.IntentLeaveRoom, err: a.api.LeaveRoom(a.ctx, id)})
		}()

	case StartGame:
		if a.store.Room == nil {
			return
		}
		if !a.begin(phase.IntentStartGame) {
			return
		}
		id := a.store.Room.ID
		go func() {
			a.post(callDone{intent: phase.IntentStartGame, err: a.api.StartGame(a.ctx, id)})
		}()

	case ToggleReady:
		a.roomCall("ready", func(ctx context.Context, id int64) error {
			return a.api.Ready(ctx, id)
		})

	case SetRoomStatus:
		status := m.Status
		a.roomCall("status", func(ctx context.Context, id int64) error {
			return a.api.SetRoomStatus(ctx, id, status)
		})

	case UpdateRules:
		params := m.Params
		a.roomCall("rules", func(ctx context.Context, id int64) error {
			_, err := a.api.UpdateRoom(ctx, id, params)
			return err
		})

	case SendChat:
		if a.player == nil || a.store.Room == nil {
			return
		}
		a.push.SendChat(m.Content, a.player.Name, a.store.Room.ID)

	case SubmitWord:
		if a.machine.Phase() != phase.Game {
			return
		}
		a.push.SendWord(m.Content)

	case GetView:
		m.Reply <- a.view()

	case callDone:
		a.resolve(m)

	case sessionChecked:
		switch {
		case m.err == nil && m.player != nil:
			if a.begin(phase.IntentLogIn) {
				_, _ = a.machine.Resolve(phase.IntentLogIn, nil)
				a.player = m.player
			}
		case api.IsAuth(m.err):
			// Cold start without a session; stay logged out quietly.
		default:
			a.log.Warn("session check unreachable", zap.Error(m.err))
			a.reconnecting = true
		}

	case statsFetched:
		if a.store.Lobby == nil {
			a.store.Lobby = &state.LobbyState{}
		}
		if a.store.Lobby.Stats == nil {
			a.store.Lobby.Stats = make(map[string]float64, len(m.stats))
		}
		for k, v := range m.stats {
			a.store.Lobby.Stats[k] = v
		}
	}
}

func (a *App) begin(i phase.Intent) bool {
	if err := a.machine.Begin(i); err != nil {
		a.log.Debug("intent rejected", zap.String("intent", string(i)), zap.Error(err))
		return false
	}
	return true
}

func (a *App) logIn(id string) {
	go func() {
		p, err := a.api.Login(a.ctx, id)
		a.post(callDone{intent: phase.IntentLogIn, player: p, err: err})
	}()
}

// roomCall runs a non-phase-changing room operation; failures are logged,
// never attached to the machine.
func (a *App) roomCall(name string, call func(context.Context, int64) error) {
	if a.machine.Phase() != phase.Room || a.store.Room == nil {
		return
	}
	id := a.store.Room.ID
	go func() {
		if err := call(a.ctx, id); err != nil {
			a.log.Warn("room call failed", zap.String("call", name), zap.Error(err))
		}
	}()
}

func (a *App) resolve(m callDone) {
	ph, err := a.machine.Resolve(m.intent, m.err)
	if err != nil {
		a.log.Warn("orphan call completion", zap.String("intent", string(m.intent)), zap.Error(err))
		return
	}
	if m.err != nil && api.IsAuth(m.err) && m.intent != phase.IntentLogIn && m.intent != phase.IntentLogOut {
		// The session died under us mid-flow.
		a.forceLogout("credential expired")
		return
	}

	switch m.intent {
	case phase.IntentCreatePlayer:
		// A freshly created player is logged in immediately.
		if m.err == nil && m.player != nil && a.begin(phase.IntentLogIn) {
			a.logIn(m.player.ID)
		}

	case phase.IntentLogIn:
		if m.err == nil {
			a.player = m.player
		}

	case phase.IntentCreateRoom:
		// The response is the first view of the room; a push that beat the
		// confirmation here already holds fresher state and wins.
		if m.err == nil && m.room != nil && a.store.Room == nil {
			a.store.SeedRoom(*m.room)
		}

	case phase.IntentLeaveRoom:
		if m.err == nil {
			a.store.ClearRoom()
			a.store.ClearGame()
			a.stopCountdown()
		} else {
			a.store.Chat.Restore(a.chatBackup)
		}
		a.chatBackup = nil

	case phase.IntentStartGame:
		if m.err == nil && ph == phase.Game {
			// A game push may have landed while the confirmation was in
			// flight; prefer its server anchor over the fixed wait.
			a.syncGame()
			if a.turn == nil {
				a.setCountdown(time.Now(), preGameWait)
			}
		}

	case phase.IntentLogOut:
		// Best-effort on the wire, unconditional locally.
		a.player = nil
		a.store.Reset()
		a.stopCountdown()
	}
}

func (a *App) handleChannel(ev channel.Event) {
	switch ev := ev.(type) {
	case channel.Received:
		a.reconnecting = false
		a.dispatch(ev.Env)
	case channel.Dropped:
		a.reconnecting = true
	case channel.Superseded:
		a.forceLogout(ev.Reason)
	case channel.Closed:
		a.reconnecting = false
	}
}

// dispatch folds one push envelope into the store. Malformed payloads are
// dropped and logged; they never corrupt held state.
func (a *App) dispatch(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeChat:
		var msg protocol.ChatMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			a.drop(env.Type, err)
			return
		}
		a.store.AppendChat(msg)

	case protocol.TypeLobbyState:
		var u protocol.LobbyUpdate
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			a.drop(env.Type, err)
			return
		}
		a.store.ApplyLobby(u)

	case protocol.TypeRoomState:
		var u protocol.RoomUpdate
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			a.drop(env.Type, err)
			return
		}
		a.store.ApplyRoom(u)

	case protocol.TypeGameState:
		var u protocol.GameUpdate
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			a.drop(env.Type, err)
			return
		}
		a.store.ApplyGame(u)
		a.syncGame()

	case protocol.TypeConnectionState:
		var cs protocol.ConnectionState
		if err := json.Unmarshal(env.Payload, &cs); err != nil {
			a.drop(env.Type, err)
			return
		}
		if cs.Code == int(channel.StatusSuperseded) {
			a.forceLogout(cs.Reason)
		}
	}
}

func (a *App) drop(typ string, err error) {
	a.log.Warn("dropping malformed payload", zap.String("type", typ), zap.Error(err))
}

// syncGame aligns phase and countdown with the freshly merged game tree.
// State can run ahead of phase here: non-owner clients first learn a game
// started from this push.
func (a *App) syncGame() {
	g := a.store.Game
	if g == nil {
		return
	}
	entered := false
	if g.Status == protocol.GameInProgress {
		entered = a.machine.NoteGameStarted()
	}
	if a.machine.Phase() != phase.Game {
		return
	}
	switch {
	case g.Status == protocol.GameFinished:
		a.stopCountdown()
	case g.CurrentTurn != nil && !g.CurrentTurn.StartedOn.Equal(a.lastAnchor):
		a.lastAnchor = g.CurrentTurn.StartedOn
		a.setCountdown(g.CurrentTurn.StartedOn, time.Duration(g.Rules.RoundTime)*time.Second)
	case entered && a.turn == nil:
		// Push-driven entry with no turn yet: same fixed wait the owner
		// gets from the start confirmation.
		a.setCountdown(time.Now(), preGameWait)
	}
}

func (a *App) setCountdown(anchor time.Time, d time.Duration) {
	c := countdown.New(anchor, d)
	a.turn = &c
	a.remaining = c.Remaining(time.Now())
	if a.ticker == nil {
		a.ticker = time.NewTicker(tickEvery)
	}
}

// stopCountdown releases the periodic trigger; a timer outliving its phase
// would keep mutating a dead view.
func (a *App) stopCountdown() {
	if a.ticker != nil {
		a.ticker.Stop()
		a.ticker = nil
	}
	a.turn = nil
	a.lastAnchor = time.Time{}
	a.remaining = -1
}

func (a *App) tickC() <-chan time.Time {
	if a.ticker == nil {
		return nil
	}
	return a.ticker.C
}

// forceLogout tears everything down synchronously before re-entering
// LoggedOut, so the next login never flashes a stale roster or countdown.
func (a *App) forceLogout(reason string) {
	a.log.Warn("forced logout", zap.String("reason", reason))
	a.stopCountdown()
	a.store.Reset()
	a.player = nil
	a.machine.ForceLoggedOut()
}

func (a *App) view() View {
	return View{
		Phase:        a.machine.Phase(),
		InFlight:     a.machine.InFlight(),
		Player:       a.player,
		Lobby:        a.store.Lobby,
		Room:         a.store.Room,
		Game:         a.store.Game,
		Chat:         a.store.Chat.Messages(),
		Remaining:    a.remaining,
		Reconnecting: a.reconnecting,
		Errors:       a.machine.Errors(),
	}
}
