package app

import (
	"github.com/wordchain/client/internal/api"
	"github.com/wordchain/client/internal/phase"
	"github.com/wordchain/client/internal/protocol"
	"github.com/wordchain/client/internal/state"
)

type Msg interface{ isAppMsg() }

// User intents. The loop validates each against the phase machine before any
// remote call goes out.
type CreatePlayer struct{ Name string }

type LogIn struct{ ID string }

type LogOut struct{}

type CreateRoom struct{ Params api.CreateRoomParams }

type JoinRoom struct{ ID int64 }

type LeaveRoom struct{}

type StartGame struct{}

// Room-scoped calls that never change phase; they may run concurrently with
// a phase-changing request.
type ToggleReady struct{}

type SetRoomStatus struct{ Status protocol.RoomStatus }

type UpdateRules struct{ Params api.UpdateRoomParams }

// Fire-and-forget sends over the push channel.
type SendChat struct{ Content string }

type SubmitWord struct{ Content string }

// GetView reflects loop-owned state without data races; used by the render
// layer and by tests.
type GetView struct{ Reply chan View }

type Shutdown struct{}

// Internal completions posted back into the loop by worker goroutines.
type callDone struct {
	intent phase.Intent
	player *protocol.Player
	room   *protocol.RoomSummary
	err    error
}

type sessionChecked struct {
	player *protocol.Player
	err    error
}

type statsFetched struct{ stats map[string]float64 }

func (CreatePlayer) isAppMsg()   {}
func (LogIn) isAppMsg()          {}
func (LogOut) isAppMsg()         {}
func (CreateRoom) isAppMsg()     {}
func (JoinRoom) isAppMsg()       {}
func (LeaveRoom) isAppMsg()      {}
func (StartGame) isAppMsg()      {}
func (ToggleReady) isAppMsg()    {}
func (SetRoomStatus) isAppMsg()  {}
func (UpdateRules) isAppMsg()    {}
func (SendChat) isAppMsg()       {}
func (SubmitWord) isAppMsg()     {}
func (GetView) isAppMsg()        {}
func (Shutdown) isAppMsg()       {}
func (callDone) isAppMsg()       {}
func (sessionChecked) isAppMsg() {}
func (statsFetched) isAppMsg()   {}

// View is a point-in-time copy of what the render layer may show. Tree
// pointers share map storage with the loop; consumers treat them read-only.
type View struct {
	Phase        phase.Phase
	InFlight     phase.Intent
	Player       *protocol.Player
	Lobby        *state.LobbyState
	Room         *state.RoomState
	Game         *state.GameState
	Chat         []protocol.ChatMessage
	Remaining    int // countdown seconds; -1 when no countdown is active
	Reconnecting bool
	Errors       map[phase.Intent]error
}
