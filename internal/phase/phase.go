// Package phase is the control-flow state machine: it decides which user
// intents are legal in the current phase and tracks the single phase-changing
// request allowed in flight. It performs no IO itself; the app loop issues the
// remote call an accepted intent stands for and reports the outcome back via
// Resolve.
package phase

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrBusy          = errors.New("request already in flight")
	ErrInvalidPhase  = errors.New("intent not legal in current phase")
	ErrUnknownIntent = errors.New("unknown intent")
	ErrNotInFlight   = errors.New("no such request in flight")
)

type Phase string

const (
	LoggedOut      Phase = "logged_out"
	LoggingIn      Phase = "logging_in"
	CreatingPlayer Phase = "creating_player"
	Lobby          Phase = "lobby"
	JoiningRoom    Phase = "joining_room"
	CreatingRoom   Phase = "creating_room"
	Room           Phase = "room"
	LoggingOut     Phase = "logging_out"
	Game           Phase = "game"
)

type Intent string

const (
	IntentCreatePlayer Intent = "create_player"
	IntentLogIn        Intent = "log_in"
	IntentLogOut       Intent = "log_out"
	IntentCreateRoom   Intent = "create_room"
	IntentJoinRoom     Intent = "join_room"
	IntentLeaveRoom    Intent = "leave_room"
	IntentStartGame    Intent = "start_game"
)

type transition struct {
	from      []Phase
	transient Phase // phase shown while the request is in flight; "" = stay put
	success   Phase
	// forced intents land on success even when the remote call fails
	// (logout is best-effort).
	forced bool
}

var table = map[Intent]transition{
	IntentCreatePlayer: {from: []Phase{LoggedOut}, transient: CreatingPlayer, success: LoggedOut},
	IntentLogIn:        {from: []Phase{LoggedOut}, transient: LoggingIn, success: Lobby},
	IntentCreateRoom:   {from: []Phase{Lobby}, transient: CreatingRoom, success: Room},
	IntentJoinRoom:     {from: []Phase{Lobby}, transient: JoiningRoom, success: Room},
	IntentLeaveRoom:    {from: []Phase{Room, Game}, success: Lobby},
	IntentStartGame:    {from: []Phase{Room}, success: Game},
	IntentLogOut:       {from: []Phase{Lobby, Room, Game}, transient: LoggingOut, success: LoggedOut, forced: true},
}

type Machine struct {
	phase    Phase
	inflight Intent // "" when idle
	origin   Phase  // where to return on failure
	errs     map[Intent]error
}

func NewMachine() *Machine {
	return &Machine{phase: LoggedOut, errs: make(map[Intent]error)}
}

func (m *Machine) Phase() Phase     { return m.phase }
func (m *Machine) InFlight() Intent { return m.inflight }

// Err returns the error recorded for an intent, nil if none.
func (m *Machine) Err(i Intent) error { return m.errs[i] }

// Errors returns a copy of the recorded per-intent errors.
func (m *Machine) Errors() map[Intent]error {
	return maps.Clone(m.errs)
}

// Begin validates the intent against the current phase and the in-flight
// guard, then enters the intent's transient phase. A Begin that returns nil
// obligates the caller to eventually Resolve the same intent.
func (m *Machine) Begin(i Intent) error {
	tr, ok := table[i]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownIntent, i)
	}
	if m.inflight != "" {
		return fmt.Errorf("%w: %s", ErrBusy, m.inflight)
	}
	if !slices.Contains(tr.from, m.phase) {
		return fmt.Errorf("%w: %s in %s", ErrInvalidPhase, i, m.phase)
	}
	m.origin = m.phase
	m.inflight = i
	if tr.transient != "" {
		m.phase = tr.transient
	}
	return nil
}

// Resolve completes the in-flight intent. Success (or any outcome of a forced
// intent) lands on the table's success phase and clears every recorded error;
// failure returns the machine to where the intent began and records err under
// the intent that produced it.
func (m *Machine) Resolve(i Intent, err error) (Phase, error) {
	if m.inflight != i {
		return m.phase, fmt.Errorf("%w: %s", ErrNotInFlight, i)
	}
	tr := table[i]
	m.inflight = ""
	if err == nil || tr.forced {
		m.phase = tr.success
		clear(m.errs)
		return m.phase, nil
	}
	m.phase = m.origin
	m.errs[i] = err
	return m.phase, nil
}

// NoteGameStarted is the push-driven entry into Game: room members who never
// issued startGame learn about the game from a game_state push.
func (m *Machine) NoteGameStarted() bool {
	if m.phase != Room || m.inflight != "" {
		return false
	}
	m.phase = Game
	return true
}

// ForceLoggedOut is the forced-disconnect path: no request/response pair, the
// machine drops straight to LoggedOut and abandons any in-flight intent.
func (m *Machine) ForceLoggedOut() {
	m.phase = LoggedOut
	m.inflight = ""
	clear(m.errs)
}
