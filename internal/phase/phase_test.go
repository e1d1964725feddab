package phase

import (
	"errors"
	"testing"
)

// walk drives the machine through a sequence of successful transitions.
func walk(t *testing.T, m *Machine, intents ...Intent) {
	t.Helper()
	for _, i := range intents {
		if err := m.Begin(i); err != nil {
			t.Fatalf("Begin(%s): %v", i, err)
		}
		if _, err := m.Resolve(i, nil); err != nil {
			t.Fatalf("Resolve(%s): %v", i, err)
		}
	}
}

func TestMachine_StartsLoggedOut(t *testing.T) {
	m := NewMachine()
	if m.Phase() != LoggedOut {
		t.Fatalf("initial phase = %s, want %s", m.Phase(), LoggedOut)
	}
}

func TestMachine_HappyPathToGame(t *testing.T) {
	m := NewMachine()
	walk(t, m, IntentLogIn, IntentCreateRoom, IntentStartGame)
	if m.Phase() != Game {
		t.Fatalf("phase = %s, want %s", m.Phase(), Game)
	}
}

func TestMachine_GuardsByPhase(t *testing.T) {
	cases := []struct {
		name   string
		setup  []Intent // successful transitions to reach the starting phase
		intent Intent
		ok     bool
	}{
		{name: "startGame from Lobby rejected", setup: []Intent{IntentLogIn}, intent: IntentStartGame, ok: false},
		{name: "startGame from Room accepted", setup: []Intent{IntentLogIn, IntentCreateRoom}, intent: IntentStartGame, ok: true},
		{name: "createRoom from LoggedOut rejected", setup: nil, intent: IntentCreateRoom, ok: false},
		{name: "joinRoom from Lobby accepted", setup: []Intent{IntentLogIn}, intent: IntentJoinRoom, ok: true},
		{name: "leaveRoom from Lobby rejected", setup: []Intent{IntentLogIn}, intent: IntentLeaveRoom, ok: false},
		{name: "leaveRoom from Game accepted", setup: []Intent{IntentLogIn, IntentCreateRoom, IntentStartGame}, intent: IntentLeaveRoom, ok: true},
		{name: "logOut from LoggedOut rejected", setup: nil, intent: IntentLogOut, ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine()
			walk(t, m, tc.setup...)
			err := m.Begin(tc.intent)
			if tc.ok && err != nil {
				t.Fatalf("unexpected rejection: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidPhase) {
				t.Fatalf("want ErrInvalidPhase, got %v", err)
			}
		})
	}
}

func TestMachine_TransientPhaseWhileInFlight(t *testing.T) {
	m := NewMachine()
	if err := m.Begin(IntentLogIn); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if m.Phase() != LoggingIn {
		t.Fatalf("phase while in flight = %s, want %s", m.Phase(), LoggingIn)
	}
	if m.InFlight() != IntentLogIn {
		t.Fatalf("InFlight = %s", m.InFlight())
	}
}

func TestMachine_SecondIntentWhileInFlightRejected(t *testing.T) {
	m := NewMachine()
	walk(t, m, IntentLogIn)

	if err := m.Begin(IntentJoinRoom); err != nil {
		t.Fatalf("Begin(joinRoom): %v", err)
	}
	if err := m.Begin(IntentCreateRoom); !errors.Is(err, ErrBusy) {
		t.Fatalf("want ErrBusy, got %v", err)
	}
	// Rejected, not queued: resolving the first leaves nothing pending.
	if _, err := m.Resolve(IntentJoinRoom, nil); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.InFlight() != "" {
		t.Fatalf("unexpected pending intent %s", m.InFlight())
	}
}

func TestMachine_FailureRestoresOriginAndRecordsError(t *testing.T) {
	m := NewMachine()
	walk(t, m, IntentLogIn)

	if err := m.Begin(IntentJoinRoom); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	boom := errors.New("room is full")
	got, err := m.Resolve(IntentJoinRoom, boom)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != Lobby {
		t.Fatalf("failed join should land back in Lobby, got %s", got)
	}
	if !errors.Is(m.Err(IntentJoinRoom), boom) {
		t.Fatalf("error not recorded under joinRoom: %v", m.Err(IntentJoinRoom))
	}
}

func TestMachine_ErrorsClearedOnNextSuccess(t *testing.T) {
	m := NewMachine()
	walk(t, m, IntentLogIn)

	_ = m.Begin(IntentJoinRoom)
	_, _ = m.Resolve(IntentJoinRoom, errors.New("room is full"))

	walk(t, m, IntentCreateRoom)
	if m.Err(IntentJoinRoom) != nil {
		t.Fatalf("stale error survived a successful transition: %v", m.Err(IntentJoinRoom))
	}
}

func TestMachine_LogOutTransitionsEvenOnFailure(t *testing.T) {
	m := NewMachine()
	walk(t, m, IntentLogIn, IntentCreateRoom, IntentStartGame)

	if err := m.Begin(IntentLogOut); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	got, err := m.Resolve(IntentLogOut, errors.New("server unreachable"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != LoggedOut {
		t.Fatalf("best-effort logout must land LoggedOut, got %s", got)
	}
}

func TestMachine_ResolveWithoutBegin(t *testing.T) {
	m := NewMachine()
	if _, err := m.Resolve(IntentLogIn, nil); !errors.Is(err, ErrNotInFlight) {
		t.Fatalf("want ErrNotInFlight, got %v", err)
	}
}

func TestMachine_NoteGameStarted(t *testing.T) {
	m := NewMachine()
	walk(t, m, IntentLogIn, IntentJoinRoom)

	if !m.NoteGameStarted() {
		t.Fatalf("push-driven game entry rejected from Room")
	}
	if m.Phase() != Game {
		t.Fatalf("phase = %s, want %s", m.Phase(), Game)
	}
	// Idempotent-ish: a second push while already in Game changes nothing.
	if m.NoteGameStarted() {
		t.Fatalf("game entry accepted twice")
	}
}

func TestMachine_NoteGameStartedBlockedWhileInFlight(t *testing.T) {
	m := NewMachine()
	walk(t, m, IntentLogIn, IntentJoinRoom)
	_ = m.Begin(IntentLeaveRoom)

	if m.NoteGameStarted() {
		t.Fatalf("game entry must not preempt an in-flight leave")
	}
}

func TestMachine_ForceLoggedOut(t *testing.T) {
	m := NewMachine()
	walk(t, m, IntentLogIn, IntentCreateRoom, IntentStartGame)
	_ = m.Begin(IntentLeaveRoom)

	m.ForceLoggedOut()

	if m.Phase() != LoggedOut {
		t.Fatalf("phase = %s, want %s", m.Phase(), LoggedOut)
	}
	if m.InFlight() != "" {
		t.Fatalf("in-flight intent survived forced disconnect")
	}
}
