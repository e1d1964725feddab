package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wordchain/client/internal/protocol"
)

func ptr[T any](v T) *T { return &v }

func player(name string) protocol.Player {
	return protocol.Player{ID: name + "-id", Name: name, CreatedOn: time.Unix(1700000000, 0).UTC()}
}

func lobbyWith(names ...string) protocol.LobbyUpdate {
	u := protocol.LobbyUpdate{Players: map[string]*protocol.Player{}}
	for _, n := range names {
		p := player(n)
		u.Players[n] = &p
	}
	return u
}

func TestApplyLobby_FirstPushCreatesTree(t *testing.T) {
	s := NewStore()
	if s.Lobby != nil {
		t.Fatalf("lobby tree should start nil")
	}

	s.ApplyLobby(lobbyWith("Alice", "Bob"))

	if s.Lobby == nil {
		t.Fatalf("lobby tree not created by first push")
	}
	if len(s.Lobby.Players) != 2 {
		t.Fatalf("want 2 players, got %d", len(s.Lobby.Players))
	}
}

func TestApplyLobby_Idempotent(t *testing.T) {
	u := lobbyWith("Alice", "Bob")
	u.Stats = map[string]*float64{"games_played": ptr(41.0)}

	once := NewStore()
	once.ApplyLobby(u)

	twice := NewStore()
	twice.ApplyLobby(u)
	twice.ApplyLobby(u)

	if diff := cmp.Diff(once.Lobby, twice.Lobby); diff != "" {
		t.Fatalf("applying the same payload twice changed the tree:\n%s", diff)
	}
}

func TestApplyLobby_DisjointKeysCommute(t *testing.T) {
	a := lobbyWith("Alice")
	b := lobbyWith("Bob")

	ab := NewStore()
	ab.ApplyLobby(a)
	ab.ApplyLobby(b)

	ba := NewStore()
	ba.ApplyLobby(b)
	ba.ApplyLobby(a)

	if diff := cmp.Diff(ab.Lobby, ba.Lobby); diff != "" {
		t.Fatalf("disjoint-key updates did not commute:\n%s", diff)
	}
}

func TestApplyLobby_SameKeyLastApplierWins(t *testing.T) {
	first := protocol.LobbyUpdate{Stats: map[string]*float64{"rooms_open": ptr(1.0)}}
	second := protocol.LobbyUpdate{Stats: map[string]*float64{"rooms_open": ptr(2.0)}}

	s := NewStore()
	s.ApplyLobby(first)
	s.ApplyLobby(second)

	if got := s.Lobby.Stats["rooms_open"]; got != 2.0 {
		t.Fatalf("want last-applied value 2, got %v", got)
	}
}

func TestApplyLobby_NullSentinelDeletes(t *testing.T) {
	cases := []struct {
		name    string
		initial protocol.LobbyUpdate
		wantLen int
	}{
		{name: "deletes present key", initial: lobbyWith("Alice", "Bob"), wantLen: 1},
		{name: "no-op when key absent", initial: lobbyWith("Bob"), wantLen: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore()
			s.ApplyLobby(tc.initial)
			s.ApplyLobby(protocol.LobbyUpdate{Players: map[string]*protocol.Player{"Alice": nil}})

			if _, ok := s.Lobby.Players["Alice"]; ok {
				t.Fatalf("Alice should have been deleted")
			}
			if len(s.Lobby.Players) != tc.wantLen {
				t.Fatalf("want %d players, got %d", tc.wantLen, len(s.Lobby.Players))
			}
		})
	}
}

func TestApplyLobby_AbsentFieldLeavesTreeAlone(t *testing.T) {
	s := NewStore()
	s.ApplyLobby(lobbyWith("Alice"))

	// A rooms-only push must not disturb the player roster.
	s.ApplyLobby(protocol.LobbyUpdate{
		Rooms: map[int64]*protocol.RoomSummary{7: {ID: 7, Name: "quick game", Capacity: 4, Status: protocol.RoomOpen}},
	})

	if len(s.Lobby.Players) != 1 {
		t.Fatalf("player roster disturbed by rooms-only push: %+v", s.Lobby.Players)
	}
	if len(s.Lobby.Rooms) != 1 {
		t.Fatalf("want 1 room, got %d", len(s.Lobby.Rooms))
	}
}

func roomPush(id int64, names ...string) protocol.RoomUpdate {
	u := protocol.RoomUpdate{ID: id, Players: map[string]*protocol.RoomPlayer{}}
	for _, n := range names {
		u.Players[n] = &protocol.RoomPlayer{Player: player(n)}
	}
	return u
}

func TestApplyRoom_SameIDMerges(t *testing.T) {
	s := NewStore()
	s.ApplyRoom(roomPush(3, "Alice"))
	s.ApplyRoom(roomPush(3, "Bob"))

	if len(s.Room.Players) != 2 {
		t.Fatalf("want merged roster of 2, got %+v", s.Room.Players)
	}
}

func TestSeedRoom_PushForSameIDMergesIn(t *testing.T) {
	s := NewStore()
	s.SeedRoom(protocol.RoomSummary{ID: 3, Name: "fresh room", Capacity: 4, Status: protocol.RoomOpen, OwnerName: "Alice"})

	if s.Room == nil || s.Room.ID != 3 || s.Room.Name != "fresh room" {
		t.Fatalf("seed did not populate the tree: %+v", s.Room)
	}

	s.ApplyRoom(roomPush(3, "Alice"))

	if len(s.Room.Players) != 1 {
		t.Fatalf("push after seed lost the roster: %+v", s.Room.Players)
	}
	if s.Room.Name != "fresh room" || s.Room.OwnerName != "Alice" {
		t.Fatalf("push after seed clobbered seeded fields: %+v", s.Room)
	}
}

func TestApplyRoom_DifferentIDReplacesWholesale(t *testing.T) {
	s := NewStore()
	first := roomPush(3, "Alice", "Bob")
	first.Name = ptr("old room")
	s.ApplyRoom(first)

	// New room shares the name "Alice"; she must still not survive from room 3.
	s.ApplyRoom(roomPush(4, "Alice"))

	if s.Room.ID != 4 {
		t.Fatalf("want room 4, got %d", s.Room.ID)
	}
	if s.Room.Name != "" {
		t.Fatalf("scalar fields must not leak across rooms, got name %q", s.Room.Name)
	}
	if len(s.Room.Players) != 1 {
		t.Fatalf("stale players leaked from previous room: %+v", s.Room.Players)
	}
}

func TestApplyRoom_ReadinessUpsert(t *testing.T) {
	s := NewStore()
	s.ApplyRoom(roomPush(3, "Alice"))

	ready := protocol.RoomPlayer{Player: player("Alice"), IsReady: true}
	s.ApplyRoom(protocol.RoomUpdate{ID: 3, Players: map[string]*protocol.RoomPlayer{"Alice": &ready}})

	if !s.Room.Players["Alice"].IsReady {
		t.Fatalf("readiness upsert lost")
	}
}

func TestApplyGame_ScalarsOverwriteWhenPresent(t *testing.T) {
	s := NewStore()
	s.ApplyGame(protocol.GameUpdate{
		ID:      9,
		Status:  ptr(protocol.GameInProgress),
		Rules:   &protocol.DeathmatchRules{Type: "deathmatch", Penalty: -2, Reward: 3, StartScore: 10, RoundTime: 30},
		Players: []protocol.GamePlayer{{Name: "Alice", Score: 10}, {Name: "Bob", Score: 10}},
	})

	// Status-only push: roster and rules stay as held.
	s.ApplyGame(protocol.GameUpdate{ID: 9, Status: ptr(protocol.GameFinished)})

	if s.Game.Status != protocol.GameFinished {
		t.Fatalf("status not overwritten, got %q", s.Game.Status)
	}
	if len(s.Game.Players) != 2 || s.Game.Rules.RoundTime != 30 {
		t.Fatalf("absent fields were disturbed: %+v", s.Game)
	}
}

func TestApplyGame_TurnPushReanchors(t *testing.T) {
	s := NewStore()
	t0 := time.Unix(1700000000, 0).UTC()
	s.ApplyGame(protocol.GameUpdate{ID: 9, CurrentTurn: &protocol.Turn{PlayerIdx: 0, StartedOn: t0}})
	s.ApplyGame(protocol.GameUpdate{ID: 9, CurrentTurn: &protocol.Turn{PlayerIdx: 1, StartedOn: t0.Add(30 * time.Second)}})

	if s.Game.CurrentTurn.PlayerIdx != 1 {
		t.Fatalf("current turn not replaced, got %+v", s.Game.CurrentTurn)
	}
}

func TestChatLog_FIFOBound(t *testing.T) {
	log := NewChatLog(ChatCapacity)
	for i := 0; i < ChatCapacity+1; i++ {
		log.Append(protocol.ChatMessage{ID: fmt.Sprintf("m%d", i), Content: fmt.Sprintf("msg %d", i)})
	}

	msgs := log.Messages()
	if len(msgs) != ChatCapacity {
		t.Fatalf("want exactly %d messages, got %d", ChatCapacity, len(msgs))
	}
	if msgs[0].ID != "m1" {
		t.Fatalf("oldest message not evicted, head is %s", msgs[0].ID)
	}
	if msgs[len(msgs)-1].ID != fmt.Sprintf("m%d", ChatCapacity) {
		t.Fatalf("arrival order broken, tail is %s", msgs[len(msgs)-1].ID)
	}
}

func TestChatLog_DuplicatesAppendAsDistinctEntries(t *testing.T) {
	log := NewChatLog(ChatCapacity)
	m := protocol.ChatMessage{ID: "dup", Content: "hello"}
	log.Append(m)
	log.Append(m)

	if log.Len() != 2 {
		t.Fatalf("duplicates must not be deduplicated, got len %d", log.Len())
	}
}

func TestChatLog_RestoreAfterFailedLeave(t *testing.T) {
	log := NewChatLog(ChatCapacity)
	log.Append(protocol.ChatMessage{ID: "m0", Content: "hi"})
	snapshot := log.Messages()

	log.Clear()
	if log.Len() != 0 {
		t.Fatalf("clear failed")
	}

	log.Restore(snapshot)
	if diff := cmp.Diff(snapshot, log.Messages()); diff != "" {
		t.Fatalf("restore lost messages:\n%s", diff)
	}
}

func TestReset_TearsDownAllTrees(t *testing.T) {
	s := NewStore()
	s.ApplyLobby(lobbyWith("Alice"))
	s.ApplyRoom(roomPush(3, "Alice"))
	s.ApplyGame(protocol.GameUpdate{ID: 9})
	s.AppendChat(protocol.ChatMessage{ID: "m0"})

	s.Reset()

	if s.Lobby != nil || s.Room != nil || s.Game != nil || s.Chat.Len() != 0 {
		t.Fatalf("reset left stale state behind: %+v", s)
	}
}
