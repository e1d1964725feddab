// Package state holds the three scoped trees the server pushes differential
// updates into, plus the bounded chat log. Each tree starts nil, is created by
// the first push of its kind, merged thereafter, and nilled out again when the
// owning phase is exited. Nothing here locks: the app loop is the only writer.
package state

import "github.com/wordchain/client/internal/protocol"

type LobbyState struct {
	Players map[string]protocol.Player
	Rooms   map[int64]protocol.RoomSummary
	Stats   map[string]float64
}

type RoomState struct {
	ID        int64
	Name      string
	Capacity  int
	Status    protocol.RoomStatus
	Rules     protocol.DeathmatchRules
	OwnerName string
	Players   map[string]protocol.RoomPlayer
}

type GameState struct {
	ID          int64
	Status      protocol.GameStatus
	Rules       protocol.DeathmatchRules
	Players     []protocol.GamePlayer
	LostPlayers []protocol.GamePlayer
	CurrentTurn *protocol.Turn
	Turns       []protocol.Turn
}

type Store struct {
	Lobby *LobbyState
	Room  *RoomState
	Game  *GameState
	Chat  *ChatLog
}

func NewStore() *Store {
	return &Store{Chat: NewChatLog(ChatCapacity)}
}

func (s *Store) ApplyLobby(u protocol.LobbyUpdate) {
	if s.Lobby == nil {
		s.Lobby = &LobbyState{}
	}
	s.Lobby.Players = mergeMap(s.Lobby.Players, u.Players)
	s.Lobby.Rooms = mergeMap(s.Lobby.Rooms, u.Rooms)
	s.Lobby.Stats = mergeMap(s.Lobby.Stats, u.Stats)
}

// SeedRoom primes the room tree from a create-room response, so room intents
// are legal before the first push arrives. A later push for the same id
// merges into it as usual.
func (s *Store) SeedRoom(sum protocol.RoomSummary) {
	s.Room = &RoomState{
		ID:        sum.ID,
		Name:      sum.Name,
		Capacity:  sum.Capacity,
		Status:    sum.Status,
		OwnerName: sum.OwnerName,
	}
}

func (s *Store) ApplyRoom(u protocol.RoomUpdate) {
	if s.Room == nil || s.Room.ID != u.ID {
		// A different room id means the client switched rooms: replace
		// wholesale so no players leak over from the previous roster.
		s.Room = &RoomState{ID: u.ID}
	}
	r := s.Room
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Capacity != nil {
		r.Capacity = *u.Capacity
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.Rules != nil {
		r.Rules = *u.Rules
	}
	if u.OwnerName != nil {
		r.OwnerName = *u.OwnerName
	}
	r.Players = mergeMap(r.Players, u.Players)
}

func (s *Store) ApplyGame(u protocol.GameUpdate) {
	if s.Game == nil || s.Game.ID != u.ID {
		s.Game = &GameState{ID: u.ID}
	}
	g := s.Game
	if u.Status != nil {
		g.Status = *u.Status
	}
	if u.Rules != nil {
		g.Rules = *u.Rules
	}
	if u.Players != nil {
		g.Players = u.Players
	}
	if u.LostPlayers != nil {
		g.LostPlayers = u.LostPlayers
	}
	if u.CurrentTurn != nil {
		g.CurrentTurn = u.CurrentTurn
	}
	if u.Turns != nil {
		g.Turns = u.Turns
	}
}

func (s *Store) AppendChat(m protocol.ChatMessage) { s.Chat.Append(m) }

// ClearRoom drops the room tree and its room-scoped chat.
func (s *Store) ClearRoom() {
	s.Room = nil
	s.Chat.Clear()
}

func (s *Store) ClearGame() { s.Game = nil }

// Reset tears down everything, used on logout and forced disconnect.
func (s *Store) Reset() {
	s.Lobby = nil
	s.Room = nil
	s.Game = nil
	s.Chat.Clear()
}
