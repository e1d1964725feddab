package protocol

import "encoding/json"

// Server -> Client push envelopes
// chat:             ChatMessage
// lobby_state:      LobbyUpdate (differential)
// room_state:       RoomUpdate (differential, full replace on id change)
// game_state:       GameUpdate (differential)
// connection_state: ConnectionState (code 4001 = session superseded)
//
// Client -> Server
// chat: ChatOut
// word: WordOut (only meaningful during the sender's turn)

const (
	TypeChat            = "chat"
	TypeLobbyState      = "lobby_state"
	TypeRoomState       = "room_state"
	TypeGameState       = "game_state"
	TypeConnectionState = "connection_state"
	TypeWord            = "word"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func NewEnvelope(typ string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: typ, Payload: raw}, nil
}

// Map values in updates use presence-of-null-means-delete: a nil pointer for a
// key removes that key from the held tree.
type LobbyUpdate struct {
	Players map[string]*Player     `json:"players,omitempty"`
	Rooms   map[int64]*RoomSummary `json:"rooms,omitempty"`
	Stats   map[string]*float64    `json:"stats,omitempty"`
}

// Scalar fields are pointers so that an absent field leaves the held value
// untouched while a present one overwrites it.
type RoomUpdate struct {
	ID        int64                  `json:"id"`
	Name      *string                `json:"name,omitempty"`
	Capacity  *int                   `json:"capacity,omitempty"`
	Status    *RoomStatus            `json:"status,omitempty"`
	Rules     *DeathmatchRules       `json:"rules,omitempty"`
	OwnerName *string                `json:"owner_name,omitempty"`
	Players   map[string]*RoomPlayer `json:"players,omitempty"`
}

// Slice fields are replaced whole when present (nil = untouched); only the
// player rosters of lobby/room state are maps and merge key-wise.
type GameUpdate struct {
	ID          int64            `json:"id"`
	Status      *GameStatus      `json:"status,omitempty"`
	Rules       *DeathmatchRules `json:"rules,omitempty"`
	Players     []GamePlayer     `json:"players,omitempty"`
	LostPlayers []GamePlayer     `json:"lost_players,omitempty"`
	CurrentTurn *Turn            `json:"current_turn,omitempty"`
	Turns       []Turn           `json:"turns,omitempty"`
}

type ConnectionState struct {
	Code   int    `json:"code"`
	Reason string `json:"reason,omitempty"`
}

type ChatOut struct {
	Content    string `json:"content"`
	PlayerName string `json:"player_name"`
	RoomID     int64  `json:"room_id"`
}

type WordOut struct {
	Content string `json:"content"`
}
