package protocol

import "time"

type RoomStatus string

const (
	RoomOpen       RoomStatus = "Open"
	RoomClosed     RoomStatus = "Closed"
	RoomInProgress RoomStatus = "In progress"
)

type GameStatus string

const (
	GameInProgress GameStatus = "In progress"
	GameFinished   GameStatus = "Finished"
)

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedOn time.Time `json:"created_on"`
}

type ChatMessage struct {
	ID         string    `json:"id"`
	CreatedOn  time.Time `json:"created_on"`
	Content    string    `json:"content"`
	PlayerName string    `json:"player_name"`
	RoomID     int64     `json:"room_id"`
}

type RoomSummary struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Capacity    int        `json:"capacity"`
	Status      RoomStatus `json:"status"`
	OwnerName   string     `json:"owner_name"`
	PlayerCount int        `json:"player_count"`
}

// DeathmatchRules is immutable once a room is created; a rules push replaces
// it wholesale rather than merging fields.
type DeathmatchRules struct {
	Type       string `json:"type"`        // always "deathmatch"
	Penalty    int    `json:"penalty"`     // <= 0
	Reward     int    `json:"reward"`      // >= 0
	StartScore int    `json:"start_score"` // >= 0
	RoundTime  int    `json:"round_time"`  // seconds
}

type RoomPlayer struct {
	Player
	IsReady bool `json:"is_ready"`
}

// Place stays nil while the player is still in the game and is set to the
// finishing rank on elimination or win.
type GamePlayer struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Mistakes int    `json:"mistakes"`
	Place    *int   `json:"place"`
}

// Description entries are [partOfSpeech, text] pairs.
type Word struct {
	Content     string      `json:"content"`
	IsCorrect   bool        `json:"is_correct"`
	Description [][2]string `json:"description,omitempty"`
}

type Turn struct {
	PlayerIdx int       `json:"player_idx"`
	StartedOn time.Time `json:"started_on"`
	Word      *Word     `json:"word"`
	Info      *string   `json:"info"`
}
