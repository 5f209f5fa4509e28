package server

import (
	"encoding/json"
	"time"

	"skitgubben/internal/game"
)

// MessageType identifies a websocket message
type MessageType string

// Client → server
const (
	MessageTypeJoinRoom    MessageType = "join_room"
	MessageTypeStartGame   MessageType = "start_game"
	MessageTypeRestartGame MessageType = "restart_game"
	MessageTypePlayCard    MessageType = "play_card"
	MessageTypeDrawCard    MessageType = "draw_card"
)

// Server → client
const (
	MessageTypeJoined       MessageType = "joined"
	MessageTypePlayerJoined MessageType = "player_joined"
	MessageTypePlayerLeft   MessageType = "player_left"
	MessageTypeGameStarted  MessageType = "game_started"
	MessageTypeGameState    MessageType = "game_state"
	MessageTypeCardPlayed   MessageType = "card_played"
	MessageTypeGameOver     MessageType = "game_over"
	MessageTypeError        MessageType = "error"
)

func (t MessageType) String() string { return string(t) }

// Message is the websocket envelope
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → server payloads

type JoinRoomData struct {
	RoomID      string `json:"roomId"`
	PlayerName  string `json:"playerName"`
	Development bool   `json:"isDevelopment,omitempty"`
}

type PlayCardData struct {
	CardIndex int  `json:"cardIndex"`
	FromTable bool `json:"fromTable,omitempty"`
}

// Server → client payloads

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RosterInfo is the lightweight player listing used in join/leave
// notifications; full zone counts travel in the game_state projection.
type RosterInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type JoinedData struct {
	RoomID      string       `json:"roomId"`
	PlayerID    string       `json:"playerId"`
	Development bool         `json:"isDevelopment"`
	Players     []RosterInfo `json:"players"`
}

type PlayerJoinedData struct {
	PlayerID   string       `json:"playerId"`
	PlayerName string       `json:"playerName"`
	Players    []RosterInfo `json:"players"`
	Message    string       `json:"message"`
}

type PlayerLeftData struct {
	PlayerID   string       `json:"playerId"`
	PlayerName string       `json:"playerName"`
	Players    []RosterInfo `json:"players"`
	Message    string       `json:"message"`
}

type GameStartedData struct {
	Message string `json:"message"`
}

type CardPlayedData struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

type GameOverData struct {
	SkitGubbenID    string   `json:"skitGubbenId,omitempty"`
	SkitGubbenName  string   `json:"skitGubbenName,omitempty"`
	FinishedPlayers []string `json:"finishedPlayers"`
	Message         string   `json:"message"`
}

// rosterFromState maps a public projection onto the join/leave roster.
func rosterFromState(state game.PublicState) []RosterInfo {
	roster := make([]RosterInfo, len(state.Players))
	for i, p := range state.Players {
		roster[i] = RosterInfo{ID: p.ID, Name: p.Name, Connected: p.Connected}
	}
	return roster
}
