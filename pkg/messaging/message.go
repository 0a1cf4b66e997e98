// Package messaging defines the wire contract between clients and the
// server: a small JSON envelope with one body struct per named message.
// The names match the reference protocol so existing clients keep working.
package messaging

import (
	"encoding/json"

	"github.com/castaneai/potluck/pkg/dicegame"
)

type MessageType string

// Client to server.
const (
	MessageTypeCreateRoom  MessageType = "createRoom"
	MessageTypeJoinRoom    MessageType = "joinRoom"
	MessageTypeStartGame   MessageType = "startGame"
	MessageTypeRollDice    MessageType = "rollDice"
	MessageTypeBankNow     MessageType = "bankNow"
	MessageTypeRestartGame MessageType = "restartGame"
)

// Server to client.
const (
	MessageTypeRoomJoined MessageType = "roomJoined"
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeDiceRolled MessageType = "diceRolled"
	MessageTypeLuckySeven MessageType = "lucky7"
	MessageTypeBust       MessageType = "bust"
	MessageTypeDoubles    MessageType = "doubles"
	MessageTypeError      MessageType = "error"
)

type Message struct {
	Type MessageType     `json:"type"`
	Body json.RawMessage `json:"body,omitempty"`
}

// NewMessage marshals body into an envelope of the given type.
func NewMessage(t MessageType, body interface{}) (*Message, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &Message{Type: t, Body: b}, nil
}

type CreateRoomMessage struct {
	Name string `json:"name"`
}

type JoinRoomMessage struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

type StartGameMessage struct {
	RoomCode string `json:"roomCode"`
}

type RollDiceMessage struct {
	RoomCode string `json:"roomCode"`
}

type BankNowMessage struct {
	RoomCode string `json:"roomCode"`
}

type RestartGameMessage struct {
	RoomCode string `json:"roomCode"`
}

// RoomJoinedMessage is sent only to the connection that created or joined
// the room. The state that every occupant sees goes out as a separate
// gameState broadcast.
type RoomJoinedMessage struct {
	RoomCode string          `json:"roomCode"`
	State    *dicegame.State `json:"state"`
}

type DiceRolledMessage struct {
	D1  int `json:"d1"`
	D2  int `json:"d2"`
	Sum int `json:"sum"`
}

// AnnouncementMessage is the body of lucky7, bust and doubles events.
type AnnouncementMessage struct {
	Message string `json:"message"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}
