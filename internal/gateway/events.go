package gateway

import "encoding/json"

// Inbound is the envelope every client frame arrives in. The event
// name selects a handler from the dispatch table; Data carries the
// event's payload.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// StartGamePayload starts a new game for noOfPlayers participants.
type StartGamePayload struct {
	NoOfPlayers int `json:"noOfPlayers"`
}

// GameIDPayload addresses an existing game.
type GameIDPayload struct {
	GameID uint `json:"gameId"`
}

// FlipCardPayload reveals one deck slot.
type FlipCardPayload struct {
	GameID uint `json:"gameId"`
	CardID int  `json:"cardId"`
}

// SendMessagePayload posts a chat message to a game.
type SendMessagePayload struct {
	GameID  uint   `json:"gameId"`
	Message string `json:"message"`
}

// ErrorPayload is the direct error acknowledgment for a failed event.
type ErrorPayload struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}
