package server

import (
	"quizroom/internal/broadcast"
	"quizroom/internal/game"
)

// ClientMessage is the JSON structure received from clients. Fields are
// populated depending on Type.
type ClientMessage struct {
	Type      string `json:"type"`
	Username  string `json:"username,omitempty"`
	Room      string `json:"room,omitempty"`
	Category  string `json:"category,omitempty"`
	AnswerIdx *int   `json:"answer_idx,omitempty"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type roomCreatedMessage struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
}

type roomJoinedMessage struct {
	Type     string                 `json:"type"`
	RoomCode string                 `json:"room_code"`
	Players  []broadcast.PlayerView `json:"players"`
}

type readyStateMessage struct {
	Type  string `json:"type"`
	Ready bool   `json:"ready"`
}

type gameStartedMessage struct {
	Type    string         `json:"type"`
	Session *game.Snapshot `json:"session"`
}

type gameStateMessage struct {
	Type     string         `json:"type"`
	Session  *game.Snapshot `json:"session"`
	ClientID string         `json:"client_id"`
	Correct  bool           `json:"correct"`
	Score    int            `json:"score"`
}

type questionMessage struct {
	Type     string             `json:"type"`
	Question *game.QuestionView `json:"question"`
}

type levelCompleteMessage struct {
	Type  string `json:"type"`
	Level int    `json:"level"`
	Score int    `json:"score"`
}

type playerDisconnectMessage struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
}

func errorReply(message string) errorMessage {
	return errorMessage{Type: "error", Message: message}
}
