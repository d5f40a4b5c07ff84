package coordinator

import "wordduel/internal/models"

// Payloads carried in the data field of pushed events.

type roomCreated struct {
	RoomID         string            `json:"roomId"`
	SequenceNumber int64             `json:"sequenceNumber"`
	Players        []models.User     `json:"players"`
	Status         models.RoomStatus `json:"status"`
}

type roomJoined struct {
	RoomID         string            `json:"roomId"`
	SequenceNumber int64             `json:"sequenceNumber"`
	User           models.User       `json:"user"`
	Players        []models.User     `json:"players"`
	Status         models.RoomStatus `json:"status"`
}

type roomWaiting struct {
	RoomID string            `json:"roomId"`
	Status models.RoomStatus `json:"status"`
}

type roomStarted struct {
	RoomID      string            `json:"roomId"`
	GameID      string            `json:"gameId"`
	CurrentTurn string            `json:"currentTurn"`
	Status      models.RoomStatus `json:"status"`
}

type guessAccepted struct {
	RoomID            string            `json:"roomId"`
	GameID            string            `json:"gameId"`
	UserID            string            `json:"userId"`
	Letter            string            `json:"letter"`
	Revealed          string            `json:"revealed"`
	Correct           bool              `json:"correct"`
	RemainingAttempts int               `json:"remainingAttempts"`
	Status            models.GameStatus `json:"status"`
}

type guessRejected struct {
	RoomID string `json:"roomId"`
	GameID string `json:"gameId"`
	UserID string `json:"userId"`
	Letter string `json:"letter"`
	Reason string `json:"reason"`
}

type turnChanged struct {
	RoomID      string `json:"roomId"`
	GameID      string `json:"gameId"`
	CurrentTurn string `json:"currentTurn"`
}

type gameWon struct {
	RoomID            string `json:"roomId"`
	GameID            string `json:"gameId"`
	Winner            string `json:"winner"`
	Revealed          string `json:"revealed"`
	RemainingAttempts int    `json:"remainingAttempts"`
}

type gameLost struct {
	RoomID            string `json:"roomId"`
	GameID            string `json:"gameId"`
	Revealed          string `json:"revealed"`
	RemainingAttempts int    `json:"remainingAttempts"`
	Word              string `json:"word"`
}

type roomFinished struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}
