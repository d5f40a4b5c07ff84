package models

import "time"

// EventType names a push event delivered to topic subscribers.
type EventType string

const (
	EventRoomCreated   EventType = "room.created"
	EventRoomJoined    EventType = "room.joined"
	EventRoomWaiting   EventType = "room.waiting"
	EventRoomStarted   EventType = "room.started"
	EventGuessAccepted EventType = "guess.accepted"
	EventGuessRejected EventType = "guess.rejected"
	EventTurnChanged   EventType = "turn.changed"
	EventGameWon       EventType = "game.won"
	EventGameLost      EventType = "game.lost"
	EventRoomFinished  EventType = "room.finished"
)

// Rejection reasons carried by guess.rejected.
const (
	ReasonNotYourTurn    = "not-your-turn"
	ReasonAlreadyGuessed = "already-guessed"
)

// Event is the frame pushed to every subscriber of a topic.
type Event struct {
	Type      EventType `json:"type"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent stamps an event with the current time.
func NewEvent(topic string, typ EventType, data any) Event {
	return Event{
		Type:      typ,
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
