package models

import "github.com/samber/lo"

// RoomStatus represents where a room is in its lifecycle
type RoomStatus string

const (
	RoomWaiting      RoomStatus = "waiting"
	RoomWaitingStart RoomStatus = "waiting-start"
	RoomReady        RoomStatus = "ready"
	RoomActive       RoomStatus = "active"
	RoomFinished     RoomStatus = "finished"
)

// RoomCapacity is the number of players a room holds.
const RoomCapacity = 2

// Room is a matchmaking container for up to two players and at most one game.
type Room struct {
	ID             string     `json:"id"`
	SequenceNumber int64      `json:"sequenceNumber"`
	Players        []User     `json:"players"`
	Status         RoomStatus `json:"status"`
	GameID         string     `json:"gameId,omitempty"`
	CurrentTurn    string     `json:"currentTurn,omitempty"`
	StartRequested bool       `json:"startRequested"`
}

// RoomSummary is the lobby listing entry for a room.
type RoomSummary struct {
	ID             string     `json:"id"`
	SequenceNumber int64      `json:"sequenceNumber"`
	Players        []string   `json:"players"`
	Status         RoomStatus `json:"status"`
}

// NewRoom creates an empty room in the waiting state
func NewRoom(id string, seq int64) *Room {
	return &Room{
		ID:             id,
		SequenceNumber: seq,
		Players:        []User{},
		Status:         RoomWaiting,
	}
}

// Topic returns the broadcast topic of the room.
func (r *Room) Topic() string {
	return TopicFor(r.ID)
}

// HasPlayer reports whether userID already sits in the room.
func (r *Room) HasPlayer(userID string) bool {
	return lo.ContainsBy(r.Players, func(u User) bool { return u.ID == userID })
}

// IsFull reports whether the room reached its capacity.
func (r *Room) IsFull() bool {
	return len(r.Players) >= RoomCapacity
}

// PlayerIDs returns player ids in join order.
func (r *Room) PlayerIDs() []string {
	return lo.Map(r.Players, func(u User, _ int) string { return u.ID })
}

// Opponent returns the other player of a full room.
func (r *Room) Opponent(userID string) (User, bool) {
	return lo.Find(r.Players, func(u User) bool { return u.ID != userID })
}

// Clone returns a deep copy that is safe to hand out of the registry.
func (r *Room) Clone() Room {
	c := *r
	c.Players = append([]User{}, r.Players...)
	return c
}

// Summary returns the lobby view of the room. It never exposes game internals.
func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:             r.ID,
		SequenceNumber: r.SequenceNumber,
		Players:        r.PlayerIDs(),
		Status:         r.Status,
	}
}

// TopicFor returns the broadcast topic for a room id.
func TopicFor(roomID string) string {
	return "room:" + roomID
}
