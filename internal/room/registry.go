package room

import (
	"errors"
	"slices"
	"sync"

	"wordduel/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var ErrRoomNotFound = errors.New("room not found")

// entry guards one room. Operations on different rooms never share this lock.
type entry struct {
	room *models.Room
	mu   sync.Mutex
}

// Registry owns every room and hands out copies, never the stored pointer.
type Registry struct {
	rooms   map[string]*entry
	lastSeq int64
	mu      sync.RWMutex
}

// NewRegistry creates an empty room registry
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*entry),
	}
}

// Create allocates a new empty room with the next sequence number.
func (r *Registry) Create() models.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastSeq++
	rm := models.NewRoom(uuid.NewString(), r.lastSeq)
	r.rooms[rm.ID] = &entry{room: rm}
	return rm.Clone()
}

// Get returns a snapshot of the room.
func (r *Registry) Get(id string) (models.Room, error) {
	e, ok := r.lookup(id)
	if !ok {
		return models.Room{}, ErrRoomNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.room.Clone(), nil
}

// List returns room summaries ordered by sequence number.
func (r *Registry) List() []models.RoomSummary {
	r.mu.RLock()
	entries := lo.Values(r.rooms)
	r.mu.RUnlock()

	summaries := lo.Map(entries, func(e *entry, _ int) models.RoomSummary {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.room.Summary()
	})
	slices.SortFunc(summaries, func(a, b models.RoomSummary) int {
		return int(a.SequenceNumber - b.SequenceNumber)
	})
	return summaries
}

// Update runs fn with exclusive access to the room. fn works on a copy, which
// replaces the stored room only when fn returns nil, so a failed update leaves
// the room untouched.
func (r *Registry) Update(id string, fn func(rm *models.Room) error) (models.Room, error) {
	e, ok := r.lookup(id)
	if !ok {
		return models.Room{}, ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.room.Clone()
	if err := fn(&draft); err != nil {
		return e.room.Clone(), err
	}
	*e.room = draft
	return draft.Clone(), nil
}

// Count returns the number of rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) lookup(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[id]
	return e, ok
}
