package room

import (
	"errors"
	"sync"
	"testing"

	"wordduel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	r := NewRegistry()

	a := r.Create()
	b := r.Create()

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, int64(1), a.SequenceNumber)
	assert.Equal(t, int64(2), b.SequenceNumber)
	assert.Equal(t, models.RoomWaiting, a.Status)
	assert.NotNil(t, a.Players)
	assert.Empty(t, a.Players)
	assert.Equal(t, 2, r.Count())
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	rm := r.Create()

	got, err := r.Get(rm.ID)
	require.NoError(t, err)
	assert.Equal(t, rm, got)

	_, err = r.Get("nope")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestList_OrderedBySequence(t *testing.T) {
	r := NewRegistry()
	for range 10 {
		r.Create()
	}

	list := r.List()
	require.Len(t, list, 10)
	for i, s := range list {
		assert.Equal(t, int64(i+1), s.SequenceNumber)
		assert.NotNil(t, s.Players)
	}
}

func TestUpdate_CommitsOnSuccess(t *testing.T) {
	r := NewRegistry()
	rm := r.Create()

	updated, err := r.Update(rm.ID, func(rm *models.Room) error {
		rm.Players = append(rm.Players, models.User{ID: "u1", DisplayName: "ann"})
		rm.Status = models.RoomWaitingStart
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, updated.Players, 1)

	got, err := r.Get(rm.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomWaitingStart, got.Status)
	assert.Equal(t, []string{"u1"}, got.PlayerIDs())
}

func TestUpdate_DiscardsOnError(t *testing.T) {
	r := NewRegistry()
	rm := r.Create()
	boom := errors.New("boom")

	_, err := r.Update(rm.ID, func(rm *models.Room) error {
		rm.Players = append(rm.Players, models.User{ID: "u1"})
		rm.Status = models.RoomReady
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := r.Get(rm.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Players)
	assert.Equal(t, models.RoomWaiting, got.Status)

	_, err = r.Update("nope", func(*models.Room) error { return nil })
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSnapshotsAreCopies(t *testing.T) {
	r := NewRegistry()
	rm := r.Create()
	_, err := r.Update(rm.ID, func(rm *models.Room) error {
		rm.Players = append(rm.Players, models.User{ID: "u1"})
		return nil
	})
	require.NoError(t, err)

	snap, err := r.Get(rm.ID)
	require.NoError(t, err)
	snap.Players[0].ID = "mutated"

	again, err := r.Get(rm.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", again.Players[0].ID)
}

func TestUpdate_SerializesPerRoom(t *testing.T) {
	r := NewRegistry()
	rm := r.Create()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Update(rm.ID, func(rm *models.Room) error {
				rm.Players = append(rm.Players, models.User{ID: string(rune('a' + i%26))})
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := r.Get(rm.ID)
	require.NoError(t, err)
	assert.Len(t, got.Players, 50)
}

func TestConcurrentCreateUniqueSequence(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	seqs := make(chan int64, 100)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seqs <- r.Create().SequenceNumber
		}()
	}
	wg.Wait()
	close(seqs)

	seen := map[int64]bool{}
	for s := range seqs {
		assert.False(t, seen[s], "duplicate sequence %d", s)
		seen[s] = true
	}
	assert.Len(t, seen, 100)
}
