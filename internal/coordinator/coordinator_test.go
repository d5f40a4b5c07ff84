package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"wordduel/internal/game"
	"wordduel/internal/models"
	"wordduel/internal/room"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.User{ID: "u-alice", DisplayName: "alice"}
	bob   = models.User{ID: "u-bob", DisplayName: "bob"}
	carol = models.User{ID: "u-carol", DisplayName: "carol"}
)

type fixture struct {
	coord *Coordinator
	users *MockUserDirectory
	words *MockWordProvider
	bus   *recordingBus
	games *game.Engine
}

func newFixture(t *testing.T, word string) *fixture {
	t.Helper()
	users := &MockUserDirectory{}
	for _, u := range []models.User{alice, bob, carol} {
		users.On("Resolve", mock.Anything, u.ID).Return(u, nil).Maybe()
	}
	users.On("Resolve", mock.Anything, mock.Anything).Return(models.User{}, errors.New("no such user")).Maybe()

	words := &MockWordProvider{}
	if word != "" {
		words.On("DrawWord", mock.Anything).Return(word, nil).Maybe()
	}

	bus := &recordingBus{}
	games := game.NewEngine()
	c := New(room.NewRegistry(), games, users, words, bus)
	// alice always moves first unless a test says otherwise
	c.coin = func(int) int { return 0 }
	return &fixture{coord: c, users: users, words: words, bus: bus, games: games}
}

// activeRoom returns a started room with alice holding the first turn.
func (f *fixture) activeRoom(t *testing.T) models.Room {
	t.Helper()
	ctx := context.Background()
	rm := f.coord.CreateRoom()
	_, err := f.coord.Join(ctx, rm.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.coord.Join(ctx, rm.ID, bob.ID)
	require.NoError(t, err)
	res, err := f.coord.RequestStart(ctx, rm.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.RoomActive), res.Status)

	rm, err = f.coord.GetRoom(rm.ID)
	require.NoError(t, err)
	f.bus.reset()
	return rm
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t, "apple")

	rm := f.coord.CreateRoom()
	assert.Equal(t, int64(1), rm.SequenceNumber)
	assert.Equal(t, models.RoomWaiting, rm.Status)
	assert.Empty(t, rm.Players)

	events := f.bus.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventRoomCreated, events[0].typ)
	assert.Equal(t, models.TopicFor(rm.ID), events[0].topic)
}

func TestListRooms(t *testing.T) {
	f := newFixture(t, "apple")
	a := f.coord.CreateRoom()
	b := f.coord.CreateRoom()
	_, err := f.coord.Join(context.Background(), b.ID, alice.ID)
	require.NoError(t, err)

	list := f.coord.ListRooms()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, []string{}, list[0].Players)
	assert.Equal(t, []string{alice.ID}, list[1].Players)

	rooms, games := f.coord.Stats()
	assert.Equal(t, 2, rooms)
	assert.Zero(t, games)
}

func TestJoin(t *testing.T) {
	f := newFixture(t, "apple")
	ctx := context.Background()
	rm := f.coord.CreateRoom()

	got, err := f.coord.Join(ctx, rm.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomWaiting, got.Status)
	assert.Equal(t, []models.User{alice}, got.Players)

	got, err = f.coord.Join(ctx, rm.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomReady, got.Status)
	assert.Empty(t, got.GameID)

	joined := f.bus.ofType(models.EventRoomJoined)
	require.Len(t, joined, 2)
	assert.Equal(t, bob, joined[1].data.(roomJoined).User)
	f.words.AssertNotCalled(t, "DrawWord", mock.Anything)
}

func TestJoin_Errors(t *testing.T) {
	f := newFixture(t, "apple")
	ctx := context.Background()
	rm := f.coord.CreateRoom()

	_, err := f.coord.Join(ctx, "missing", alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.coord.Join(ctx, rm.ID, "ghost")
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = f.coord.Join(ctx, rm.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.coord.Join(ctx, rm.ID, alice.ID)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	got, err := f.coord.GetRoom(rm.ID)
	require.NoError(t, err)
	assert.Len(t, got.Players, 1)
}

func TestJoin_ThirdPlayerRoomFull(t *testing.T) {
	f := newFixture(t, "apple")
	ctx := context.Background()
	rm := f.coord.CreateRoom()
	_, err := f.coord.Join(ctx, rm.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.coord.Join(ctx, rm.ID, bob.ID)
	require.NoError(t, err)
	f.bus.reset()

	_, err = f.coord.Join(ctx, rm.ID, carol.ID)
	assert.ErrorIs(t, err, ErrRoomFull)

	got, err := f.coord.GetRoom(rm.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, got.PlayerIDs())
	assert.Empty(t, f.bus.all())
}

func TestRequestStart_WaitsThenStartsOnJoin(t *testing.T) {
	f := newFixture(t, "apple")
	ctx := context.Background()
	rm := f.coord.CreateRoom()
	_, err := f.coord.Join(ctx, rm.ID, alice.ID)
	require.NoError(t, err)

	res, err := f.coord.RequestStart(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, StartStatusWaiting, res.Status)
	assert.Empty(t, res.GameID)

	got, err := f.coord.GetRoom(rm.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomWaitingStart, got.Status)
	assert.True(t, got.StartRequested)
	f.words.AssertNotCalled(t, "DrawWord", mock.Anything)

	f.bus.reset()
	got, err = f.coord.Join(ctx, rm.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomActive, got.Status)
	assert.NotEmpty(t, got.GameID)
	assert.Equal(t, alice.ID, got.CurrentTurn)

	assert.Equal(t, []models.EventType{models.EventRoomJoined, models.EventRoomStarted}, f.bus.types())
	started := f.bus.ofType(models.EventRoomStarted)[0].data.(roomStarted)
	assert.Equal(t, got.GameID, started.GameID)
	f.words.AssertNumberOfCalls(t, "DrawWord", 1)
}

func TestRequestStart_Idempotent(t *testing.T) {
	f := newFixture(t, "apple")
	ctx := context.Background()
	rm := f.coord.CreateRoom()
	_, err := f.coord.Join(ctx, rm.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.coord.Join(ctx, rm.ID, bob.ID)
	require.NoError(t, err)

	first, err := f.coord.RequestStart(ctx, rm.ID)
	require.NoError(t, err)
	second, err := f.coord.RequestStart(ctx, rm.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "active", first.Status)
	assert.Equal(t, rm.ID, first.RoomID)
	assert.Equal(t, 1, f.games.Count())
	assert.Len(t, f.bus.ofType(models.EventRoomStarted), 1)
	f.words.AssertNumberOfCalls(t, "DrawWord", 1)
}

func TestRequestStart_ConcurrentCreatesOneGame(t *testing.T) {
	f := newFixture(t, "apple")
	ctx := context.Background()
	rm := f.coord.CreateRoom()
	_, err := f.coord.Join(ctx, rm.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.coord.Join(ctx, rm.ID, bob.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.coord.RequestStart(ctx, rm.ID)
			if assert.NoError(t, err) {
				ids <- res.GameID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var first string
	for id := range ids {
		if first == "" {
			first = id
		}
		assert.Equal(t, first, id)
	}
	assert.Equal(t, 1, f.games.Count())
}

func TestRequestStart_NotFound(t *testing.T) {
	f := newFixture(t, "apple")
	_, err := f.coord.RequestStart(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestStart_DependencyFailureLeavesRoomUntouched(t *testing.T) {
	f := newFixture(t, "")
	f.words.On("DrawWord", mock.Anything).Return("", errors.New("word service down"))
	ctx := context.Background()
	rm := f.coord.CreateRoom()
	_, err := f.coord.Join(ctx, rm.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.coord.Join(ctx, rm.ID, bob.ID)
	require.NoError(t, err)
	f.bus.reset()

	_, err = f.coord.RequestStart(ctx, rm.ID)
	assert.ErrorIs(t, err, ErrDependency)

	got, err := f.coord.GetRoom(rm.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomReady, got.Status)
	assert.Empty(t, got.GameID)
	assert.False(t, got.StartRequested)
	assert.Empty(t, f.bus.all())
	assert.Zero(t, f.games.Count())
}

func TestJoin_AutoStartDependencyFailureIsAllOrNothing(t *testing.T) {
	f := newFixture(t, "")
	f.words.On("DrawWord", mock.Anything).Return("", errors.New("word service down"))
	ctx := context.Background()
	rm := f.coord.CreateRoom()
	_, err := f.coord.Join(ctx, rm.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.coord.RequestStart(ctx, rm.ID)
	require.NoError(t, err)
	f.bus.reset()

	_, err = f.coord.Join(ctx, rm.ID, bob.ID)
	assert.ErrorIs(t, err, ErrDependency)

	got, err := f.coord.GetRoom(rm.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, got.PlayerIDs())
	assert.Equal(t, models.RoomWaitingStart, got.Status)
	assert.Empty(t, f.bus.all())
}

func TestGuess_NotYourTurn(t *testing.T) {
	f := newFixture(t, "apple")
	rm := f.activeRoom(t)

	_, err := f.coord.Guess(context.Background(), rm.ID, bob.ID, "a")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	rejected := f.bus.ofType(models.EventGuessRejected)
	require.Len(t, rejected, 1)
	data := rejected[0].data.(guessRejected)
	assert.Equal(t, models.ReasonNotYourTurn, data.Reason)
	assert.Equal(t, bob.ID, data.UserID)
	assert.Equal(t, rm.Topic(), rejected[0].topic)

	st, err := f.coord.GameStatus(rm.GameID)
	require.NoError(t, err)
	assert.Empty(t, st.GuessedLetters)
}

func TestGuess_WinApple(t *testing.T) {
	f := newFixture(t, "apple")
	rm := f.activeRoom(t)
	ctx := context.Background()

	turns := []struct {
		user    string
		letter  string
		correct bool
		left    int
	}{
		{alice.ID, "a", true, 6},
		{bob.ID, "p", true, 6},
		{alice.ID, "z", false, 5},
		{bob.ID, "x", false, 4},
		{alice.ID, "l", true, 4},
	}
	for _, tc := range turns {
		res, err := f.coord.Guess(ctx, rm.ID, tc.user, tc.letter)
		require.NoError(t, err)
		assert.Equal(t, tc.correct, res.Correct, tc.letter)
		assert.Equal(t, tc.left, res.RemainingAttempts, tc.letter)
		assert.Equal(t, models.GamePlaying, res.Status)
		assert.NotEqual(t, tc.user, res.CurrentTurn)
	}

	res, err := f.coord.Guess(ctx, rm.ID, bob.ID, "E")
	require.NoError(t, err)
	assert.Equal(t, models.GameWon, res.Status)
	assert.Equal(t, "apple", res.Revealed)
	assert.Equal(t, "e", res.Guess)
	assert.Empty(t, res.Word)

	tail := f.bus.types()[len(f.bus.types())-3:]
	assert.Equal(t, []models.EventType{models.EventGuessAccepted, models.EventGameWon, models.EventRoomFinished}, tail)
	won := f.bus.ofType(models.EventGameWon)[0].data.(gameWon)
	assert.Equal(t, bob.ID, won.Winner)

	got, err := f.coord.GetRoom(rm.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomFinished, got.Status)

	_, err = f.coord.Guess(ctx, rm.ID, alice.ID, "q")
	assert.ErrorIs(t, err, ErrGameNotActive)

	again, err := f.coord.RequestStart(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, rm.GameID, again.GameID)
	assert.Equal(t, string(models.RoomFinished), again.Status)
}

func TestGuess_LoseZebra(t *testing.T) {
	f := newFixture(t, "zebra")
	rm := f.activeRoom(t)
	ctx := context.Background()

	players := []string{alice.ID, bob.ID}
	var res GuessResult
	for i, l := range []string{"c", "d", "f", "g", "h", "i"} {
		var err error
		res, err = f.coord.Guess(ctx, rm.ID, players[i%2], l)
		require.NoError(t, err)
	}

	assert.Equal(t, models.GameLost, res.Status)
	assert.Zero(t, res.RemainingAttempts)
	assert.Equal(t, "zebra", res.Word)

	lost := f.bus.ofType(models.EventGameLost)
	require.Len(t, lost, 1)
	assert.Equal(t, "zebra", lost[0].data.(gameLost).Word)
	assert.Len(t, f.bus.ofType(models.EventRoomFinished), 1)

	st, err := f.coord.GameStatus(rm.GameID)
	require.NoError(t, err)
	assert.Equal(t, "zebra", st.Word)
}

func TestGuess_Duplicate(t *testing.T) {
	f := newFixture(t, "apple")
	rm := f.activeRoom(t)
	ctx := context.Background()

	_, err := f.coord.Guess(ctx, rm.ID, alice.ID, "q")
	require.NoError(t, err)
	before, err := f.coord.GameStatus(rm.GameID)
	require.NoError(t, err)
	f.bus.reset()

	_, err = f.coord.Guess(ctx, rm.ID, bob.ID, "Q")
	assert.ErrorIs(t, err, ErrAlreadyGuessed)

	after, err := f.coord.GameStatus(rm.GameID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, err := f.coord.GetRoom(rm.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.CurrentTurn)

	events := f.bus.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventGuessRejected, events[0].typ)
	data := events[0].data.(guessRejected)
	assert.Equal(t, models.ReasonAlreadyGuessed, data.Reason)
	assert.Equal(t, "q", data.Letter)
}

func TestGuess_TurnChanges(t *testing.T) {
	f := newFixture(t, "apple")
	rm := f.activeRoom(t)

	res, err := f.coord.Guess(context.Background(), rm.ID, alice.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, res.CurrentTurn)

	assert.Equal(t, []models.EventType{models.EventGuessAccepted, models.EventTurnChanged}, f.bus.types())
	assert.Equal(t, bob.ID, f.bus.ofType(models.EventTurnChanged)[0].data.(turnChanged).CurrentTurn)
}

func TestGuess_InvalidPayload(t *testing.T) {
	f := newFixture(t, "apple")
	rm := f.activeRoom(t)
	ctx := context.Background()

	for _, tc := range []struct{ user, letter string }{
		{alice.ID, ""},
		{alice.ID, "ab"},
		{alice.ID, "7"},
		{alice.ID, "?"},
		{"", "a"},
	} {
		_, err := f.coord.Guess(ctx, rm.ID, tc.user, tc.letter)
		assert.ErrorIs(t, err, ErrInvalidPayload, "%+v", tc)
	}
	assert.Empty(t, f.bus.all())
}

func TestGuess_NotActive(t *testing.T) {
	f := newFixture(t, "apple")
	ctx := context.Background()
	rm := f.coord.CreateRoom()
	_, err := f.coord.Join(ctx, rm.ID, alice.ID)
	require.NoError(t, err)

	_, err = f.coord.Guess(ctx, rm.ID, alice.ID, "a")
	assert.ErrorIs(t, err, ErrGameNotActive)

	_, err = f.coord.Guess(ctx, "missing", alice.ID, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGameStatus_NotFound(t *testing.T) {
	f := newFixture(t, "apple")
	_, err := f.coord.GameStatus("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGuess_ConcurrentTurnExclusivity(t *testing.T) {
	f := newFixture(t, "quizzical")
	rm := f.activeRoom(t)
	ctx := context.Background()

	letters := "abcdefghijklmnopqrstuvwxyz"
	var wg sync.WaitGroup
	for i, l := range letters {
		for _, u := range []string{alice.ID, bob.ID} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.coord.Guess(ctx, rm.ID, u, string(l))
				if err != nil {
					assert.True(t,
						errors.Is(err, ErrNotYourTurn) || errors.Is(err, ErrAlreadyGuessed) || errors.Is(err, ErrGameNotActive),
						"guess %d: unexpected error %v", i, err)
				}
			}()
		}
	}
	wg.Wait()

	accepted := f.bus.ofType(models.EventGuessAccepted)
	require.NotEmpty(t, accepted)
	want := alice.ID
	for _, ev := range accepted {
		assert.Equal(t, want, ev.data.(guessAccepted).UserID)
		if want == alice.ID {
			want = bob.ID
		} else {
			want = alice.ID
		}
	}
}

func TestFirstTurnCoinIsUnbiased(t *testing.T) {
	f := newFixture(t, "apple")
	c := New(room.NewRegistry(), game.NewEngine(), f.users, f.words, f.bus)
	ctx := context.Background()

	const rounds = 400
	aliceFirst := 0
	for range rounds {
		rm := c.CreateRoom()
		_, err := c.Join(ctx, rm.ID, alice.ID)
		require.NoError(t, err)
		_, err = c.Join(ctx, rm.ID, bob.ID)
		require.NoError(t, err)
		res, err := c.RequestStart(ctx, rm.ID)
		require.NoError(t, err)
		require.Contains(t, []string{alice.ID, bob.ID}, res.CurrentTurn)
		if res.CurrentTurn == alice.ID {
			aliceFirst++
		}
	}
	assert.InDelta(t, rounds/2, aliceFirst, 80)
}
