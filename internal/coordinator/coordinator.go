package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"wordduel/internal/game"
	"wordduel/internal/models"
	"wordduel/internal/room"

	"github.com/rs/zerolog/log"
)

// UserDirectory resolves user ids to users.
type UserDirectory interface {
	Resolve(ctx context.Context, id string) (models.User, error)
}

// WordProvider draws the secret word for a new game.
type WordProvider interface {
	DrawWord(ctx context.Context) (string, error)
}

// Publisher fans an event out to the subscribers of a topic.
type Publisher interface {
	Publish(topic string, typ models.EventType, data any) int
}

// StartStatusWaiting is reported by RequestStart while the room lacks an opponent.
const StartStatusWaiting = "waiting-for-opponent"

// StartResult is the answer to a start request.
type StartResult struct {
	RoomID      string `json:"roomId,omitempty"`
	GameID      string `json:"gameId,omitempty"`
	CurrentTurn string `json:"currentTurn,omitempty"`
	Status      string `json:"status"`
}

// GuessResult is the answer to an accepted guess.
type GuessResult struct {
	Revealed          string            `json:"revealed"`
	RemainingAttempts int               `json:"remainingAttempts"`
	Status            models.GameStatus `json:"status"`
	Correct           bool              `json:"correct"`
	Guess             string            `json:"guess"`
	CurrentTurn       string            `json:"currentTurn"`
	Word              string            `json:"word,omitempty"`
}

// Coordinator binds rooms to games, enforces turn order and publishes every
// state change on the room topic. All mutations of one room run under that
// room's lock, which also keeps the events of a topic in publish order.
type Coordinator struct {
	rooms *room.Registry
	games *game.Engine
	users UserDirectory
	words WordProvider
	bus   Publisher
	coin  func(n int) int
}

// New creates a coordinator over the given registry, engine and collaborators.
func New(rooms *room.Registry, games *game.Engine, users UserDirectory, words WordProvider, bus Publisher) *Coordinator {
	return &Coordinator{
		rooms: rooms,
		games: games,
		users: users,
		words: words,
		bus:   bus,
		coin:  rand.IntN,
	}
}

// CreateRoom opens a new empty room.
func (c *Coordinator) CreateRoom() models.Room {
	rm := c.rooms.Create()
	c.bus.Publish(rm.Topic(), models.EventRoomCreated, roomCreated{
		RoomID:         rm.ID,
		SequenceNumber: rm.SequenceNumber,
		Players:        []models.User{},
		Status:         rm.Status,
	})
	log.Info().Str("roomId", rm.ID).Int64("seq", rm.SequenceNumber).Msg("room created")
	return rm
}

// ListRooms returns the lobby listing ordered by sequence number.
func (c *Coordinator) ListRooms() []models.RoomSummary {
	return c.rooms.List()
}

// Stats counts rooms and games.
func (c *Coordinator) Stats() (rooms, games int) {
	return c.rooms.Count(), c.games.Count()
}

// GetRoom returns a room snapshot.
func (c *Coordinator) GetRoom(roomID string) (models.Room, error) {
	rm, err := c.rooms.Get(roomID)
	if err != nil {
		return models.Room{}, notFound(err)
	}
	return rm, nil
}

// GameStatus returns the public view of a game.
func (c *Coordinator) GameStatus(gameID string) (models.GameState, error) {
	st, err := c.games.GetStatus(gameID)
	if errors.Is(err, game.ErrGameNotFound) {
		return models.GameState{}, fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}
	return st, err
}

// Join seats a user in a room. When the join fills a room whose start was
// already requested, the game starts as part of the same operation.
func (c *Coordinator) Join(ctx context.Context, roomID, userID string) (models.Room, error) {
	if _, err := c.rooms.Get(roomID); err != nil {
		return models.Room{}, notFound(err)
	}

	user, err := c.users.Resolve(ctx, userID)
	if err != nil {
		log.Debug().Err(err).Str("userId", userID).Msg("user lookup failed")
		return models.Room{}, fmt.Errorf("user %q: %w", userID, ErrUnknownUser)
	}

	rm, err := c.rooms.Update(roomID, func(rm *models.Room) error {
		if rm.HasPlayer(user.ID) {
			return ErrAlreadyJoined
		}
		if rm.IsFull() {
			return ErrRoomFull
		}

		full := len(rm.Players)+1 == models.RoomCapacity
		autoStart := full && rm.StartRequested && rm.GameID == ""

		var word string
		if autoStart {
			w, err := c.drawWord(ctx)
			if err != nil {
				return err
			}
			word = w
		}

		rm.Players = append(rm.Players, user)
		rm.Status = waitingStatus(rm)
		c.bus.Publish(rm.Topic(), models.EventRoomJoined, roomJoined{
			RoomID:         rm.ID,
			SequenceNumber: rm.SequenceNumber,
			User:           user,
			Players:        append([]models.User{}, rm.Players...),
			Status:         rm.Status,
		})
		log.Info().Str("roomId", rm.ID).Str("userId", user.ID).Str("status", string(rm.Status)).Msg("player joined")

		if autoStart {
			c.bindGame(rm, word)
		}
		return nil
	})
	if err != nil {
		return rm, notFound(err)
	}
	return rm, nil
}

// RequestStart starts the game of a full room, or records the request until
// the second player joins. Repeated requests on a started room return the
// existing binding without creating another game.
func (c *Coordinator) RequestStart(ctx context.Context, roomID string) (StartResult, error) {
	var res StartResult
	_, err := c.rooms.Update(roomID, func(rm *models.Room) error {
		if rm.GameID != "" {
			res = StartResult{RoomID: rm.ID, GameID: rm.GameID, CurrentTurn: rm.CurrentTurn, Status: string(rm.Status)}
			return nil
		}

		if !rm.IsFull() {
			rm.StartRequested = true
			rm.Status = models.RoomWaitingStart
			c.bus.Publish(rm.Topic(), models.EventRoomWaiting, roomWaiting{RoomID: rm.ID, Status: rm.Status})
			log.Info().Str("roomId", rm.ID).Msg("start requested, waiting for opponent")
			res = StartResult{RoomID: rm.ID, Status: StartStatusWaiting}
			return nil
		}

		word, err := c.drawWord(ctx)
		if err != nil {
			return err
		}
		rm.StartRequested = true
		c.bindGame(rm, word)
		res = StartResult{RoomID: rm.ID, GameID: rm.GameID, CurrentTurn: rm.CurrentTurn, Status: string(rm.Status)}
		return nil
	})
	if err != nil {
		return StartResult{}, notFound(err)
	}
	return res, nil
}

// Guess applies a letter on behalf of the player whose turn it is.
func (c *Coordinator) Guess(ctx context.Context, roomID, userID, letter string) (GuessResult, error) {
	if _, err := c.rooms.Get(roomID); err != nil {
		return GuessResult{}, notFound(err)
	}
	if userID == "" || !game.ValidLetter(letter) {
		return GuessResult{}, ErrInvalidPayload
	}
	letter = game.NormalizeLetter(letter)

	var res GuessResult
	_, err := c.rooms.Update(roomID, func(rm *models.Room) error {
		if rm.Status != models.RoomActive || rm.GameID == "" {
			return ErrGameNotActive
		}
		if rm.CurrentTurn != userID {
			c.reject(rm, userID, letter, models.ReasonNotYourTurn)
			return ErrNotYourTurn
		}

		out, err := c.games.ApplyGuess(rm.GameID, letter)
		switch {
		case errors.Is(err, game.ErrAlreadyGuessed):
			c.reject(rm, userID, letter, models.ReasonAlreadyGuessed)
			return ErrAlreadyGuessed
		case errors.Is(err, game.ErrGameNotPlaying), errors.Is(err, game.ErrGameNotFound):
			return ErrGameNotActive
		case err != nil:
			return fmt.Errorf("apply guess: %w", err)
		}

		c.bus.Publish(rm.Topic(), models.EventGuessAccepted, guessAccepted{
			RoomID:            rm.ID,
			GameID:            rm.GameID,
			UserID:            userID,
			Letter:            out.Letter,
			Revealed:          out.Revealed,
			Correct:           out.Correct,
			RemainingAttempts: out.RemainingAttempts,
			Status:            out.Status,
		})

		switch out.Status {
		case models.GamePlaying:
			if next, ok := rm.Opponent(userID); ok {
				rm.CurrentTurn = next.ID
			}
			c.bus.Publish(rm.Topic(), models.EventTurnChanged, turnChanged{
				RoomID:      rm.ID,
				GameID:      rm.GameID,
				CurrentTurn: rm.CurrentTurn,
			})
		case models.GameWon:
			c.bus.Publish(rm.Topic(), models.EventGameWon, gameWon{
				RoomID:            rm.ID,
				GameID:            rm.GameID,
				Winner:            userID,
				Revealed:          out.Revealed,
				RemainingAttempts: out.RemainingAttempts,
			})
			c.finish(rm)
		case models.GameLost:
			c.bus.Publish(rm.Topic(), models.EventGameLost, gameLost{
				RoomID:            rm.ID,
				GameID:            rm.GameID,
				Revealed:          out.Revealed,
				RemainingAttempts: out.RemainingAttempts,
				Word:              out.Word,
			})
			c.finish(rm)
		}

		res = GuessResult{
			Revealed:          out.Revealed,
			RemainingAttempts: out.RemainingAttempts,
			Status:            out.Status,
			Correct:           out.Correct,
			Guess:             out.Letter,
			CurrentTurn:       rm.CurrentTurn,
			Word:              out.Word,
		}
		return nil
	})
	if err != nil {
		return GuessResult{}, notFound(err)
	}
	return res, nil
}

// bindGame creates the game, flips the coin for the first turn and activates the room.
func (c *Coordinator) bindGame(rm *models.Room, word string) {
	g := c.games.StartGame(word)
	rm.GameID = g.ID
	rm.CurrentTurn = rm.Players[c.coin(len(rm.Players))].ID
	rm.Status = models.RoomActive
	c.bus.Publish(rm.Topic(), models.EventRoomStarted, roomStarted{
		RoomID:      rm.ID,
		GameID:      rm.GameID,
		CurrentTurn: rm.CurrentTurn,
		Status:      rm.Status,
	})
	log.Info().Str("roomId", rm.ID).Str("gameId", rm.GameID).Str("firstTurn", rm.CurrentTurn).Msg("game started")
}

func (c *Coordinator) finish(rm *models.Room) {
	rm.Status = models.RoomFinished
	c.bus.Publish(rm.Topic(), models.EventRoomFinished, roomFinished{RoomID: rm.ID, Reason: "game-finished"})
	log.Info().Str("roomId", rm.ID).Str("gameId", rm.GameID).Msg("room finished")
}

func (c *Coordinator) reject(rm *models.Room, userID, letter, reason string) {
	c.bus.Publish(rm.Topic(), models.EventGuessRejected, guessRejected{
		RoomID: rm.ID,
		GameID: rm.GameID,
		UserID: userID,
		Letter: letter,
		Reason: reason,
	})
	log.Warn().Str("roomId", rm.ID).Str("userId", userID).Str("letter", letter).Str("reason", reason).Msg("guess rejected")
}

func (c *Coordinator) drawWord(ctx context.Context) (string, error) {
	word, err := c.words.DrawWord(ctx)
	if err != nil {
		log.Error().Err(err).Msg("word provider failed")
		return "", fmt.Errorf("%w: word provider: %v", ErrDependency, err)
	}
	return word, nil
}

// waitingStatus is the status of a room that has no game yet.
func waitingStatus(rm *models.Room) models.RoomStatus {
	switch {
	case rm.IsFull():
		return models.RoomReady
	case rm.StartRequested:
		return models.RoomWaitingStart
	default:
		return models.RoomWaiting
	}
}

func notFound(err error) error {
	if errors.Is(err, room.ErrRoomNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
