package models

// GameStatus is the lifecycle state of a single game.
type GameStatus string

const (
	GamePlaying GameStatus = "playing"
	GameWon     GameStatus = "won"
	GameLost    GameStatus = "lost"
)

// MaxAttempts is the wrong-guess budget every game starts with.
const MaxAttempts = 6

// Placeholder masks a letter that has not been guessed yet.
const Placeholder = '_'

// GameState is a read-only view of a game. Word is only filled in once the game is lost.
type GameState struct {
	ID                string     `json:"-"`
	Revealed          string     `json:"revealed"`
	RemainingAttempts int        `json:"remainingAttempts"`
	Status            GameStatus `json:"status"`
	GuessedLetters    []string   `json:"guessedLetters"`
	Word              string     `json:"word,omitempty"`
}

// GuessOutcome is the result of applying one letter to a game
type GuessOutcome struct {
	GameID            string
	Letter            string
	Revealed          string
	Correct           bool
	RemainingAttempts int
	Status            GameStatus
	Word              string
}

// Over reports whether the game has reached a terminal status.
func (s GameStatus) Over() bool {
	return s == GameWon || s == GameLost
}
