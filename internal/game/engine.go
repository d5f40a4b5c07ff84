package game

import (
	"errors"
	"strings"
	"sync"

	"wordduel/internal/models"

	"github.com/google/uuid"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameNotPlaying = errors.New("game is not playing")
	ErrAlreadyGuessed = errors.New("letter already guessed")
	ErrInvalidLetter  = errors.New("invalid letter")
)

// game is the mutable record owned by the engine.
type game struct {
	id                string
	word              string
	guessed           map[rune]struct{}
	order             []string
	remainingAttempts int
	status            models.GameStatus
}

// Engine owns every game and applies the letter-guessing rules to them.
type Engine struct {
	games map[string]*game
	mu    sync.RWMutex
}

// NewEngine creates a new game engine
func NewEngine() *Engine {
	return &Engine{
		games: make(map[string]*game),
	}
}

// StartGame creates a game for the given secret word and returns its initial state.
// The word provider guarantees the word shape; the engine only lower-cases it.
func (e *Engine) StartGame(word string) models.GameState {
	g := &game{
		id:                uuid.NewString(),
		word:              strings.ToLower(word),
		guessed:           make(map[rune]struct{}),
		order:             []string{},
		remainingAttempts: models.MaxAttempts,
		status:            models.GamePlaying,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.games[g.id] = g
	return g.state()
}

// ApplyGuess records a letter and is the single place where win and loss are decided.
func (e *Engine) ApplyGuess(gameID string, letter string) (models.GuessOutcome, error) {
	r, ok := normalizeLetter(letter)
	if !ok {
		return models.GuessOutcome{}, ErrInvalidLetter
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	g, exists := e.games[gameID]
	if !exists {
		return models.GuessOutcome{}, ErrGameNotFound
	}
	if g.status.Over() {
		return models.GuessOutcome{}, ErrGameNotPlaying
	}
	if _, dup := g.guessed[r]; dup {
		return models.GuessOutcome{}, ErrAlreadyGuessed
	}

	g.guessed[r] = struct{}{}
	g.order = append(g.order, string(r))
	correct := strings.ContainsRune(g.word, r)
	if !correct && g.remainingAttempts > 0 {
		g.remainingAttempts--
	}

	revealed := g.revealed()
	if revealed == g.word {
		g.status = models.GameWon
	} else if g.remainingAttempts <= 0 {
		g.status = models.GameLost
	}

	out := models.GuessOutcome{
		GameID:            g.id,
		Letter:            string(r),
		Revealed:          revealed,
		Correct:           correct,
		RemainingAttempts: g.remainingAttempts,
		Status:            g.status,
	}
	if g.status == models.GameLost {
		out.Word = g.word
	}
	return out, nil
}

// GetStatus returns the current view of a game.
func (e *Engine) GetStatus(gameID string) (models.GameState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	g, exists := e.games[gameID]
	if !exists {
		return models.GameState{}, ErrGameNotFound
	}
	return g.state(), nil
}

// Count returns the number of games created so far.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.games)
}

func (g *game) state() models.GameState {
	s := models.GameState{
		ID:                g.id,
		Revealed:          g.revealed(),
		RemainingAttempts: g.remainingAttempts,
		Status:            g.status,
		GuessedLetters:    append([]string{}, g.order...),
	}
	// the secret is only disclosed once nobody can win anymore
	if g.status == models.GameLost {
		s.Word = g.word
	}
	return s
}

func (g *game) revealed() string {
	var b strings.Builder
	b.Grow(len(g.word))
	for _, c := range g.word {
		if _, ok := g.guessed[c]; ok {
			b.WriteRune(c)
		} else {
			b.WriteRune(models.Placeholder)
		}
	}
	return b.String()
}

// normalizeLetter accepts exactly one ASCII letter, case-insensitively.
func normalizeLetter(letter string) (rune, bool) {
	if len(letter) != 1 {
		return 0, false
	}
	c := rune(letter[0])
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	if c < 'a' || c > 'z' {
		return 0, false
	}
	return c, true
}

// ValidLetter reports whether s is a single alphabetic character.
func ValidLetter(s string) bool {
	_, ok := normalizeLetter(s)
	return ok
}

// NormalizeLetter lower-cases a valid guess letter.
func NormalizeLetter(s string) string {
	r, ok := normalizeLetter(s)
	if !ok {
		return ""
	}
	return string(r)
}
