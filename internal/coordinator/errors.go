package coordinator

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownUser    = errors.New("unknown user")
	ErrInvalidPayload = errors.New("invalid guess payload")
	ErrAlreadyJoined  = errors.New("already joined")
	ErrRoomFull       = errors.New("room is full")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrAlreadyGuessed = errors.New("letter already guessed")
	ErrGameNotActive  = errors.New("game not active")
	ErrDependency     = errors.New("dependency unavailable")
)
