package directory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"wordduel/internal/models"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNameRequired = errors.New("username is required")
	ErrNameTooLong  = errors.New("username is too long")
)

// MaxNameLength bounds display names.
const MaxNameLength = 32

// Directory is the in-process user registry. Users are never removed.
type Directory struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// New creates an empty directory.
func New() *Directory {
	return &Directory{users: make(map[string]models.User)}
}

// Register creates a user with a fresh id.
func (d *Directory) Register(name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, ErrNameRequired
	}
	if len(name) > MaxNameLength {
		return models.User{}, ErrNameTooLong
	}

	u := models.User{ID: uuid.NewString(), DisplayName: name}
	d.mu.Lock()
	d.users[u.ID] = u
	d.mu.Unlock()
	return u, nil
}

// Resolve looks a user up by id.
func (d *Directory) Resolve(ctx context.Context, id string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

// Count returns the number of registered users.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
