package coordinator

import (
	"context"
	"sync"

	"wordduel/internal/models"

	"github.com/stretchr/testify/mock"
)

// --- UserDirectory ---

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) Resolve(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

// --- WordProvider ---

type MockWordProvider struct {
	mock.Mock
}

func (m *MockWordProvider) DrawWord(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// --- Publisher ---

type published struct {
	topic string
	typ   models.EventType
	data  any
}

type recordingBus struct {
	mu     sync.Mutex
	events []published
}

func (b *recordingBus) Publish(topic string, typ models.EventType, data any) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{topic: topic, typ: typ, data: data})
	return 1
}

func (b *recordingBus) all() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published{}, b.events...)
}

func (b *recordingBus) types() []models.EventType {
	var out []models.EventType
	for _, e := range b.all() {
		out = append(out, e.typ)
	}
	return out
}

func (b *recordingBus) ofType(typ models.EventType) []published {
	var out []published
	for _, e := range b.all() {
		if e.typ == typ {
			out = append(out, e)
		}
	}
	return out
}

func (b *recordingBus) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
