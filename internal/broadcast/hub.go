package broadcast

import (
	"sync"

	"wordduel/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Sink receives events for the topics it is subscribed to.
// Deliver must not block; it reports false when the event was dropped.
type Sink interface {
	ID() string
	Deliver(ev models.Event) bool
}

// Hub maps topics to subscribed sinks and fans events out to them.
type Hub struct {
	topics map[string]map[Sink]struct{}
	sinks  map[Sink]map[string]struct{}
	mu     sync.RWMutex
}

// NewHub creates a new broadcast hub.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[Sink]struct{}),
		sinks:  make(map[Sink]map[string]struct{}),
	}
}

// Subscribe adds the sink to every given topic and returns the de-duplicated topic list.
func (h *Hub) Subscribe(s Sink, topics ...string) []string {
	topics = lo.Uniq(lo.Compact(topics))

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sinks[s] == nil {
		h.sinks[s] = make(map[string]struct{})
	}
	for _, t := range topics {
		if h.topics[t] == nil {
			h.topics[t] = make(map[Sink]struct{})
		}
		h.topics[t][s] = struct{}{}
		h.sinks[s][t] = struct{}{}
	}
	return topics
}

// Unsubscribe removes the sink from the given topics. With no topics it removes
// the sink from everything it was subscribed to.
func (h *Hub) Unsubscribe(s Sink, topics ...string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(topics) == 0 {
		topics = lo.Keys(h.sinks[s])
	}
	topics = lo.Uniq(lo.Compact(topics))
	for _, t := range topics {
		h.remove(s, t)
	}
	if len(h.sinks[s]) == 0 {
		delete(h.sinks, s)
	}
	return topics
}

// Disconnect removes the sink from all topics. After it returns the hub never
// calls Deliver on the sink again.
func (h *Hub) Disconnect(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for t := range h.sinks[s] {
		h.remove(s, t)
	}
	delete(h.sinks, s)
}

func (h *Hub) remove(s Sink, topic string) {
	subs := h.topics[topic]
	delete(subs, s)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
	delete(h.sinks[s], topic)
}

// Publish sends an event to every current subscriber of the topic and returns
// how many sinks accepted it. Callers that need per-topic ordering must not
// publish to the same topic concurrently.
func (h *Hub) Publish(topic string, typ models.EventType, data any) int {
	ev := models.NewEvent(topic, typ, data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for s := range h.topics[topic] {
		if s.Deliver(ev) {
			delivered++
			continue
		}
		log.Warn().Str("sink", s.ID()).Str("topic", topic).Str("type", string(typ)).Msg("event dropped, sink queue full")
	}
	return delivered
}

// Subscribers returns the number of sinks subscribed to a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Connections returns the number of sinks holding at least one subscription.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks)
}

// Topics returns the topics a sink is subscribed to.
func (h *Hub) Topics(s Sink) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Keys(h.sinks[s])
}
