package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wordduel/internal/broadcast"
	"wordduel/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Handler streams topic events as Server-Sent Events. It is a read-only
// alternative to the websocket gateway for clients that only listen.
type Handler struct {
	hub       *broadcast.Hub
	buffer    int
	keepAlive time.Duration
}

// NewHandler creates a new SSE handler.
func NewHandler(hub *broadcast.Hub, buffer int, keepAlive time.Duration) *Handler {
	if buffer <= 0 {
		buffer = 64
	}
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &Handler{hub: hub, buffer: buffer, keepAlive: keepAlive}
}

// RegisterRoutes sets up the SSE routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleSSE)
}

func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	topics := lo.Compact(lo.Map(strings.Split(r.URL.Query().Get("topics"), ","), func(t string, _ int) string {
		return strings.TrimSpace(t)
	}))
	if len(topics) == 0 {
		http.Error(w, `{"error":"topics required","code":"invalid-payload"}`, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	q := broadcast.NewQueue(uuid.NewString(), h.buffer)
	topics = h.hub.Subscribe(q, topics...)
	defer func() {
		h.hub.Disconnect(q)
		q.Close()
	}()
	log.Debug().Str("conn", q.ID()).Strs("topics", topics).Msg("sse subscribed")

	fmt.Fprintf(w, ": subscribed %s\n\n", strings.Join(topics, ","))
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-q.Frames():
			if !ok {
				return
			}
			ev, isEvent := frame.(models.Event)
			if !isEvent {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Str("type", string(ev.Type)).Msg("encode event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
