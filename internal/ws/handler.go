package ws

import (
	"net/http"
	"slices"
	"time"

	"wordduel/internal/broadcast"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Config tunes websocket connections.
type Config struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	SendBuffer     int
	RateLimit      rate.Limit
	RateBurst      int
	AllowedOrigins []string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		SendBuffer:     64,
		RateLimit:      10,
		RateBurst:      20,
		AllowedOrigins: []string{"*"},
	}
}

// Handler accepts websocket connections and forwards their control frames to the hub.
type Handler struct {
	hub      *broadcast.Hub
	cfg      Config
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *broadcast.Hub, cfg Config) *Handler {
	def := DefaultConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = rate.Inf
	}
	h := &Handler{hub: hub, cfg: cfg}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// RegisterRoutes sets up the WebSocket routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	c := newClient(conn, h.hub, h.cfg)
	log.Debug().Str("conn", c.queue.ID()).Str("remote", r.RemoteAddr).Msg("websocket connected")

	go c.writePump()
	c.readPump()

	log.Debug().Str("conn", c.queue.ID()).Msg("websocket disconnected")
}
