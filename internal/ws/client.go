package ws

import (
	"encoding/json"
	"time"

	"wordduel/internal/broadcast"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const maxFrameSize = 4096

// Control actions a client may send.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionPing        = "ping"
)

// Reply types sent back for control frames.
const (
	ReplySubscribed   = "subscribed"
	ReplyUnsubscribed = "unsubscribed"
	ReplyPong         = "pong"
	ReplyError        = "error"
)

// ControlFrame is a message from the client.
type ControlFrame struct {
	Action string          `json:"action"`
	Topics []string        `json:"topics,omitempty"`
	Nonce  json.RawMessage `json:"nonce,omitempty"`
}

type topicsReply struct {
	Type      string    `json:"type"`
	Topics    []string  `json:"topics"`
	Timestamp time.Time `json:"timestamp"`
}

type pongReply struct {
	Type      string          `json:"type"`
	Nonce     json.RawMessage `json:"nonce,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type errorReply struct {
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// client is one websocket connection. The reader goroutine handles control
// frames; the writer goroutine is the only one writing to the socket.
type client struct {
	conn    *websocket.Conn
	hub     *broadcast.Hub
	queue   *broadcast.Queue
	limiter *rate.Limiter
	cfg     Config
}

func newClient(conn *websocket.Conn, hub *broadcast.Hub, cfg Config) *client {
	return &client{
		conn:    conn,
		hub:     hub,
		queue:   broadcast.NewQueue(uuid.NewString(), cfg.SendBuffer),
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.RateBurst),
		cfg:     cfg,
	}
}

func (c *client) readTimeout() time.Duration {
	return c.cfg.PingInterval * 2
}

func (c *client) readPump() {
	defer func() {
		log.Debug().Str("conn", c.queue.ID()).Strs("topics", c.hub.Topics(c.queue)).Msg("dropping subscriptions")
		c.hub.Disconnect(c.queue)
		c.queue.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(c.readTimeout()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.readTimeout()))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", c.queue.ID()).Msg("websocket read failed")
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.queue.Frames():
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				log.Debug().Err(err).Str("conn", c.queue.ID()).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) handleFrame(data []byte) {
	if !c.limiter.Allow() {
		c.reply(errorReply{Type: ReplyError, Reason: "rate-limited", Timestamp: now()})
		return
	}

	var frame ControlFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.reply(errorReply{Type: ReplyError, Reason: "bad-frame", Timestamp: now()})
		return
	}

	switch frame.Action {
	case ActionSubscribe:
		topics := c.hub.Subscribe(c.queue, frame.Topics...)
		log.Debug().Str("conn", c.queue.ID()).Strs("topics", topics).Msg("subscribed")
		c.reply(topicsReply{Type: ReplySubscribed, Topics: topics, Timestamp: now()})
	case ActionUnsubscribe:
		topics := c.hub.Unsubscribe(c.queue, frame.Topics...)
		log.Debug().Str("conn", c.queue.ID()).Strs("topics", topics).Msg("unsubscribed")
		c.reply(topicsReply{Type: ReplyUnsubscribed, Topics: topics, Timestamp: now()})
	case ActionPing:
		c.reply(pongReply{Type: ReplyPong, Nonce: frame.Nonce, Timestamp: now()})
	default:
		c.reply(errorReply{Type: ReplyError, Reason: "bad-frame", Timestamp: now()})
	}
}

func (c *client) reply(v any) {
	if !c.queue.Push(v) {
		log.Warn().Str("conn", c.queue.ID()).Msg("control reply dropped, queue full")
	}
}

func now() time.Time { return time.Now().UTC() }
