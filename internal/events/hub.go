// Package events fans access decisions out to live dashboard subscribers
// over websockets.  Delivery is fire-and-forget: a slow or full subscriber
// is dropped rather than ever blocking the decision path.
package events

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gymgate/server/internal/gymgate/types"
	"github.com/gymgate/server/internal/metrics"
)

// MessageTypeAccessAttempt is the event name the dashboard subscribes to.
const MessageTypeAccessAttempt = "access_attempt"

// Message is the envelope written to subscribers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub maintains the set of connected subscribers and broadcasts messages
// to them from a single goroutine.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	clients    map[*client]struct{}
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader
}

func NewHub(m *metrics.Metrics, logger zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, 256),
		clients:    make(map[*client]struct{}),
		logger:     logger.With().Str("component", "events").Logger(),
		metrics:    m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard origins are handled by the deployment's proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Run owns the subscriber set until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.setGauge()
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setGauge()
			h.logger.Info().Int("subscribers", len(h.clients)).Msg("stream subscriber connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.setGauge()
			h.logger.Info().Int("subscribers", len(h.clients)).Msg("stream subscriber disconnected")

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Subscriber can't keep up; cut it loose.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.setGauge()
		}
	}
}

// Broadcast queues an access event for all subscribers.  Never blocks; if
// the hub's buffer is full the event is dropped.
func (h *Hub) Broadcast(ev types.AccessEvent) {
	select {
	case h.broadcast <- Message{Type: MessageTypeAccessAttempt, Data: ev}:
	default:
		h.logger.Warn().Msg("event stream buffer full, dropping event")
	}
}

// ServeWS upgrades an HTTP request into a stream subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(h, conn)
	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (h *Hub) setGauge() {
	if h.metrics != nil {
		h.metrics.StreamSubscribers.Set(float64(len(h.clients)))
	}
}
