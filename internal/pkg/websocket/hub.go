package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients keyed by user ID and pushes
// events to them. A user may hold several connections at once (multiple
// tabs or devices); an event addressed to a user reaches all of them.
type Hub struct {
	// Registered clients organized by user ID
	clients map[int64]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound events addressed to a single user
	events chan *Event

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	// Logger for Hub operations
	logger zerolog.Logger
}

// Event is one realtime push. The persisted row it mirrors is the source
// of truth; delivery here is best effort.
type Event struct {
	// Type of event: "notification" or "message"
	Type string `json:"type"`

	// User this event is addressed to
	RecipientID int64 `json:"-"`

	// Event payload, typically the persisted row
	Payload interface{} `json:"payload"`

	// Timestamp when the event was emitted
	Timestamp time.Time `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *Event, 64),
		logger:     logger,
	}
}

// Run starts the hub, handling client registrations and event delivery.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.events:
			h.deliver(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.userID
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*Client]bool)
	}
	h.clients[userID][client] = true

	h.logger.Info().
		Int64("userID", userID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.userID
	if conns, ok := h.clients[userID]; ok {
		if _, ok := conns[client]; ok {
			delete(conns, client)
			close(client.send)

			if len(conns) == 0 {
				delete(h.clients, userID)
			}

			h.logger.Info().
				Int64("userID", userID).
				Msg("Client unregistered")
		}
	}
}

// deliver fans an event out to every connection the recipient holds.
func (h *Hub) deliver(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.clients[event.RecipientID]
	if !ok {
		h.logger.Debug().
			Int64("recipientID", event.RecipientID).
			Str("type", event.Type).
			Msg("Recipient not connected, event dropped")
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("recipientID", event.RecipientID).
			Msg("Failed to marshal event")
		return
	}

	for client := range conns {
		select {
		case client.send <- data:
		default:
			// Client's send buffer is full, they might be slow or
			// disconnected. Drop the event for this connection.
			h.logger.Warn().
				Int64("userID", client.userID).
				Msg("Client send buffer full, event dropped")
		}
	}
}

// PushToUser queues an event for delivery to one user. Never blocks the
// caller; when the hub's queue is full the event is dropped.
func (h *Hub) PushToUser(userID int64, eventType string, payload interface{}) {
	event := &Event{
		Type:        eventType,
		RecipientID: userID,
		Payload:     payload,
		Timestamp:   time.Now(),
	}
	select {
	case h.events <- event:
	default:
		h.logger.Warn().
			Int64("recipientID", userID).
			Str("type", eventType).
			Msg("Hub event queue full, event dropped")
	}
}

// ConnectionCount returns the number of open connections for a user.
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if conns, ok := h.clients[userID]; ok {
		return len(conns)
	}
	return 0
}
