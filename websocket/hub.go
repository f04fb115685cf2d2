package websocket

import (
	"context"
	"sync"

	"github.com/anjiri1684/studyhub/logger"
	"github.com/google/uuid"
)

const (
	EventAttemptGraded     = "attempt.graded"
	EventCertificateIssued = "certificate.issued"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type delivery struct {
	userID uuid.UUID
	event  Event
}

// Hub fans events out to every open connection of a user. A user may hold
// several connections, one per tab or device.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	deliveries chan delivery
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		deliveries: make(chan delivery, 256),
	}
}

// Default is the hub main runs and handlers publish to.
var Default = NewHub()

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	logger.Log.Debug("websocket client registered", "user_id", c.UserID.String(), "connections", len(set))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
}

func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish queues an event for the user. It never blocks; when the queue is
// full the event is dropped and logged.
func (h *Hub) Publish(userID uuid.UUID, eventType string, data interface{}) {
	select {
	case h.deliveries <- delivery{userID: userID, event: Event{Type: eventType, Data: data}}:
	default:
		logger.Log.Warn("websocket queue full, event dropped", "user_id", userID.String(), "type", eventType)
	}
}

// Run writes queued events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-h.deliveries:
			h.deliver(d)
		}
	}
}

func (h *Hub) deliver(d delivery) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[d.userID]))
	for c := range h.clients[d.userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.Conn.WriteJSON(d.event); err != nil {
			logger.Log.Warn("websocket write failed, dropping client", "user_id", d.userID.String(), "error", err)
			_ = c.Conn.Close()
			h.Unregister(c)
		}
	}
}

func Publish(userID uuid.UUID, eventType string, data interface{}) {
	Default.Publish(userID, eventType, data)
}
