package websocket

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event types pushed to connected dashboards
const (
	EventTypeJobStatus     = "job_status"
	EventTypePhoneVerified = "phone_verified"
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type         string      `json:"type"`
	Message      string      `json:"message"`
	Data         interface{} `json:"data,omitempty"`
	UserID       string      `json:"userID,omitempty"`
	RequiresAuth bool        `json:"requiresAuth,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID        uuid.UUID
	Conn          *websocket.Conn
	Authenticated bool
	writeMu       sync.Mutex
}

// Send writes a notification to the client. Gorilla connections allow only
// one concurrent writer, so every write goes through here.
func (c *Client) Send(notification Notification) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(notification)
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients                map[uuid.UUID]*Client
	unauthenticatedClients map[*Client]bool
	register               chan *Client
	unregister             chan *Client
	mu                     sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:                make(map[uuid.UUID]*Client),
		unauthenticatedClients: make(map[*Client]bool),
		register:               make(chan *Client),
		unregister:             make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.Authenticated && client.UserID != uuid.Nil {
				h.clients[client.UserID] = client
			} else {
				h.unauthenticatedClients[client] = true
			}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if client.Authenticated && client.UserID != uuid.Nil {
				if _, ok := h.clients[client.UserID]; ok {
					delete(h.clients, client.UserID)
				}
			} else {
				delete(h.unauthenticatedClients, client)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends a message to a specific user
func (h *Hub) SendToUser(userID uuid.UUID, notification Notification) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Send(notification)
}

// AuthenticateClient moves a client from unauthenticated to authenticated state
func (h *Hub) AuthenticateClient(client *Client, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.unauthenticatedClients, client)
	client.Authenticated = true
	client.UserID = userID
	h.clients[userID] = client
}

// NotifyJobStatus pushes a content-job status change to its owner.
// A disconnected owner is not an error; the status stays in the cache.
func (h *Hub) NotifyJobStatus(userID uuid.UUID, jobData interface{}) {
	notification := Notification{
		Type:    EventTypeJobStatus,
		Message: "Content job status updated",
		Data:    jobData,
	}
	_ = h.SendToUser(userID, notification)
}

// NotifyPhoneVerified tells a connected client its phone was verified.
func (h *Hub) NotifyPhoneVerified(userID uuid.UUID) {
	notification := Notification{
		Type:    EventTypePhoneVerified,
		Message: "Phone number verified",
	}
	_ = h.SendToUser(userID, notification)
}
