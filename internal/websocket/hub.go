package websocket

import (
	"log/slog"
	"sync"

	"github.com/wayfareapp/wayfare-service/internal/types"
)

// Hub maintains the set of active clients, their topic subscriptions, and
// fans events out to them.
type Hub struct {
	// Registered clients mapped by user ID
	clients map[string]*Client

	// Topic name -> set of subscribed user IDs. Clients subscribe while a
	// post detail screen is open and unsubscribe when it closes.
	topics map[string]map[string]struct{}

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Protects clients and topics
	mu sync.RWMutex

	// Channel to broadcast events
	broadcast chan *broadcastMessage
}

type broadcastMessage struct {
	userIDs []string
	topic   string
	event   *types.Event
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		topics:     make(map[string]map[string]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 64),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// If user already has a connection, close the old one
			if existing, exists := h.clients[client.userID]; exists {
				close(existing.send)
				slog.Info("Replaced existing WebSocket connection", slog.String("user_id", client.userID))
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected", slog.String("user_id", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				h.dropSubscriptions(client.userID)
				close(client.send)
				slog.Info("WebSocket client disconnected", slog.String("user_id", client.userID))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			if message.topic != "" {
				h.deliverToTopic(message.topic, message.event)
			} else {
				h.deliverToUsers(message.userIDs, message.event)
			}
		}
	}
}

// RegisterClient registers a new client
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// Subscribe adds a user to a topic. No-op if already subscribed.
func (h *Hub) Subscribe(userID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[userID]; !ok {
		return
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]struct{})
		h.topics[topic] = subs
	}
	subs[userID] = struct{}{}
}

// Unsubscribe removes a user from a topic.
func (h *Hub) Unsubscribe(userID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[topic]; ok {
		delete(subs, userID)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// dropSubscriptions removes a user from every topic. Caller holds the lock.
func (h *Hub) dropSubscriptions(userID string) {
	for topic, subs := range h.topics {
		delete(subs, userID)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// BroadcastToTopic sends an event to every subscriber of a topic.
func (h *Hub) BroadcastToTopic(topic string, event *types.Event) {
	h.enqueue(&broadcastMessage{topic: topic, event: event})
}

// BroadcastToUsers sends an event to specific users
func (h *Hub) BroadcastToUsers(userIDs []string, event *types.Event) {
	h.enqueue(&broadcastMessage{userIDs: userIDs, event: event})
}

// BroadcastToUser sends an event to a specific user
func (h *Hub) BroadcastToUser(userID string, event *types.Event) {
	h.BroadcastToUsers([]string{userID}, event)
}

func (h *Hub) enqueue(message *broadcastMessage) {
	select {
	case h.broadcast <- message:
	default:
		slog.Warn("Broadcast channel is full, dropping message")
	}
}

func (h *Hub) deliverToTopic(topic string, event *types.Event) {
	h.mu.RLock()
	subs := h.topics[topic]
	userIDs := make([]string, 0, len(subs))
	for userID := range subs {
		userIDs = append(userIDs, userID)
	}
	h.mu.RUnlock()

	h.deliverToUsers(userIDs, event)
}

func (h *Hub) deliverToUsers(userIDs []string, event *types.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		if client, ok := h.clients[userID]; ok {
			if err := client.SendEvent(event); err != nil {
				slog.Error("Failed to send event to client",
					slog.String("user_id", userID),
					slog.String("error", err.Error()))
				// Remove the client if sending fails
				go func(c *Client) {
					h.unregister <- c
				}(client)
			}
		}
	}
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

// TopicSubscriberCount returns how many users are subscribed to a topic.
func (h *Hub) TopicSubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[topic])
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
