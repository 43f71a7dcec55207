package websocket

import (
	"encoding/json"
	"sync"

	"github.com/richxcame/scam-sniffer/pkg/logger"
	"go.uber.org/zap"
)

// Message is the envelope exchanged with websocket clients
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// MessageHandler processes one inbound message type
type MessageHandler func(client *Client, data json.RawMessage)

// Hub owns all websocket clients. Register/Unregister/Broadcast are
// serialized through Run's single goroutine; the handlers map is only
// mutated before Run starts.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Message

	handlers map[string]MessageHandler

	onCountChange func(count int)
}

// NewHub creates a hub with no connected clients
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client, 16),
		Unregister: make(chan *Client, 16),
		Broadcast:  make(chan Message, 64),
		handlers:   make(map[string]MessageHandler),
	}
}

// OnMessage registers a handler for an inbound message type. Must be
// called before Run.
func (h *Hub) OnMessage(msgType string, handler MessageHandler) {
	h.handlers[msgType] = handler
}

// OnCountChange registers a callback invoked with the live client count
// after every register/unregister. Must be called before Run.
func (h *Hub) OnCountChange(fn func(count int)) {
	h.onCountChange = fn
}

// Run processes hub events until the process exits
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.Broadcast:
			h.broadcastAll(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	if existing, ok := h.clients[client.ID]; ok {
		close(existing.send)
	}
	h.clients[client.ID] = client
	count := len(h.clients)
	h.mu.Unlock()

	logger.Debug("Websocket client connected",
		zap.String("client_id", client.ID),
		zap.Int("active_clients", count),
	)

	h.notifyCount(count)
	h.broadcastAll(Message{Type: "user_count", Data: map[string]int{"count": count}})
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	existing, ok := h.clients[client.ID]
	if ok && existing == client {
		delete(h.clients, client.ID)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok || existing != client {
		return
	}

	logger.Debug("Websocket client disconnected",
		zap.String("client_id", client.ID),
		zap.Int("active_clients", count),
	)

	h.notifyCount(count)
	h.broadcastAll(Message{Type: "user_count", Data: map[string]int{"count": count}})
}

func (h *Hub) notifyCount(count int) {
	if h.onCountChange != nil {
		h.onCountChange(count)
	}
}

func (h *Hub) broadcastAll(message Message) {
	payload, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.enqueue(payload)
	}
}

// BroadcastToRole sends a message to every client with the given role
func (h *Hub) BroadcastToRole(role string, message Message) {
	payload, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.Role == role {
			client.enqueue(payload)
		}
	}
}

// SendToClient sends a message to one client, if connected. The read
// lock is held across the enqueue: removeClient closes the send channel
// under the write lock, so enqueueing outside the lock races a
// concurrent disconnect into a send on a closed channel.
func (h *Hub) SendToClient(clientID string, message Message) bool {
	payload, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", zap.Error(err))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	if !ok {
		return false
	}

	client.enqueue(payload)
	return true
}

// GetClient returns a connected client by ID
func (h *Hub) GetClient(clientID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	return client, ok
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) dispatch(client *Client, raw []byte) {
	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("Dropping malformed websocket message",
			zap.String("client_id", client.ID),
			zap.Error(err),
		)
		return
	}

	handler, ok := h.handlers[msg.Type]
	if !ok {
		logger.Debug("No handler for websocket message type",
			zap.String("type", msg.Type),
			zap.String("client_id", client.ID),
		)
		return
	}

	handler(client, msg.Data)
}
