package ws

import (
	"encoding/json"
	"sync"

	"github.com/mjgskyblade/echopay-sub000/internal/logger"
)

// Hub fans case lifecycle events out to connected operator dashboards.
// Publishing never blocks case processing: a slow consumer is dropped.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 32),
	}
}

// Run drives the hub loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case payload := <-h.broadcast:
			h.send(payload)
		}
	}
}

// Register adds a client.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish serializes a case event and broadcasts it to every connected
// dashboard. The "type"/"data" envelope is the dashboard wire contract.
func (h *Hub) Publish(event string, data any) {
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Log.WithError(err).Warn("ws: could not serialize event")
		return
	}

	select {
	case h.broadcast <- raw:
	default:
		logger.Log.WithField("event", event).Warn("ws: broadcast buffer full, event dropped")
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

func (h *Hub) send(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			go client.Close()
		}
	}
}
