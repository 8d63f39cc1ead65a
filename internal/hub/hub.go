package hub

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is a named real-time event delivered to clients.
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Client is a single connection's outbound queue. The gateway's write
// pump drains it onto the wire.
type Client chan []byte

// Hub manages the room membership of all connected clients. A room is
// the set of connections watching one game.
type Hub struct {
	rooms   map[uint]map[Client]bool
	clients map[Client]bool
	mu      sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[uint]map[Client]bool),
		clients: make(map[Client]bool),
	}
}

// Register adds a connected client so it receives global events.
func (h *Hub) Register(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// Unregister removes a client from every room and closes its queue.
func (h *Hub) Unregister(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for gameID, clients := range h.rooms {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.rooms, gameID)
			}
		}
	}
	close(client)
}

// Subscribe adds a client to a game's room.
func (h *Hub) Subscribe(gameID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[gameID]; !ok {
		h.rooms[gameID] = make(map[Client]bool)
	}
	h.rooms[gameID][client] = true
}

// Unsubscribe removes a client from a game's room without closing it.
func (h *Hub) Unsubscribe(gameID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[gameID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, gameID)
		}
	}
}

// ToRoom sends an event to every client in a game's room.
func (h *Hub) ToRoom(gameID uint, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		log.Printf("hub: marshaling %q event: %v", event, err)
		return
	}

	for client := range h.rooms[gameID] {
		// Non-blocking send so a slow client never stalls the room.
		select {
		case client <- data:
		default:
		}
	}
}

// ToAll sends an event to every connected client.
func (h *Hub) ToAll(event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		log.Printf("hub: marshaling %q event: %v", event, err)
		return
	}

	for client := range h.clients {
		select {
		case client <- data:
		default:
		}
	}
}
