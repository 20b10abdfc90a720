package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a change notification pushed to the members of one household.
// It names what changed, never its contents.
type Message struct {
	Type        string `json:"type"`
	HouseholdID string `json:"householdId"`
	Entity      string `json:"entity"`
	Action      string `json:"action"`
	ID          string `json:"id,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(householdID, entity, action, id string) Message {
	return Message{
		Type:        fmt.Sprintf("%s_%s", entity, action),
		HouseholdID: householdID,
		Entity:      entity,
		Action:      action,
		ID:          id,
	}
}

// Hub tracks connected clients grouped into one room per household.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger.With("component", "websocket"),
	}
}

// Register adds a client to its household's room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.householdID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.householdID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Empty rooms are
// dropped.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.householdID]; ok {
		if _, ok := room[c]; ok {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, c.householdID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client in msg.HouseholdID's room.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[msg.HouseholdID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client buffer full, dropping message", "household_id", msg.HouseholdID, "type", msg.Type)
		}
	}
}

// Notify publishes a change to a household's room. It never blocks.
// A member leaving is disconnected from the room after the event is queued,
// and a deleted household's room is closed entirely.
func (h *Hub) Notify(householdID, entity, action, id string) {
	h.Broadcast(NewMessage(householdID, entity, action, id))

	switch {
	case entity == "member" && action == "left":
		h.Evict(householdID, id)
	case entity == "household" && action == "deleted":
		h.CloseRoom(householdID)
	}
}

// Evict disconnects every client userID holds in householdID's room. Queued
// messages are still written before the connection closes.
func (h *Hub) Evict(householdID, userID string) int {
	return h.removeWhere(householdID, func(c *Client) bool { return c.userID == userID })
}

// CloseRoom disconnects every client in householdID's room.
func (h *Hub) CloseRoom(householdID string) int {
	return h.removeWhere(householdID, func(*Client) bool { return true })
}

func (h *Hub) removeWhere(householdID string, match func(*Client) bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[householdID]
	if !ok {
		return 0
	}
	n := 0
	for c := range room {
		if !match(c) {
			continue
		}
		delete(room, c)
		close(c.send)
		n++
	}
	if len(room) == 0 {
		delete(h.rooms, householdID)
	}
	if n > 0 {
		h.logger.Debug("clients disconnected", "household_id", householdID, "count", n)
	}
	return n
}

// ClientCount returns the number of connected clients across all rooms.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// RoomCount returns the number of households with at least one client.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
