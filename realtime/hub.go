package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Server -> client event names.
const (
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventNewCustomer        = "new-customer"
	EventOrderPlaced        = "order-placed"
	EventOrderStatusChanged = "order-status-changed"
	EventCartShared         = "cart-shared"
)

// Client -> server event names.
const (
	ClientJoinSession       = "join-session"
	ClientLeaveSession      = "leave-session"
	ClientCustomerJoined    = "customer-joined"
	ClientNewOrder          = "new-order"
	ClientOrderStatusUpdate = "order-status-update"
	ClientShareCart         = "share-cart"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub is the realtime fan-out bus: rooms keyed by session id, each holding the
// set of subscribed connections. It carries no state of its own beyond room
// membership; delivery is best-effort and at-most-once, with no replay. If a
// write fails the client simply misses the event and reconciles via REST.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]bool
	// conn -> rooms it joined, for cleanup on disconnect
	conns map[*websocket.Conn]map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]bool),
		conns: make(map[*websocket.Conn]map[string]bool),
	}
}

// Join subscribes conn to the session's room and notifies the other members.
func (h *Hub) Join(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[sessionID][conn] = true
	if h.conns[conn] == nil {
		h.conns[conn] = make(map[string]bool)
	}
	h.conns[conn][sessionID] = true
	h.mu.Unlock()

	h.BroadcastToOthers(sessionID, conn, EventUserJoined, map[string]interface{}{
		"socketId":  connID(conn),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Leave unsubscribes conn from one room without touching the connection.
func (h *Hub) Leave(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	h.removeFromRoom(sessionID, conn)
	h.mu.Unlock()

	h.BroadcastToOthers(sessionID, conn, EventUserLeft, map[string]interface{}{
		"socketId":  connID(conn),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Disconnect removes conn from every room it joined and closes it.
func (h *Hub) Disconnect(conn *websocket.Conn) {
	h.mu.Lock()
	joined := make([]string, 0, len(h.conns[conn]))
	for sessionID := range h.conns[conn] {
		joined = append(joined, sessionID)
	}
	for _, sessionID := range joined {
		h.removeFromRoom(sessionID, conn)
	}
	delete(h.conns, conn)
	h.mu.Unlock()

	for _, sessionID := range joined {
		h.BroadcastToOthers(sessionID, conn, EventUserLeft, map[string]interface{}{
			"socketId":  connID(conn),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
	conn.Close()
}

// RoomSize returns the number of subscribers in a session's room.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[sessionID])
}

// BroadcastToRoom sends an event to every member of the room, sender included.
func (h *Hub) BroadcastToRoom(sessionID, event string, data interface{}) {
	h.broadcast(sessionID, nil, event, data)
}

// BroadcastToOthers sends an event to every room member except sender.
func (h *Hub) BroadcastToOthers(sessionID string, sender *websocket.Conn, event string, data interface{}) {
	h.broadcast(sessionID, sender, event, data)
}

// caller must hold h.mu
func (h *Hub) removeFromRoom(sessionID string, conn *websocket.Conn) {
	if room, ok := h.rooms[sessionID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
	if joined, ok := h.conns[conn]; ok {
		delete(joined, sessionID)
	}
}

func (h *Hub) broadcast(sessionID string, exclude *websocket.Conn, event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.rooms[sessionID] {
		if conn == exclude {
			continue
		}
		// Best effort: a failed write means this client misses the event
		// and catches up on its next REST fetch.
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
}

func connID(conn *websocket.Conn) string {
	return conn.RemoteAddr().String()
}
