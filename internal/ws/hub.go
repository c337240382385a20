package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

const (
	wsKind       = "conversation"
	wsRoutingKey = "ws_events.conversations"
	wsEventsType = "ws_events"
)

// Hub tracks which websocket connections joined which conversation rooms and
// fans room events out to them. It implements service.Broadcaster, which is
// how persisted state changes reach connected clients.
type Hub struct {
	rooms  map[int]map[*websocket.Conn]ConnInfo
	byConn map[*websocket.Conn]map[int]bool
	mu     sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[int]map[*websocket.Conn]ConnInfo),
		byConn: make(map[*websocket.Conn]map[int]bool),
	}
}

// Join registers a connection in a conversation room.
func (h *Hub) Join(conversationID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[conversationID][conn] = info
	if _, ok := h.byConn[conn]; !ok {
		h.byConn[conn] = make(map[int]bool)
	}
	h.byConn[conn][conversationID] = true
}

// Leave removes a connection from one room.
func (h *Hub) Leave(conversationID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(conversationID, conn)
}

// Disconnect removes a connection from every room it joined.
func (h *Hub) Disconnect(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conversationID := range h.byConn[conn] {
		h.leaveLocked(conversationID, conn)
	}
}

func (h *Hub) leaveLocked(conversationID int, conn *websocket.Conn) {
	if conns, ok := h.rooms[conversationID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	if rooms, ok := h.byConn[conn]; ok {
		delete(rooms, conversationID)
		if len(rooms) == 0 {
			delete(h.byConn, conn)
		}
	}
}

// InRoom reports whether the connection has joined the room.
func (h *Hub) InRoom(conversationID int, conn *websocket.Conn) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[conversationID][conn]
	return ok
}

// RoomSize returns how many connections are in the room.
func (h *Hub) RoomSize(conversationID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// BroadcastMessage sends a message-bearing event to every client in the
// conversation room.
func (h *Hub) BroadcastMessage(conversationID int, event string, msg models.Message) {
	h.broadcast(conversationID, models.RoomEvent{Event: event, Message: &msg}, nil)
}

// BroadcastDeletion notifies the room that a message is gone. deletedBy is
// set when the delete was not for everyone so clients can keep a local
// placeholder for the other side.
func (h *Hub) BroadcastDeletion(conversationID, messageID int, forEveryone bool, deletedBy *int) {
	h.broadcast(conversationID, models.RoomEvent{
		Event:              models.EventMessageDeleted,
		MessageID:          messageID,
		ConversationID:     conversationID,
		DeletedForEveryone: forEveryone,
		DeletedBy:          deletedBy,
	}, nil)
}

// BroadcastTyping relays a typing indicator to everyone in the room except
// the sender.
func (h *Hub) BroadcastTyping(conversationID, userID int, sender *websocket.Conn) {
	h.broadcast(conversationID, models.RoomEvent{
		Event:          models.EventTyping,
		ConversationID: conversationID,
		UserID:         userID,
	}, sender)
}

// WriteEvent sends a single event to one connection.
func (h *Hub) WriteEvent(conn *websocket.Conn, event models.RoomEvent) error {
	payload, _ := json.Marshal(event)
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Hub) broadcast(conversationID int, event models.RoomEvent, exclude *websocket.Conn) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]ConnInfo, len(h.rooms[conversationID]))
	for conn, info := range h.rooms[conversationID] {
		conns[conn] = info
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for conn, info := range conns {
		if conn == exclude {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.Disconnect(conn)
			h.publishWSError(conversationID, info, err)
		}
	}
}

func (h *Hub) publishWSError(conversationID int, info ConnInfo, err error) {
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey, observability.EventEnvelope{
		EventType: wsEventsType,
		EventName: "ws_error",
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        wsKind,
				"resource_id": conversationID,
				"event":       "ws_error",
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      err.Error(),
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, headers)
	observability.IncWSEvent(wsKind, "ws_error")
}
