package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-core/internal/models"
	"chat-core/internal/observability"
)

// Hub maintains active websocket rooms keyed by chat id.
type Hub struct {
	rooms    map[string]map[*websocket.Conn]bool
	connInfo map[string]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*websocket.Conn]bool),
		connInfo: make(map[string]map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection to a chat room.
func (h *Hub) AddClient(chatID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[chatID][conn] = true
	if _, ok := h.connInfo[chatID]; !ok {
		h.connInfo[chatID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[chatID][conn] = info
}

// RemoveClient removes a chat websocket connection.
func (h *Hub) RemoveClient(chatID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[chatID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, chatID)
		}
	}
	if infos, ok := h.connInfo[chatID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, chatID)
		}
	}
}

// ClientCount reports the number of live connections for a chat.
func (h *Hub) ClientCount(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

// BroadcastMessage sends a message to all clients in a chat.
func (h *Hub) BroadcastMessage(chatID string, msg models.ChatMessage) {
	h.broadcast(chatID, models.ChatEvent{Type: "message", Message: &msg})
}

// BroadcastStatus notifies clients that a message reached a new delivery status.
func (h *Hub) BroadcastStatus(chatID, messageID string, status models.MessageEventKind) {
	h.broadcast(chatID, models.ChatEvent{Type: "status", MessageID: messageID, Status: status})
}

// BroadcastArchived notifies clients that the chat was archived.
func (h *Hub) BroadcastArchived(chatID string) {
	h.broadcast(chatID, models.ChatEvent{Type: "archived"})
}

func (h *Hub) broadcast(chatID string, event models.ChatEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[chatID]))
	for conn := range h.rooms[chatID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			h.publishWSError(chatID, conn, err)
			h.RemoveClient(chatID, conn)
		}
	}
}

func (h *Hub) publishWSError(chatID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(chatID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"chat_id":     chatID,
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
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.chats",
		observability.NewEnvelope("ws_events", "ws_error", payload), headers)
	observability.IncWSEvent("ws_error")
}

func (h *Hub) getConnInfo(chatID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[chatID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
