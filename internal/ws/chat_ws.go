package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"chat-core/internal/observability"
	"chat-core/internal/permissions"
	"chat-core/internal/presence"
	"chat-core/internal/repositories"
)

// PresenceToucher refreshes a user's last-seen timestamp.
type PresenceToucher interface {
	TouchLastSeen(ctx context.Context, userID string, at time.Time) error
}

// ChatWebSocketHandler handles chat websocket connections. While a socket is
// open the connected user's presence is refreshed on a heartbeat, so holding
// a connection counts as being online.
type ChatWebSocketHandler struct {
	hub               *Hub
	chatRepo          repositories.ChatRepository
	presenceToucher   PresenceToucher
	heartbeatInterval time.Duration
	logger            *zap.Logger
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, chatRepo repositories.ChatRepository, toucher PresenceToucher, heartbeatInterval time.Duration, logger *zap.Logger) *ChatWebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatWebSocketHandler{
		hub:               hub,
		chatRepo:          chatRepo,
		presenceToucher:   toucher,
		heartbeatInterval: heartbeatInterval,
		logger:            logger,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client in the chat room.
// Identity is resolved by the auth middleware before this handler runs.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID := c.Param("chat_id")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	ctx, span := otel.Tracer("chat-core/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	memberships, err := h.chatRepo.GetMemberships(ctx, chatID)
	if err != nil || !permissions.IsMember(userID, memberships) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(chatID, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.chats",
		observability.NewEnvelope("ws_events", "ws_connect", wsPayload(chatID, "ws_connect", info, 0, "")),
		observability.BuildHeaders(requestID, traceID))

	connCtx, cancel := context.WithCancel(context.Background())
	if h.presenceToucher != nil && h.heartbeatInterval > 0 {
		heartbeat := presence.NewHeartbeat(presence.PingerFunc(func(ctx context.Context) error {
			return h.presenceToucher.TouchLastSeen(ctx, userID, time.Now().UTC())
		}), h.heartbeatInterval, h.logger)
		go heartbeat.Run(connCtx)
	}

	// Keep connection alive and clean on close
	go func() {
		var closeReason string
		defer func() {
			cancel()
			h.hub.RemoveClient(chatID, conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.chats",
				observability.NewEnvelope("ws_events", "ws_disconnect",
					wsPayload(chatID, "ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason)),
				observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
					_ = observability.PublishEvent(ctx, "ws_events.chats",
						observability.NewEnvelope("ws_events", "ws_error",
							wsPayload(chatID, "ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason)),
						observability.BuildHeaders(requestID, traceID))
				}
				return
			}
		}
	}()
}

func wsPayload(chatID, event string, info ConnInfo, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"chat_id":     chatID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
