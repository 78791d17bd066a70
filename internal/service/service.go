package service

import (
	"go.uber.org/zap"

	"chat-core/internal/capabilities"
	"chat-core/internal/models"
	"chat-core/internal/repositories"
	"chat-core/internal/telemetry"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID        string
	Name      string
	RequestID string
}

// Broadcaster fans chat events out to connected websocket clients.
type Broadcaster interface {
	BroadcastMessage(chatID string, msg models.ChatMessage)
	BroadcastStatus(chatID, messageID string, status models.MessageEventKind)
	BroadcastArchived(chatID string)
}

// ChatService implements the chat lifecycle, messaging, and presence
// operations on top of the repositories.
type ChatService struct {
	chats       repositories.ChatRepository
	messages    repositories.MessageRepository
	users       repositories.UserRepository
	caps        *capabilities.Registry
	audit       *telemetry.AuditEmitter
	broadcaster Broadcaster
	logger      *zap.Logger
}

func NewChatService(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	caps *capabilities.Registry,
	audit *telemetry.AuditEmitter,
	broadcaster Broadcaster,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		chats:       chats,
		messages:    messages,
		users:       users,
		caps:        caps,
		audit:       audit,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// resolveChatName returns the display name of a chat for a viewer. Private
// chats carry no name of their own, so the other member's profile name is
// used instead.
func resolveChatName(chat models.Chat, members []models.Member, viewerID string) string {
	if chat.Name != "" {
		return chat.Name
	}
	for _, member := range members {
		if member.UserID != viewerID {
			if member.DisplayName != "" {
				return member.DisplayName
			}
			return member.UserID
		}
	}
	return chat.ID
}
