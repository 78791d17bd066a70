package service

import (
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"chat-core/internal/capabilities"
	"chat-core/internal/mocks"
	"chat-core/internal/models"
	"chat-core/internal/telemetry"
)

// broadcasterRecorder records broadcast calls for assertions.
type broadcasterRecorder struct {
	messages []models.ChatMessage
	statuses []models.MessageEventKind
	archived []string
}

func (b *broadcasterRecorder) BroadcastMessage(chatID string, msg models.ChatMessage) {
	b.messages = append(b.messages, msg)
}

func (b *broadcasterRecorder) BroadcastStatus(chatID, messageID string, status models.MessageEventKind) {
	b.statuses = append(b.statuses, status)
}

func (b *broadcasterRecorder) BroadcastArchived(chatID string) {
	b.archived = append(b.archived, chatID)
}

// allowAllRegistry builds a registry whose flag and capability lookups all
// come back with their defaults.
func allowAllRegistry() *capabilities.Registry {
	flagStore := new(mocks.FlagStoreMock)
	flagStore.On("GetFlag", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	capsRepo := new(mocks.CapabilityRepositoryMock)
	capsRepo.On("GetChatCapability", mock.Anything, mock.Anything, mock.Anything).Return((*models.ChatCapability)(nil), nil).Maybe()

	return capabilities.NewRegistry(zap.NewNop(),
		capabilities.NewMessagePolicy(flagStore, capsRepo, zap.NewNop()),
		capabilities.NewChatPolicy(flagStore, zap.NewNop()),
	)
}

func newTestService(chats *mocks.ChatRepositoryMock, messages *mocks.MessageRepositoryMock, users *mocks.UserRepositoryMock, broadcaster *broadcasterRecorder) *ChatService {
	var b Broadcaster
	if broadcaster != nil {
		b = broadcaster
	}
	return NewChatService(chats, messages, users, allowAllRegistry(),
		telemetry.NewAuditEmitter(nil, "audit.chat", "chat-core", "test", zap.NewNop()),
		b, zap.NewNop())
}
