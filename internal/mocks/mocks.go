package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"chat-core/internal/flags"
	"chat-core/internal/models"
	"chat-core/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, params repositories.CreateChatParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *ChatRepositoryMock) FindPrivateChat(ctx context.Context, userID, otherID string) (string, bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetMemberships(ctx context.Context, chatID string) ([]models.ChatMembership, error) {
	args := m.Called(ctx, chatID)
	var memberships []models.ChatMembership
	if val := args.Get(0); val != nil {
		memberships = val.([]models.ChatMembership)
	}
	return memberships, args.Error(1)
}

func (m *ChatRepositoryMock) GetMembers(ctx context.Context, chatID string) ([]models.Member, error) {
	args := m.Called(ctx, chatID)
	var members []models.Member
	if val := args.Get(0); val != nil {
		members = val.([]models.Member)
	}
	return members, args.Error(1)
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatRepositoryMock) Rename(ctx context.Context, chatID, name string) error {
	args := m.Called(ctx, chatID, name)
	return args.Error(0)
}

func (m *ChatRepositoryMock) Archive(ctx context.Context, chatID, actingUserID, systemMessageBody string) (bool, error) {
	args := m.Called(ctx, chatID, actingUserID, systemMessageBody)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, params repositories.CreateMessageParams) (models.MessageRecord, error) {
	args := m.Called(ctx, params)
	var record models.MessageRecord
	if val := args.Get(0); val != nil {
		record = val.(models.MessageRecord)
	}
	return record, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) AppendEvent(ctx context.Context, messageID string, kind models.MessageEventKind, userID *string) (models.MessageEvent, error) {
	args := m.Called(ctx, messageID, kind, userID)
	var event models.MessageEvent
	if val := args.Get(0); val != nil {
		event = val.(models.MessageEvent)
	}
	return event, args.Error(1)
}

func (m *MessageRepositoryMock) ListEvents(ctx context.Context, messageID string) ([]models.MessageEvent, error) {
	args := m.Called(ctx, messageID)
	var events []models.MessageEvent
	if val := args.Get(0); val != nil {
		events = val.([]models.MessageEvent)
	}
	return events, args.Error(1)
}

func (m *MessageRepositoryMock) AppendContent(ctx context.Context, messageID, body string) (models.MessageContent, error) {
	args := m.Called(ctx, messageID, body)
	var content models.MessageContent
	if val := args.Get(0); val != nil {
		content = val.(models.MessageContent)
	}
	return content, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID, cursor string, limit int) ([]models.MessageRecord, string, error) {
	args := m.Called(ctx, chatID, cursor, limit)
	var records []models.MessageRecord
	if val := args.Get(0); val != nil {
		records = val.([]models.MessageRecord)
	}
	return records, args.String(1), args.Error(2)
}

func (m *MessageRepositoryMock) LatestMessage(ctx context.Context, chatID string) (models.MessageRecord, error) {
	args := m.Called(ctx, chatID)
	var record models.MessageRecord
	if val := args.Get(0); val != nil {
		record = val.(models.MessageRecord)
	}
	return record, args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, chatID, userID string) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Upsert(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	var stored models.User
	if val := args.Get(0); val != nil {
		stored = val.(models.User)
	}
	return stored, args.Error(1)
}

func (m *UserRepositoryMock) Get(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

type CapabilityRepositoryMock struct {
	mock.Mock
}

func (m *CapabilityRepositoryMock) GetChatCapability(ctx context.Context, chatID, capability string) (*models.ChatCapability, error) {
	args := m.Called(ctx, chatID, capability)
	var override *models.ChatCapability
	if val := args.Get(0); val != nil {
		override = val.(*models.ChatCapability)
	}
	return override, args.Error(1)
}

func (m *CapabilityRepositoryMock) SetChatCapability(ctx context.Context, chatID, capability string, enabled bool) error {
	args := m.Called(ctx, chatID, capability, enabled)
	return args.Error(0)
}

type FlagStoreMock struct {
	mock.Mock
}

func (m *FlagStoreMock) GetFlag(ctx context.Context, name string, fallback bool) (bool, error) {
	args := m.Called(ctx, name, fallback)
	return args.Bool(0), args.Error(1)
}

func (m *FlagStoreMock) SetFlag(ctx context.Context, name string, enabled bool) error {
	args := m.Called(ctx, name, enabled)
	return args.Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) PublishJSON(ctx context.Context, routingKey string, message any, headers map[string]string) error {
	args := m.Called(ctx, routingKey, message, headers)
	return args.Error(0)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.CapabilityRepository = (*CapabilityRepositoryMock)(nil)
var _ flags.Store = (*FlagStoreMock)(nil)
