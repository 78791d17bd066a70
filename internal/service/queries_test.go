package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-core/internal/errs"
	"chat-core/internal/mocks"
	"chat-core/internal/models"
	"chat-core/internal/repositories"
)

func TestListChatsUpsertsCallerAndResolvesNames(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	userRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.ID == "alice" && u.DisplayName == "Alice"
	})).Return(models.User{ID: "alice"}, nil).Once()

	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("ListChatsForUser", mock.Anything, "alice").Return([]models.Chat{
		{ID: "chat-1", Name: ""},
		{ID: "chat-2", Name: "team"},
	}, nil).Once()
	chatRepo.On("GetMembers", mock.Anything, "chat-1").Return([]models.Member{
		{ChatMembership: models.ChatMembership{UserID: "alice"}, DisplayName: "Alice"},
		{ChatMembership: models.ChatMembership{UserID: "bob"}, DisplayName: "Bob"},
	}, nil).Once()

	messageRepo := new(mocks.MessageRepositoryMock)
	messageRepo.On("UnreadCount", mock.Anything, "chat-1", "alice").Return(2, nil).Once()
	messageRepo.On("UnreadCount", mock.Anything, "chat-2", "alice").Return(0, nil).Once()
	messageRepo.On("LatestMessage", mock.Anything, "chat-1").Return(models.MessageRecord{
		Message: models.Message{ID: "msg-9", ChatID: "chat-1", SenderID: strPtr("bob")},
		Body:    "hi",
		Events:  []models.MessageEvent{{Kind: models.EventStored}},
	}, nil).Once()
	messageRepo.On("LatestMessage", mock.Anything, "chat-2").Return(models.MessageRecord{}, repositories.ErrMessageNotFound).Once()

	svc := newTestService(chatRepo, messageRepo, userRepo, nil)

	previews, err := svc.ListChats(context.Background(), Actor{ID: "alice", Name: "Alice"})
	require.NoError(t, err)
	require.Len(t, previews, 2)

	assert.Equal(t, "Bob", previews[0].Name)
	assert.Equal(t, 2, previews[0].UnreadCount)
	assert.Equal(t, "msg-9", previews[0].LastMessage.ID)
	assert.Equal(t, models.EventStored, previews[0].LastMessage.Status)

	assert.Equal(t, "team", previews[1].Name)
	assert.Empty(t, previews[1].LastMessage.ID)

	userRepo.AssertExpectations(t)
	chatRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestChatDetailsPresence(t *testing.T) {
	now := time.Now().UTC()
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "chat-1").Return(models.Chat{ID: "chat-1", Name: "team"}, nil).Once()
	chatRepo.On("GetMembers", mock.Anything, "chat-1").Return([]models.Member{
		{ChatMembership: models.ChatMembership{UserID: "alice", Permission: models.PermissionOwner}, DisplayName: "Alice", LastSeen: now},
		{ChatMembership: models.ChatMembership{UserID: "bob", Permission: models.PermissionMember}, DisplayName: "Bob", LastSeen: now.Add(-5 * time.Minute)},
	}, nil).Once()

	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)

	details, err := svc.ChatDetails(context.Background(), Actor{ID: "alice"}, "chat-1")
	require.NoError(t, err)
	require.Len(t, details.Members, 2)
	assert.True(t, details.Members[0].IsOnline)
	assert.False(t, details.Members[1].IsOnline)
	chatRepo.AssertExpectations(t)
}

func TestMessagesNonMemberGetsNotFound(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "chat-1").Return(models.Chat{ID: "chat-1"}, nil).Once()
	chatRepo.On("GetMemberships", mock.Anything, "chat-1").Return([]models.ChatMembership{
		{UserID: "bob", Permission: models.PermissionOwner},
	}, nil).Once()

	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)

	_, err := svc.Messages(context.Background(), Actor{ID: "alice"}, "chat-1", "", 10)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestMessagesClampsLimit(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "chat-1").Return(models.Chat{ID: "chat-1"}, nil)
	chatRepo.On("GetMemberships", mock.Anything, "chat-1").Return([]models.ChatMembership{
		{UserID: "alice", Permission: models.PermissionOwner},
	}, nil)

	messageRepo := new(mocks.MessageRepositoryMock)
	messageRepo.On("ListMessages", mock.Anything, "chat-1", "", 25).Return([]models.MessageRecord(nil), "", nil).Once()
	messageRepo.On("ListMessages", mock.Anything, "chat-1", "", 100).Return([]models.MessageRecord(nil), "", nil).Once()

	svc := newTestService(chatRepo, messageRepo, new(mocks.UserRepositoryMock), nil)

	_, err := svc.Messages(context.Background(), Actor{ID: "alice"}, "chat-1", "", 0)
	require.NoError(t, err)
	_, err = svc.Messages(context.Background(), Actor{ID: "alice"}, "chat-1", "", 500)
	require.NoError(t, err)
	messageRepo.AssertExpectations(t)
}

func TestMessagesPageCarriesCursor(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "chat-1").Return(models.Chat{ID: "chat-1"}, nil).Once()
	chatRepo.On("GetMemberships", mock.Anything, "chat-1").Return([]models.ChatMembership{
		{UserID: "alice", Permission: models.PermissionOwner},
	}, nil).Once()

	messageRepo := new(mocks.MessageRepositoryMock)
	messageRepo.On("ListMessages", mock.Anything, "chat-1", "cursor-a", 2).Return([]models.MessageRecord{
		{Message: models.Message{ID: "msg-2", ChatID: "chat-1"}, Body: "b", Events: []models.MessageEvent{{Kind: models.EventUserRead}}},
		{Message: models.Message{ID: "msg-1", ChatID: "chat-1"}, Body: "a", Events: []models.MessageEvent{{Kind: models.EventStored}}},
	}, "msg-1", nil).Once()

	svc := newTestService(chatRepo, messageRepo, new(mocks.UserRepositoryMock), nil)

	page, err := svc.Messages(context.Background(), Actor{ID: "alice"}, "chat-1", "cursor-a", 2)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", page.NextCursor)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, models.EventRead, page.Messages[0].Status)
	assert.Equal(t, models.EventStored, page.Messages[1].Status)
}
