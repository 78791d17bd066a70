package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chat-core/internal/capabilities"
	"chat-core/internal/errs"
	"chat-core/internal/flags"
	"chat-core/internal/mocks"
	"chat-core/internal/models"
	"chat-core/internal/repositories"
	"chat-core/internal/telemetry"
)

func TestCreateChatValidation(t *testing.T) {
	svc := newTestService(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)
	actor := Actor{ID: "alice"}

	cases := []struct {
		name  string
		input CreateChatInput
	}{
		{"no members", CreateChatInput{}},
		{"creator listed", CreateChatInput{MemberIDs: []string{"alice"}}},
		{"duplicate member", CreateChatInput{MemberIDs: []string{"bob", "bob", "carol"}, Name: "team"}},
		{"named private chat", CreateChatInput{MemberIDs: []string{"bob"}, Name: "nope"}},
		{"unnamed group chat", CreateChatInput{MemberIDs: []string{"bob", "carol"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateChat(context.Background(), actor, tc.input)
			require.Error(t, err)
			assert.Equal(t, errs.KindBadRequest, errs.KindOf(err))
		})
	}
}

func TestCreateChatPrivateDeduplicates(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("FindPrivateChat", mock.Anything, "alice", "bob").Return("existing-chat", true, nil).Once()

	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)

	chatID, err := svc.CreateChat(context.Background(), Actor{ID: "alice"}, CreateChatInput{MemberIDs: []string{"bob"}})
	require.NoError(t, err)
	assert.Equal(t, "existing-chat", chatID)
	chatRepo.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything)
	chatRepo.AssertExpectations(t)
}

func TestCreateChatGroupSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("CreateChat", mock.Anything, repositories.CreateChatParams{
		CreatorID:         "alice",
		MemberIDs:         []string{"bob", "carol"},
		Name:              "team",
		SystemMessageBody: "New chat created",
	}).Return("new-chat", nil).Once()

	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)

	chatID, err := svc.CreateChat(context.Background(), Actor{ID: "alice"}, CreateChatInput{
		MemberIDs: []string{"bob", "carol"},
		Name:      "  team  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-chat", chatID)
	chatRepo.AssertExpectations(t)
}

func TestCreateChatDisabledByFlag(t *testing.T) {
	flagStore := new(mocks.FlagStoreMock)
	flagStore.On("GetFlag", mock.Anything, flags.FlagCreateChatsEnabled, true).Return(false, nil).Once()
	registry := capabilities.NewRegistry(zap.NewNop(), capabilities.NewChatPolicy(flagStore, zap.NewNop()))

	svc := NewChatService(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock),
		registry, telemetry.NewAuditEmitter(nil, "audit.chat", "chat-core", "test", zap.NewNop()), nil, zap.NewNop())

	_, err := svc.CreateChat(context.Background(), Actor{ID: "alice"}, CreateChatInput{MemberIDs: []string{"bob"}})
	require.Error(t, err)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
}

func TestRenameChat(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("Rename", mock.Anything, "chat-1", "new name").Return(nil).Once()

	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)

	require.NoError(t, svc.RenameChat(context.Background(), Actor{ID: "alice"}, "chat-1", " new name "))
	chatRepo.AssertExpectations(t)

	err := svc.RenameChat(context.Background(), Actor{ID: "alice"}, "chat-1", "   ")
	assert.Equal(t, errs.KindBadRequest, errs.KindOf(err))
}

func TestRenameChatNotFound(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("Rename", mock.Anything, "missing", "name").Return(repositories.ErrChatNotFound).Once()

	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)

	err := svc.RenameChat(context.Background(), Actor{ID: "alice"}, "missing", "name")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestArchiveChatNotFound(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "missing").Return(models.Chat{}, repositories.ErrChatNotFound).Once()

	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)

	err := svc.ArchiveChat(context.Background(), Actor{ID: "alice"}, "missing")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestArchiveChatRequiresMembership(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "chat-1").Return(models.Chat{ID: "chat-1"}, nil).Once()
	chatRepo.On("GetMemberships", mock.Anything, "chat-1").Return([]models.ChatMembership{
		{UserID: "bob", Permission: models.PermissionOwner},
	}, nil).Once()

	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)

	err := svc.ArchiveChat(context.Background(), Actor{ID: "alice"}, "chat-1")
	require.Error(t, err)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
	assert.Equal(t, "you are not a member of this chat", err.Error())
}

func TestArchiveChatRequiresPermission(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "chat-1").Return(models.Chat{ID: "chat-1"}, nil).Once()
	chatRepo.On("GetMemberships", mock.Anything, "chat-1").Return([]models.ChatMembership{
		{UserID: "alice", Permission: models.PermissionMember},
		{UserID: "bob", Permission: models.PermissionOwner},
	}, nil).Once()

	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), nil)

	err := svc.ArchiveChat(context.Background(), Actor{ID: "alice"}, "chat-1")
	require.Error(t, err)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
	chatRepo.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestArchiveChatSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "chat-1").Return(models.Chat{ID: "chat-1"}, nil).Once()
	chatRepo.On("GetMemberships", mock.Anything, "chat-1").Return([]models.ChatMembership{
		{UserID: "alice", Permission: models.PermissionOwner},
	}, nil).Once()
	chatRepo.On("Archive", mock.Anything, "chat-1", "alice", "Chat was archived").Return(true, nil).Once()

	broadcaster := &broadcasterRecorder{}
	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), broadcaster)

	require.NoError(t, svc.ArchiveChat(context.Background(), Actor{ID: "alice"}, "chat-1"))
	assert.Equal(t, []string{"chat-1"}, broadcaster.archived)
	chatRepo.AssertExpectations(t)
}

func TestArchiveChatAlreadyArchivedIsIdempotent(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "chat-1").Return(models.Chat{ID: "chat-1"}, nil).Once()
	chatRepo.On("GetMemberships", mock.Anything, "chat-1").Return([]models.ChatMembership{
		{UserID: "alice", Permission: models.PermissionAdmin},
	}, nil).Once()
	chatRepo.On("Archive", mock.Anything, "chat-1", "alice", "Chat was archived").Return(false, nil).Once()

	broadcaster := &broadcasterRecorder{}
	svc := newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), broadcaster)

	require.NoError(t, svc.ArchiveChat(context.Background(), Actor{ID: "alice"}, "chat-1"))
	assert.Empty(t, broadcaster.archived)
	chatRepo.AssertExpectations(t)
}
