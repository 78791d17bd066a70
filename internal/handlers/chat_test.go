package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chat-core/internal/capabilities"
	"chat-core/internal/mocks"
	"chat-core/internal/models"
	"chat-core/internal/repositories"
	"chat-core/internal/service"
	"chat-core/internal/telemetry"
)

func newTestService(chatRepo *mocks.ChatRepositoryMock, messageRepo *mocks.MessageRepositoryMock, userRepo *mocks.UserRepositoryMock) *service.ChatService {
	flagStore := new(mocks.FlagStoreMock)
	flagStore.On("GetFlag", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	capsRepo := new(mocks.CapabilityRepositoryMock)
	capsRepo.On("GetChatCapability", mock.Anything, mock.Anything, mock.Anything).Return((*models.ChatCapability)(nil), nil).Maybe()

	registry := capabilities.NewRegistry(zap.NewNop(),
		capabilities.NewMessagePolicy(flagStore, capsRepo, zap.NewNop()),
		capabilities.NewChatPolicy(flagStore, zap.NewNop()),
	)
	audit := telemetry.NewAuditEmitter(nil, "audit.chat", "chat-core", "test", zap.NewNop())
	return service.NewChatService(chatRepo, messageRepo, userRepo, registry, audit, nil, zap.NewNop())
}

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "11111111-1111-1111-1111-111111111111")
		c.Set("userName", "Alice")
		c.Next()
	})
	r.POST("/chats", handler.CreateChat)
	r.GET("/chats", handler.ListChats)
	r.GET("/chats/:chat_id", handler.ChatDetails)
	r.PATCH("/chats/:chat_id/name", handler.RenameChat)
	r.POST("/chats/:chat_id/archive", handler.ArchiveChat)
	r.GET("/chats/:chat_id/messages", handler.GetChatMessages)
	return r
}

const testUserID = "11111111-1111-1111-1111-111111111111"

func TestCreateChatSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("CreateChat", mock.Anything, mock.Anything).Return("chat-1", nil).Once()

	handler := NewChatHandler(newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock)))
	router := setupChatRouter(handler)

	body := bytes.NewBufferString(`{"member_ids":["bob","carol"],"name":"team"}`)
	req := httptest.NewRequest(http.MethodPost, "/chats", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "chat-1", resp["chat_id"])
	chatRepo.AssertExpectations(t)
}

func TestCreateChatValidationError(t *testing.T) {
	handler := NewChatHandler(newTestService(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock)))
	router := setupChatRouter(handler)

	body := bytes.NewBufferString(`{"member_ids":["bob"],"name":"private chats cannot have one"}`)
	req := httptest.NewRequest(http.MethodPost, "/chats", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListChatsSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	userRepo.On("Upsert", mock.Anything, mock.Anything).Return(models.User{ID: testUserID}, nil).Once()
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("ListChatsForUser", mock.Anything, testUserID).Return([]models.Chat{{ID: "chat-1", Name: "team"}}, nil).Once()
	messageRepo := new(mocks.MessageRepositoryMock)
	messageRepo.On("UnreadCount", mock.Anything, "chat-1", testUserID).Return(0, nil).Once()
	messageRepo.On("LatestMessage", mock.Anything, "chat-1").Return(models.MessageRecord{}, repositories.ErrMessageNotFound).Once()

	handler := NewChatHandler(newTestService(chatRepo, messageRepo, userRepo))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]models.ChatPreview
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp["chats"], 1)
	assert.Equal(t, "team", resp["chats"][0].Name)
	chatRepo.AssertExpectations(t)
}

func TestListChatsRepoError(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	userRepo.On("Upsert", mock.Anything, mock.Anything).Return(models.User{}, nil).Once()
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("ListChatsForUser", mock.Anything, testUserID).Return(([]models.Chat)(nil), assert.AnError).Once()

	handler := NewChatHandler(newTestService(chatRepo, new(mocks.MessageRepositoryMock), userRepo))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "internal error", resp["error"])
}

func TestArchiveChatForbidden(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "chat-1").Return(models.Chat{ID: "chat-1"}, nil).Once()
	chatRepo.On("GetMemberships", mock.Anything, "chat-1").Return([]models.ChatMembership{
		{UserID: "someone-else", Permission: models.PermissionOwner},
	}, nil).Once()

	handler := NewChatHandler(newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock)))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/chats/chat-1/archive", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestArchiveChatSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("GetChat", mock.Anything, "chat-1").Return(models.Chat{ID: "chat-1"}, nil).Once()
	chatRepo.On("GetMemberships", mock.Anything, "chat-1").Return([]models.ChatMembership{
		{UserID: testUserID, Permission: models.PermissionOwner},
	}, nil).Once()
	chatRepo.On("Archive", mock.Anything, "chat-1", testUserID, mock.Anything).Return(true, nil).Once()

	handler := NewChatHandler(newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock)))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/chats/chat-1/archive", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestRenameChatNotFound(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	chatRepo.On("Rename", mock.Anything, "missing", "name").Return(repositories.ErrChatNotFound).Once()

	handler := NewChatHandler(newTestService(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock)))
	router := setupChatRouter(handler)

	body := bytes.NewBufferString(`{"name":"name"}`)
	req := httptest.NewRequest(http.MethodPatch, "/chats/missing/name", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetChatMessagesInvalidLimit(t *testing.T) {
	handler := NewChatHandler(newTestService(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock)))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/chats/chat-1/messages?limit=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
