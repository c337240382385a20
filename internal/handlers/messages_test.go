package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/service"
)

type messageFixture struct {
	convos   *mocks.ConversationRepositoryMock
	messages *mocks.MessageRepositoryMock
	users    *mocks.UserRepositoryMock
	blocks   *mocks.BlockRepositoryMock
	router   *gin.Engine
}

func setupMessageRouter() messageFixture {
	gin.SetMode(gin.TestMode)
	f := messageFixture{
		convos:   new(mocks.ConversationRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		users:    new(mocks.UserRepositoryMock),
		blocks:   new(mocks.BlockRepositoryMock),
	}
	registry := service.NewBlockRegistry(f.blocks)
	convoService := service.NewConversationService(f.convos, f.messages, f.users, registry)
	messageService := service.NewMessageService(f.messages, f.convos, registry, nil)
	handler := NewMessageHandler(messageService, convoService)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/conversations/:id/messages", handler.ListMessages)
	r.POST("/conversations/:id/messages", handler.PostMessage)
	r.GET("/conversations/:id/messages/search", handler.SearchMessages)
	r.POST("/messages", handler.SendDirect)
	r.POST("/messages/:message_id/read", handler.MarkRead)
	r.POST("/messages/:message_id/reactions", handler.ToggleReaction)
	r.DELETE("/messages/:message_id/me", handler.DeleteMessageForMe)
	r.DELETE("/messages/:message_id/all", handler.DeleteMessageForAll)
	f.router = r
	return f
}

func testDirect() models.Conversation {
	return models.Conversation{
		ID:           5,
		Type:         models.ConversationDirect,
		Participants: []models.Participant{{UserID: 1}, {UserID: 2}},
	}
}

func TestPostMessageSuccess(t *testing.T) {
	f := setupMessageRouter()

	f.convos.On("GetConversation", mock.Anything, 5).Return(testDirect(), nil).Once()
	f.blocks.On("Exists", mock.Anything, 1, 2).Return(false, nil).Once()
	f.messages.On("CreateMessage", mock.Anything, mock.Anything).
		Return(models.Message{ID: 7, ConversationID: 5, AuthorID: 1, Content: "hi", Status: models.StatusSent}, nil).Once()
	f.messages.On("UpdateStatus", mock.Anything, 7, models.StatusDelivered).Return(nil).Once()
	f.convos.On("TouchUpdatedAt", mock.Anything, 5).Return(nil).Once()

	body := bytes.NewBufferString(`{"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/conversations/5/messages", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	f.messages.AssertExpectations(t)
}

func TestPostMessageEmptyRejected(t *testing.T) {
	f := setupMessageRouter()

	f.convos.On("GetConversation", mock.Anything, 5).Return(testDirect(), nil).Once()
	f.blocks.On("Exists", mock.Anything, 1, 2).Return(false, nil).Once()

	body := bytes.NewBufferString(`{"content":"  "}`)
	req := httptest.NewRequest(http.MethodPost, "/conversations/5/messages", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendDirectResolvesConversation(t *testing.T) {
	f := setupMessageRouter()

	f.users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2}, nil).Once()
	f.blocks.On("Exists", mock.Anything, 1, 2).Return(false, nil)
	f.convos.On("CreateOrGetDirect", mock.Anything, 1, 2).Return(testDirect(), nil).Once()
	f.convos.On("GetConversation", mock.Anything, 5).Return(testDirect(), nil).Once()
	f.messages.On("CreateMessage", mock.Anything, mock.Anything).
		Return(models.Message{ID: 7, ConversationID: 5, AuthorID: 1, Content: "hi", Status: models.StatusSent}, nil).Once()
	f.messages.On("UpdateStatus", mock.Anything, 7, models.StatusDelivered).Return(nil).Once()
	f.convos.On("TouchUpdatedAt", mock.Anything, 5).Return(nil).Once()

	body := bytes.NewBufferString(`{"recipientId":2,"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	f.convos.AssertExpectations(t)
}

func TestSendDirectBlockedRecipient(t *testing.T) {
	f := setupMessageRouter()

	f.users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2}, nil).Once()
	f.blocks.On("Exists", mock.Anything, 1, 2).Return(true, nil).Once()

	body := bytes.NewBufferString(`{"recipientId":2,"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/messages", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMarkReadEndpoint(t *testing.T) {
	f := setupMessageRouter()

	f.messages.On("GetMessage", mock.Anything, 7).
		Return(models.Message{ID: 7, ConversationID: 5, AuthorID: 2, Status: models.StatusDelivered}, nil).Once()
	f.convos.On("GetConversation", mock.Anything, 5).Return(testDirect(), nil).Once()
	f.messages.On("InsertRead", mock.Anything, 7, 1).Return(true, nil).Once()
	f.messages.On("CountReads", mock.Anything, 7).Return(2, nil).Once()
	f.messages.On("UpdateStatus", mock.Anything, 7, models.StatusRead).Return(nil).Once()
	f.messages.On("GetMessage", mock.Anything, 7).
		Return(models.Message{ID: 7, ConversationID: 5, AuthorID: 2, Status: models.StatusRead}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/7/read", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	f.messages.AssertExpectations(t)
}

func TestDeleteForAllByNonAuthor(t *testing.T) {
	f := setupMessageRouter()

	f.messages.On("GetMessage", mock.Anything, 7).
		Return(models.Message{ID: 7, ConversationID: 5, AuthorID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/7/all", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteForMeSuccess(t *testing.T) {
	f := setupMessageRouter()

	f.messages.On("GetMessage", mock.Anything, 7).
		Return(models.Message{ID: 7, ConversationID: 5, AuthorID: 1}, nil).Once()
	f.convos.On("GetConversation", mock.Anything, 5).Return(testDirect(), nil).Once()
	f.messages.On("DeleteMessage", mock.Anything, 7).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/7/me", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	f.messages.AssertExpectations(t)
}

func TestSearchMessagesMissingQuery(t *testing.T) {
	f := setupMessageRouter()

	req := httptest.NewRequest(http.MethodGet, "/conversations/5/messages/search", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMessagesInvalidBefore(t *testing.T) {
	f := setupMessageRouter()

	req := httptest.NewRequest(http.MethodGet, "/conversations/5/messages?before=yesterday", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
