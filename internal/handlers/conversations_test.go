package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/service"
)

type conversationFixture struct {
	convos   *mocks.ConversationRepositoryMock
	messages *mocks.MessageRepositoryMock
	users    *mocks.UserRepositoryMock
	blocks   *mocks.BlockRepositoryMock
	router   *gin.Engine
}

func setupConversationRouter() conversationFixture {
	gin.SetMode(gin.TestMode)
	f := conversationFixture{
		convos:   new(mocks.ConversationRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		users:    new(mocks.UserRepositoryMock),
		blocks:   new(mocks.BlockRepositoryMock),
	}
	svc := service.NewConversationService(f.convos, f.messages, f.users, service.NewBlockRegistry(f.blocks))
	handler := NewConversationHandler(svc, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/conversations", handler.ListConversations)
	r.POST("/conversations", handler.CreateConversation)
	r.GET("/conversations/:id", handler.GetConversation)
	r.POST("/conversations/:id/participants", handler.AddParticipants)
	r.DELETE("/conversations/:id/participants/:user_id", handler.RemoveParticipant)
	r.PUT("/conversations/:id/pin", handler.PinConversation)
	f.router = r
	return f
}

func testGroup() models.Conversation {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.Conversation{
		ID:   5,
		Type: models.ConversationGroup,
		Participants: []models.Participant{
			{UserID: 1, IsAdmin: true, JoinedAt: base},
			{UserID: 2, JoinedAt: base.Add(time.Minute)},
		},
	}
}

func TestCreateGroupConversation(t *testing.T) {
	f := setupConversationRouter()

	f.users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2}, nil).Once()
	f.blocks.On("Exists", mock.Anything, 1, 2).Return(false, nil).Once()
	f.convos.On("CreateGroup", mock.Anything, 1, "team", "", "", []int{1, 2}).
		Return(testGroup(), nil).Once()

	body := bytes.NewBufferString(`{"type":"GROUP","title":"team","participantIds":[2]}`)
	req := httptest.NewRequest(http.MethodPost, "/conversations", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	f.convos.AssertExpectations(t)
}

func TestCreateDirectBlockedReturnsForbidden(t *testing.T) {
	f := setupConversationRouter()

	f.users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2}, nil).Once()
	f.blocks.On("Exists", mock.Anything, 1, 2).Return(true, nil).Once()

	body := bytes.NewBufferString(`{"type":"DIRECT","participantIds":[2]}`)
	req := httptest.NewRequest(http.MethodPost, "/conversations", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateConversationUnknownType(t *testing.T) {
	f := setupConversationRouter()

	body := bytes.NewBufferString(`{"type":"CHANNEL","participantIds":[2]}`)
	req := httptest.NewRequest(http.MethodPost, "/conversations", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetConversationNotParticipant(t *testing.T) {
	f := setupConversationRouter()

	convo := testGroup()
	convo.Participants = []models.Participant{{UserID: 2}, {UserID: 3}}
	f.convos.On("GetConversation", mock.Anything, 5).Return(convo, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/5", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListConversations(t *testing.T) {
	f := setupConversationRouter()

	f.convos.On("ListForUser", mock.Anything, 1).Return([]models.Conversation{testGroup()}, nil).Once()
	f.blocks.On("BlockedIDsFor", mock.Anything, 1).Return([]int(nil), nil).Once()
	f.messages.On("LastMessage", mock.Anything, 5).Return(models.Message{ID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	f.convos.AssertExpectations(t)
}

func TestRemoveParticipantInvalidUserID(t *testing.T) {
	f := setupConversationRouter()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/5/participants/abc", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPinConversation(t *testing.T) {
	f := setupConversationRouter()

	f.convos.On("GetConversation", mock.Anything, 5).Return(testGroup(), nil)
	f.convos.On("SetPinned", mock.Anything, 5, true, mock.Anything).Return(nil).Once()

	body := bytes.NewBufferString(`{"pinned":true}`)
	req := httptest.NewRequest(http.MethodPut, "/conversations/5/pin", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	f.convos.AssertExpectations(t)
}
