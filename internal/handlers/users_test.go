package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/service"
)

func setupUserRouter(users *mocks.UserRepositoryMock, blocks *mocks.BlockRepositoryMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewUserHandler(users, service.NewBlockRegistry(blocks))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/users", handler.ListUsers)
	r.GET("/users/:id", handler.GetProfile)
	r.POST("/users/:id/block", handler.BlockUser)
	r.DELETE("/users/:id/block", handler.UnblockUser)
	return r
}

func TestListUsersFlagsBlocked(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	blocks := new(mocks.BlockRepositoryMock)
	router := setupUserRouter(users, blocks)

	users.On("ListOthers", mock.Anything, 1).
		Return([]models.User{{ID: 2, Username: "bob"}, {ID: 3, Username: "carol"}}, nil).Once()
	blocks.On("BlockedIDsFor", mock.Anything, 1).Return([]int{3}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Users []struct {
			ID      int  `json:"id"`
			Blocked bool `json:"blocked"`
		} `json:"users"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Users, 2)
	assert.False(t, resp.Users[0].Blocked)
	assert.True(t, resp.Users[1].Blocked)
}

func TestListUsersSearchesWithQuery(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	router := setupUserRouter(users, new(mocks.BlockRepositoryMock))

	users.On("SearchByUsername", mock.Anything, "bo", 20).
		Return([]models.User{{ID: 2, Username: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users?q=bo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestBlockSelfRejected(t *testing.T) {
	router := setupUserRouter(new(mocks.UserRepositoryMock), new(mocks.BlockRepositoryMock))

	req := httptest.NewRequest(http.MethodPost, "/users/1/block", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockAndUnblock(t *testing.T) {
	blocks := new(mocks.BlockRepositoryMock)
	router := setupUserRouter(new(mocks.UserRepositoryMock), blocks)

	blocks.On("InsertBlock", mock.Anything, 1, 2).Return(nil).Once()
	blocks.On("DeleteBlock", mock.Anything, 1, 2).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/users/2/block", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/users/2/block", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	blocks.AssertExpectations(t)
}
