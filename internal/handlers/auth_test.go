package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/auth"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/auth/me", func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	}, handler.Me)
	return r
}

func testTokens() *auth.TokenService {
	return auth.NewTokenService("test-secret", time.Hour, 30*24*time.Hour)
}

func TestRegisterSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	users.On("CreateUser", mock.Anything, "a@b.c", "alice", mock.Anything, "").
		Return(models.User{ID: 1, Email: "a@b.c", Username: "alice"}, nil).Once()

	body := bytes.NewBufferString(`{"email":"a@b.c","username":"alice","password":"hunter22!"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["token"])
	users.AssertExpectations(t)
}

func TestRegisterShortPassword(t *testing.T) {
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), testTokens(), nil)
	router := setupAuthRouter(handler)

	body := bytes.NewBufferString(`{"email":"a@b.c","username":"alice","password":"short"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	users.On("CreateUser", mock.Anything, "a@b.c", "alice", mock.Anything, "").
		Return(models.User{}, repositories.ErrDuplicateUser).Once()

	body := bytes.NewBufferString(`{"email":"a@b.c","username":"alice","password":"hunter22!"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	users.AssertExpectations(t)
}

func TestLoginSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("hunter22!")
	require.NoError(t, err)
	users.On("GetByLogin", mock.Anything, "alice").
		Return(models.User{ID: 1, Username: "alice", PasswordHash: hash}, nil).Once()

	body := bytes.NewBufferString(`{"login":"alice","password":"hunter22!","rememberMe":true}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("hunter22!")
	require.NoError(t, err)
	users.On("GetByLogin", mock.Anything, "alice").
		Return(models.User{ID: 1, Username: "alice", PasswordHash: hash}, nil).Once()

	body := bytes.NewBufferString(`{"login":"alice","password":"wrong-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	users.On("GetByLogin", mock.Anything, "ghost").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"login":"ghost","password":"whatever1"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeReturnsAccount(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}
