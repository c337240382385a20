package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
	"messaging-service/internal/service"
)

const searchLimit = 20

// UserHandler manages user directory and block endpoints.
type UserHandler struct {
	users  repositories.UserRepository
	blocks *service.BlockRegistry
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users repositories.UserRepository, blocks *service.BlockRegistry) *UserHandler {
	return &UserHandler{users: users, blocks: blocks}
}

// ListUsers returns every other account, flagged when a block relationship
// exists with the caller. With a q parameter it searches by username instead.
func (h *UserHandler) ListUsers(c *gin.Context) {
	if query := c.Query("q"); query != "" {
		h.searchUsers(c, query)
		return
	}

	userID := c.GetInt("userID")

	users, err := h.users.ListOthers(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	blockedIDs, err := h.blocks.BlockedIDsFor(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	blocked := make(map[int]bool, len(blockedIDs))
	for _, id := range blockedIDs {
		blocked[id] = true
	}

	type userResponse struct {
		models.User
		Blocked bool `json:"blocked"`
	}
	responses := make([]userResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, userResponse{User: u, Blocked: blocked[u.ID]})
	}
	c.JSON(http.StatusOK, gin.H{"users": responses})
}

// searchUsers returns accounts whose username matches the query.
func (h *UserHandler) searchUsers(c *gin.Context, query string) {
	users, err := h.users.SearchByUsername(c.Request.Context(), query, searchLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetProfile returns another account's public profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), targetID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// BlockUser records a block against the target user.
func (h *UserHandler) BlockUser(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.blocks.Block(c.Request.Context(), c.GetInt("userID"), targetID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UnblockUser removes the caller's block on the target user.
func (h *UserHandler) UnblockUser(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.blocks.Unblock(c.Request.Context(), c.GetInt("userID"), targetID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
