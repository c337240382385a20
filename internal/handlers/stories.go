package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/models"
	"messaging-service/internal/service"
)

// StoryHandler manages ephemeral story endpoints.
type StoryHandler struct {
	stories *service.StoryService
}

// NewStoryHandler builds a StoryHandler.
func NewStoryHandler(stories *service.StoryService) *StoryHandler {
	return &StoryHandler{stories: stories}
}

// ListStories returns active stories visible to the caller, newest first.
func (h *StoryHandler) ListStories(c *gin.Context) {
	stories, err := h.stories.List(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

// CreateStory publishes a story that expires after 24 hours.
func (h *StoryHandler) CreateStory(c *gin.Context) {
	var req struct {
		Text  string                `json:"text"`
		Media models.AttachmentList `json:"media"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	story, err := h.stories.Create(c.Request.Context(), c.GetInt("userID"), req.Text, req.Media)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, story)
}

// DeleteStory removes the caller's own story before it expires.
func (h *StoryHandler) DeleteStory(c *gin.Context) {
	storyID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story id"})
		return
	}

	if err := h.stories.Delete(c.Request.Context(), c.GetInt("userID"), storyID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
