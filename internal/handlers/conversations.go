package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/service"
	"messaging-service/internal/telemetry"
)

// ConversationHandler manages conversation endpoints.
type ConversationHandler struct {
	convos *service.ConversationService
	audit  *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(convos *service.ConversationService, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{convos: convos, audit: audit}
}

// ListConversations returns the caller's inbox, newest activity first.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	summaries, err := h.convos.List(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// CreateConversation opens a DIRECT or GROUP conversation. DIRECT returns the
// existing conversation for the pair when one already exists.
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req struct {
		Type           string `json:"type" binding:"required"`
		Title          string `json:"title"`
		Description    string `json:"description"`
		AvatarURL      string `json:"avatarUrl"`
		ParticipantIDs []int  `json:"participantIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	convo, err := h.convos.Create(c.Request.Context(), userID, service.CreateConversationInput{
		Type:           req.Type,
		Title:          req.Title,
		Description:    req.Description,
		AvatarURL:      req.AvatarURL,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "conversation created", requestIDFromContext(c), &userID)
	c.JSON(http.StatusCreated, gin.H{"conversation": convo})
}

// GetConversation returns one conversation the caller participates in.
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	convo, err := h.convos.Get(c.Request.Context(), c.GetInt("userID"), conversationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": convo})
}

// AddParticipants adds members to a group.
func (h *ConversationHandler) AddParticipants(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	var req struct {
		UserIDs []int `json:"userIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	convo, err := h.convos.AddParticipants(c.Request.Context(), c.GetInt("userID"), conversationID, req.UserIDs)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": convo})
}

// RemoveParticipant removes a member, or lets a member leave.
func (h *ConversationHandler) RemoveParticipant(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	convo, err := h.convos.RemoveParticipant(c.Request.Context(), c.GetInt("userID"), conversationID, targetID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": convo})
}

// PromoteAdmin grants admin rights to a group member.
func (h *ConversationHandler) PromoteAdmin(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	var req struct {
		UserID int `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	convo, err := h.convos.PromoteAdmin(c.Request.Context(), c.GetInt("userID"), conversationID, req.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": convo})
}

// PinConversation sets or clears the pin flag.
func (h *ConversationHandler) PinConversation(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Pinned *bool `json:"pinned" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	convo, err := h.convos.Pin(c.Request.Context(), c.GetInt("userID"), conversationID, *req.Pinned)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": convo})
}

// ArchiveConversation sets or clears the archive flag.
func (h *ConversationHandler) ArchiveConversation(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Archived *bool `json:"archived" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	convo, err := h.convos.Archive(c.Request.Context(), c.GetInt("userID"), conversationID, *req.Archived)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": convo})
}

func conversationIDParam(c *gin.Context) (int, bool) {
	conversationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return 0, false
	}
	return conversationID, true
}
