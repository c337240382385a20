package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/models"
	"messaging-service/internal/service"
)

// MessageHandler manages message endpoints.
type MessageHandler struct {
	messages *service.MessageService
	convos   *service.ConversationService
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages *service.MessageService, convos *service.ConversationService) *MessageHandler {
	return &MessageHandler{messages: messages, convos: convos}
}

// ListMessages returns a page of messages, oldest first. The before query
// parameter (RFC 3339) pages backwards through history.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	var before time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before timestamp"})
			return
		}
		before = parsed
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	msgs, err := h.messages.List(c.Request.Context(), c.GetInt("userID"), conversationID, before, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a message in a conversation and broadcasts it.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Content         string                `json:"content"`
		Attachments     models.AttachmentList `json:"attachments"`
		QuotedMessageID *int                  `json:"quotedMessageId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), c.GetInt("userID"), conversationID, service.SendMessageInput{
		Content:         req.Content,
		Attachments:     req.Attachments,
		QuotedMessageID: req.QuotedMessageID,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// SendDirect delivers a message straight to a recipient, resolving the DIRECT
// conversation first and creating it when absent.
func (h *MessageHandler) SendDirect(c *gin.Context) {
	var req struct {
		RecipientID     int                   `json:"recipientId" binding:"required"`
		Content         string                `json:"content"`
		Attachments     models.AttachmentList `json:"attachments"`
		QuotedMessageID *int                  `json:"quotedMessageId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	convo, err := h.convos.Create(c.Request.Context(), userID, service.CreateConversationInput{
		Type:           models.ConversationDirect,
		ParticipantIDs: []int{req.RecipientID},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), userID, convo.ID, service.SendMessageInput{
		Content:         req.Content,
		Attachments:     req.Attachments,
		QuotedMessageID: req.QuotedMessageID,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkRead records the caller's read receipt and returns the updated message.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	messageID, ok := messageIDParam(c)
	if !ok {
		return
	}
	msg, err := h.messages.MarkRead(c.Request.Context(), c.GetInt("userID"), messageID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// ToggleReaction adds or removes the caller's reaction.
func (h *MessageHandler) ToggleReaction(c *gin.Context) {
	messageID, ok := messageIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.ToggleReaction(c.Request.Context(), c.GetInt("userID"), messageID, req.Emoji)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// DeleteMessageForMe deletes the caller's own message without flagging the
// removal for the whole room.
func (h *MessageHandler) DeleteMessageForMe(c *gin.Context) {
	h.deleteMessage(c, false)
}

// DeleteMessageForAll deletes the caller's own message for everyone.
func (h *MessageHandler) DeleteMessageForAll(c *gin.Context) {
	h.deleteMessage(c, true)
}

func (h *MessageHandler) deleteMessage(c *gin.Context, forEveryone bool) {
	messageID, ok := messageIDParam(c)
	if !ok {
		return
	}
	if err := h.messages.Delete(c.Request.Context(), c.GetInt("userID"), messageID, forEveryone); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchMessages returns messages in the conversation matching the query.
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	msgs, err := h.messages.Search(c.Request.Context(), c.GetInt("userID"), conversationID, c.Query("q"), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func messageIDParam(c *gin.Context) (int, bool) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return 0, false
	}
	return messageID, true
}
