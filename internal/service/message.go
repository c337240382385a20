package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf16"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

const (
	maxContentLength = 4000
	defaultPageSize  = 30
	maxPageSize      = 100
	defaultSearchCap = 20
	maxSearchCap     = 50
)

// Broadcaster pushes realtime events to the participants of a conversation.
// Implemented by the websocket hub; a nil Broadcaster disables fan-out.
type Broadcaster interface {
	BroadcastMessage(conversationID int, event string, msg models.Message)
	BroadcastDeletion(conversationID, messageID int, forEveryone bool, deletedBy *int)
}

// SendMessageInput carries the fields for a new message.
type SendMessageInput struct {
	Content         string
	Attachments     models.AttachmentList
	QuotedMessageID *int
}

// MessageService owns message rules: the content-or-attachment requirement,
// the block gate, delivery status transitions, reaction toggling and
// author-only deletion. REST handlers and the socket gateway both send
// through it, so a message is validated once no matter where it came from.
type MessageService struct {
	messages    repositories.MessageRepository
	convos      repositories.ConversationRepository
	blocks      *BlockRegistry
	broadcaster Broadcaster
}

// NewMessageService constructs a MessageService.
func NewMessageService(messages repositories.MessageRepository, convos repositories.ConversationRepository, blocks *BlockRegistry, broadcaster Broadcaster) *MessageService {
	return &MessageService{messages: messages, convos: convos, blocks: blocks, broadcaster: broadcaster}
}

// Send validates and persists a message, promotes it to delivered and fans it
// out to the conversation. The quoted snapshot is taken at send time; a quote
// id that does not resolve inside the conversation is dropped silently.
func (s *MessageService) Send(ctx context.Context, userID, conversationID int, in SendMessageInput) (models.Message, error) {
	convo, err := s.authorize(ctx, userID, conversationID)
	if err != nil {
		return models.Message{}, err
	}
	if err := s.blockGate(ctx, convo, userID); err != nil {
		return models.Message{}, err
	}

	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Attachments) == 0 {
		return models.Message{}, invalidf("message needs content or an attachment")
	}
	if len(content) > maxContentLength {
		return models.Message{}, invalidf("message content exceeds %d characters", maxContentLength)
	}

	msg := models.Message{
		ConversationID: conversationID,
		AuthorID:       userID,
		Content:        content,
		Attachments:    in.Attachments,
		Status:         models.StatusSent,
	}
	if in.QuotedMessageID != nil {
		if quoted, err := s.messages.GetMessage(ctx, *in.QuotedMessageID); err == nil && quoted.ConversationID == conversationID {
			msg.Quoted = &models.QuotedMessage{
				MessageID: quoted.ID,
				Content:   quoted.Content,
				AuthorID:  quoted.AuthorID,
				CreatedAt: quoted.CreatedAt,
			}
		} else if err != nil && !errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, err
		}
	}

	created, err := s.messages.CreateMessage(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}
	if err := s.messages.UpdateStatus(ctx, created.ID, models.StatusDelivered); err != nil {
		return models.Message{}, err
	}
	created.Status = models.StatusDelivered

	if err := s.convos.TouchUpdatedAt(ctx, conversationID); err != nil {
		log.Printf("touch conversation %d: %v", conversationID, err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(conversationID, models.EventMessageNew, created)
	}
	return created, nil
}

// List returns up to limit messages created before the cutoff, oldest first.
// A zero cutoff means now; limit is clamped to 100 and defaults to 30.
func (s *MessageService) List(ctx context.Context, userID, conversationID int, before time.Time, limit int) ([]models.Message, error) {
	convo, err := s.authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.blockGate(ctx, convo, userID); err != nil {
		return nil, err
	}
	if before.IsZero() {
		before = time.Now()
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	msgs, err := s.messages.ListBefore(ctx, conversationID, before, limit)
	if err != nil {
		return nil, err
	}
	// ListBefore pages newest first; callers render chronologically.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkRead records a read receipt, the author's included. The message reaches
// read only once every participant has a receipt, and never drops back.
func (s *MessageService) MarkRead(ctx context.Context, userID, messageID int) (models.Message, error) {
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	convo, err := s.authorize(ctx, userID, msg.ConversationID)
	if err != nil {
		return models.Message{}, err
	}

	if _, err := s.messages.InsertRead(ctx, messageID, userID); err != nil {
		return models.Message{}, err
	}
	if msg.Status != models.StatusRead {
		count, err := s.messages.CountReads(ctx, messageID)
		if err != nil {
			return models.Message{}, err
		}
		status := models.StatusDelivered
		if count >= len(convo.Participants) {
			status = models.StatusRead
		}
		if status != msg.Status {
			if err := s.messages.UpdateStatus(ctx, messageID, status); err != nil {
				return models.Message{}, err
			}
		}
	}
	return s.messages.GetMessage(ctx, messageID)
}

// ToggleReaction adds the user's reaction, or removes it when it is already
// present. An emoji is at most two UTF-16 code units, which covers every
// single code point including surrogate pairs.
func (s *MessageService) ToggleReaction(ctx context.Context, userID, messageID int, emoji string) (models.Message, error) {
	if !validEmoji(emoji) {
		return models.Message{}, invalidf("invalid reaction emoji")
	}
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if _, err := s.authorize(ctx, userID, msg.ConversationID); err != nil {
		return models.Message{}, err
	}

	has, err := s.messages.HasReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return models.Message{}, err
	}
	if has {
		err = s.messages.DeleteReaction(ctx, messageID, userID, emoji)
	} else {
		err = s.messages.InsertReaction(ctx, messageID, userID, emoji)
	}
	if err != nil {
		return models.Message{}, err
	}

	updated, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(updated.ConversationID, models.EventMessageReaction, updated)
	}
	return updated, nil
}

// Delete removes a message for good. Only the author may delete, and only
// while still a participant of the conversation; when the delete is not for
// everyone the author id rides along so clients can keep a local placeholder
// for the other side.
func (s *MessageService) Delete(ctx context.Context, userID, messageID int, forEveryone bool) error {
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.AuthorID != userID {
		return forbiddenf("only the author can delete a message")
	}
	if _, err := s.authorize(ctx, userID, msg.ConversationID); err != nil {
		return err
	}
	if err := s.messages.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	var deletedBy *int
	if !forEveryone {
		deletedBy = &userID
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastDeletion(msg.ConversationID, messageID, forEveryone, deletedBy)
	}
	return nil
}

// Search returns messages in the conversation whose content matches the
// query, newest first. Blank queries are rejected; limit is clamped to 50.
func (s *MessageService) Search(ctx context.Context, userID, conversationID int, query string, limit int) ([]models.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidf("search query is required")
	}
	if _, err := s.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSearchCap
	}
	if limit > maxSearchCap {
		limit = maxSearchCap
	}
	return s.messages.Search(ctx, conversationID, query, limit)
}

func (s *MessageService) getMessage(ctx context.Context, messageID int) (models.Message, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, notFoundf("message %d does not exist", messageID)
	}
	return msg, err
}

func (s *MessageService) authorize(ctx context.Context, userID, conversationID int) (models.Conversation, error) {
	convo, err := s.convos.GetConversation(ctx, conversationID)
	if errors.Is(err, repositories.ErrConversationNotFound) {
		return models.Conversation{}, notFoundf("conversation %d does not exist", conversationID)
	}
	if err != nil {
		return models.Conversation{}, err
	}
	if !convo.HasParticipant(userID) {
		return models.Conversation{}, forbiddenf("not a participant of conversation %d", conversationID)
	}
	return convo, nil
}

// blockGate refuses access when the requester is in a block relationship with
// any other participant, whichever side created the block.
func (s *MessageService) blockGate(ctx context.Context, convo models.Conversation, userID int) error {
	for _, p := range convo.Participants {
		if p.UserID == userID {
			continue
		}
		blocked, err := s.blocks.IsBlocked(ctx, userID, p.UserID)
		if err != nil {
			return err
		}
		if blocked {
			return forbiddenf("conversation unavailable")
		}
	}
	return nil
}

// validEmoji accepts at most one visible code point, measured as up to two
// UTF-16 code units so surrogate pairs pass.
func validEmoji(emoji string) bool {
	if emoji == "" {
		return false
	}
	return len(utf16.Encode([]rune(emoji))) <= 2
}
