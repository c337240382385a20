package service

import (
	"context"
	"errors"
	"strings"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// CreateConversationInput carries the fields for opening a conversation.
// DIRECT creation ignores title, description and avatar.
type CreateConversationInput struct {
	Type           string
	Title          string
	Description    string
	AvatarURL      string
	ParticipantIDs []int
}

// ConversationService owns conversation lifecycle rules: DIRECT idempotency,
// the block gate, membership checks and the group admin floor. Both the REST
// handlers and the socket gateway go through it.
type ConversationService struct {
	convos   repositories.ConversationRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	blocks   *BlockRegistry
}

// NewConversationService constructs a ConversationService.
func NewConversationService(convos repositories.ConversationRepository, messages repositories.MessageRepository, users repositories.UserRepository, blocks *BlockRegistry) *ConversationService {
	return &ConversationService{convos: convos, messages: messages, users: users, blocks: blocks}
}

// Create opens a conversation for creatorID. DIRECT returns the existing
// conversation for the pair when one exists. GROUP always creates a new one
// with the creator as sole admin.
func (s *ConversationService) Create(ctx context.Context, creatorID int, in CreateConversationInput) (models.Conversation, error) {
	switch in.Type {
	case models.ConversationDirect:
		return s.createDirect(ctx, creatorID, in.ParticipantIDs)
	case models.ConversationGroup:
		return s.createGroup(ctx, creatorID, in)
	default:
		return models.Conversation{}, invalidf("unknown conversation type %q", in.Type)
	}
}

func (s *ConversationService) createDirect(ctx context.Context, creatorID int, participantIDs []int) (models.Conversation, error) {
	others := dedupe(participantIDs, creatorID)
	if len(others) != 1 {
		return models.Conversation{}, invalidf("a direct conversation needs exactly one other participant")
	}
	otherID := others[0]

	if _, err := s.users.GetUser(ctx, otherID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.Conversation{}, notFoundf("user %d does not exist", otherID)
		}
		return models.Conversation{}, err
	}
	blocked, err := s.blocks.IsBlocked(ctx, creatorID, otherID)
	if err != nil {
		return models.Conversation{}, err
	}
	if blocked {
		return models.Conversation{}, forbiddenf("conversation unavailable")
	}
	return s.convos.CreateOrGetDirect(ctx, creatorID, otherID)
}

func (s *ConversationService) createGroup(ctx context.Context, creatorID int, in CreateConversationInput) (models.Conversation, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Conversation{}, invalidf("group title is required")
	}
	others := dedupe(in.ParticipantIDs, creatorID)
	if len(others) == 0 {
		return models.Conversation{}, invalidf("a group needs at least one other participant")
	}
	for _, id := range others {
		if _, err := s.users.GetUser(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return models.Conversation{}, notFoundf("user %d does not exist", id)
			}
			return models.Conversation{}, err
		}
		blocked, err := s.blocks.IsBlocked(ctx, creatorID, id)
		if err != nil {
			return models.Conversation{}, err
		}
		if blocked {
			return models.Conversation{}, forbiddenf("cannot add user %d", id)
		}
	}
	all := append([]int{creatorID}, others...)
	return s.convos.CreateGroup(ctx, creatorID, title, in.Description, in.AvatarURL, all)
}

// Get returns a conversation the user participates in.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID int) (models.Conversation, error) {
	return s.authorize(ctx, userID, conversationID)
}

// List returns the user's inbox, most recently updated first, each
// conversation annotated with its latest message. Conversations containing a
// blocked user are hidden rather than errored.
func (s *ConversationService) List(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	convos, err := s.convos.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	blockedIDs, err := s.blocks.BlockedIDsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	blocked := make(map[int]bool, len(blockedIDs))
	for _, id := range blockedIDs {
		blocked[id] = true
	}

	summaries := make([]models.ConversationSummary, 0, len(convos))
	for _, convo := range convos {
		if hasBlockedParticipant(convo, userID, blocked) {
			continue
		}
		summary := models.ConversationSummary{Conversation: convo}
		last, err := s.messages.LastMessage(ctx, convo.ID)
		if err == nil {
			summary.LastMessage = &last
		} else if !errors.Is(err, repositories.ErrMessageNotFound) {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// AddParticipants lets a group admin add members. Already-present ids are
// ignored.
func (s *ConversationService) AddParticipants(ctx context.Context, actorID, conversationID int, userIDs []int) (models.Conversation, error) {
	convo, err := s.authorize(ctx, actorID, conversationID)
	if err != nil {
		return models.Conversation{}, err
	}
	if convo.Type != models.ConversationGroup {
		return models.Conversation{}, invalidf("participants can only be added to groups")
	}
	if !convo.IsAdmin(actorID) {
		return models.Conversation{}, forbiddenf("only admins can add participants")
	}

	added := dedupe(userIDs, actorID)
	if len(added) == 0 {
		return models.Conversation{}, invalidf("no participants given")
	}
	for _, id := range added {
		if _, err := s.users.GetUser(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return models.Conversation{}, notFoundf("user %d does not exist", id)
			}
			return models.Conversation{}, err
		}
		blocked, err := s.blocks.IsBlocked(ctx, actorID, id)
		if err != nil {
			return models.Conversation{}, err
		}
		if blocked {
			return models.Conversation{}, forbiddenf("cannot add user %d", id)
		}
	}
	if err := s.convos.AddParticipants(ctx, conversationID, added); err != nil {
		return models.Conversation{}, err
	}
	return s.convos.GetConversation(ctx, conversationID)
}

// RemoveParticipant removes targetID from a group. Members may remove
// themselves; removing anyone else requires admin. A group never ends up with
// members but no admin: when the sole admin leaves, the longest-standing
// remaining member is promoted first.
func (s *ConversationService) RemoveParticipant(ctx context.Context, actorID, conversationID, targetID int) (models.Conversation, error) {
	convo, err := s.authorize(ctx, actorID, conversationID)
	if err != nil {
		return models.Conversation{}, err
	}
	if convo.Type != models.ConversationGroup {
		return models.Conversation{}, invalidf("participants can only be removed from groups")
	}
	if !convo.HasParticipant(targetID) {
		return models.Conversation{}, notFoundf("user %d is not a participant", targetID)
	}
	if targetID != actorID && !convo.IsAdmin(actorID) {
		return models.Conversation{}, forbiddenf("only admins can remove other participants")
	}

	admins := convo.AdminIDs()
	if convo.IsAdmin(targetID) && len(admins) == 1 {
		if targetID != actorID {
			return models.Conversation{}, forbiddenf("cannot remove the only admin")
		}
		// Sole admin leaving: hand the group to its oldest remaining member.
		// Participants are ordered by join time.
		for _, p := range convo.Participants {
			if p.UserID == targetID {
				continue
			}
			if err := s.convos.PromoteAdmin(ctx, conversationID, p.UserID); err != nil {
				return models.Conversation{}, err
			}
			break
		}
	}

	if err := s.convos.RemoveParticipant(ctx, conversationID, targetID); err != nil {
		return models.Conversation{}, err
	}
	return s.convos.GetConversation(ctx, conversationID)
}

// PromoteAdmin grants admin rights on an existing group member.
func (s *ConversationService) PromoteAdmin(ctx context.Context, actorID, conversationID, targetID int) (models.Conversation, error) {
	convo, err := s.authorize(ctx, actorID, conversationID)
	if err != nil {
		return models.Conversation{}, err
	}
	if convo.Type != models.ConversationGroup {
		return models.Conversation{}, invalidf("admins only exist in groups")
	}
	if !convo.IsAdmin(actorID) {
		return models.Conversation{}, forbiddenf("only admins can promote")
	}
	if !convo.HasParticipant(targetID) {
		return models.Conversation{}, notFoundf("user %d is not a participant", targetID)
	}
	if err := s.convos.PromoteAdmin(ctx, conversationID, targetID); err != nil {
		return models.Conversation{}, err
	}
	return s.convos.GetConversation(ctx, conversationID)
}

// Pin toggles the pin flag; unpinning clears who pinned.
func (s *ConversationService) Pin(ctx context.Context, userID, conversationID int, pinned bool) (models.Conversation, error) {
	if _, err := s.authorize(ctx, userID, conversationID); err != nil {
		return models.Conversation{}, err
	}
	var pinnedBy *int
	if pinned {
		pinnedBy = &userID
	}
	if err := s.convos.SetPinned(ctx, conversationID, pinned, pinnedBy); err != nil {
		return models.Conversation{}, err
	}
	return s.convos.GetConversation(ctx, conversationID)
}

// Archive toggles the archive flag.
func (s *ConversationService) Archive(ctx context.Context, userID, conversationID int, archived bool) (models.Conversation, error) {
	if _, err := s.authorize(ctx, userID, conversationID); err != nil {
		return models.Conversation{}, err
	}
	if err := s.convos.SetArchived(ctx, conversationID, archived); err != nil {
		return models.Conversation{}, err
	}
	return s.convos.GetConversation(ctx, conversationID)
}

// authorize loads the conversation and checks membership.
func (s *ConversationService) authorize(ctx context.Context, userID, conversationID int) (models.Conversation, error) {
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

// hasBlockedParticipant reports whether any participant besides the user is
// in the blocked set.
func hasBlockedParticipant(convo models.Conversation, userID int, blocked map[int]bool) bool {
	for _, p := range convo.Participants {
		if p.UserID != userID && blocked[p.UserID] {
			return true
		}
	}
	return false
}

// dedupe returns the distinct ids excluding self, preserving order.
func dedupe(ids []int, self int) []int {
	seen := map[int]bool{self: true}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
