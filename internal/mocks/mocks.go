package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, email, username, passwordHash, avatarURL string) (models.User, error) {
	args := m.Called(ctx, email, username, passwordHash, avatarURL)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, id int) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByLogin(ctx context.Context, login string) (models.User, error) {
	args := m.Called(ctx, login)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListOthers(ctx context.Context, userID int) ([]models.User, error) {
	args := m.Called(ctx, userID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SearchByUsername(ctx context.Context, query string, limit int) ([]models.User, error) {
	args := m.Called(ctx, query, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) UpdateAvatar(ctx context.Context, userID int, avatarURL string) (models.User, error) {
	args := m.Called(ctx, userID, avatarURL)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type BlockRepositoryMock struct {
	mock.Mock
}

func (m *BlockRepositoryMock) InsertBlock(ctx context.Context, blockerID, blockedID int) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *BlockRepositoryMock) DeleteBlock(ctx context.Context, blockerID, blockedID int) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *BlockRepositoryMock) Exists(ctx context.Context, a, b int) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *BlockRepositoryMock) BlockedIDsFor(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) CreateOrGetDirect(ctx context.Context, userID, otherID int) (models.Conversation, error) {
	args := m.Called(ctx, userID, otherID)
	var convo models.Conversation
	if val := args.Get(0); val != nil {
		convo = val.(models.Conversation)
	}
	return convo, args.Error(1)
}

func (m *ConversationRepositoryMock) CreateGroup(ctx context.Context, creatorID int, title, description, avatarURL string, participantIDs []int) (models.Conversation, error) {
	args := m.Called(ctx, creatorID, title, description, avatarURL, participantIDs)
	var convo models.Conversation
	if val := args.Get(0); val != nil {
		convo = val.(models.Conversation)
	}
	return convo, args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, id int) (models.Conversation, error) {
	args := m.Called(ctx, id)
	var convo models.Conversation
	if val := args.Get(0); val != nil {
		convo = val.(models.Conversation)
	}
	return convo, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var convos []models.Conversation
	if val := args.Get(0); val != nil {
		convos = val.([]models.Conversation)
	}
	return convos, args.Error(1)
}

func (m *ConversationRepositoryMock) AddParticipants(ctx context.Context, conversationID int, userIDs []int) error {
	args := m.Called(ctx, conversationID, userIDs)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) RemoveParticipant(ctx context.Context, conversationID, userID int) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) PromoteAdmin(ctx context.Context, conversationID, userID int) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetPinned(ctx context.Context, conversationID int, pinned bool, pinnedBy *int) error {
	args := m.Called(ctx, conversationID, pinned, pinnedBy)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetArchived(ctx context.Context, conversationID int, archived bool) error {
	args := m.Called(ctx, conversationID, archived)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) TouchUpdatedAt(ctx context.Context, conversationID int) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, id int) (models.Message, error) {
	args := m.Called(ctx, id)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListBefore(ctx context.Context, conversationID int, before time.Time, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, before, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) LastMessage(ctx context.Context, conversationID int) (models.Message, error) {
	args := m.Called(ctx, conversationID)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateStatus(ctx context.Context, messageID int, status string) error {
	args := m.Called(ctx, messageID, status)
	return args.Error(0)
}

func (m *MessageRepositoryMock) InsertRead(ctx context.Context, messageID, userID int) (bool, error) {
	args := m.Called(ctx, messageID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) CountReads(ctx context.Context, messageID int) (int, error) {
	args := m.Called(ctx, messageID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) HasReaction(ctx context.Context, messageID, userID int, emoji string) (bool, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) InsertReaction(ctx context.Context, messageID, userID int, emoji string) error {
	args := m.Called(ctx, messageID, userID, emoji)
	return args.Error(0)
}

func (m *MessageRepositoryMock) DeleteReaction(ctx context.Context, messageID, userID int, emoji string) error {
	args := m.Called(ctx, messageID, userID, emoji)
	return args.Error(0)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) Search(ctx context.Context, conversationID int, query string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, query, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type StoryRepositoryMock struct {
	mock.Mock
}

func (m *StoryRepositoryMock) CreateStory(ctx context.Context, authorID int, text string, media models.AttachmentList) (models.Story, error) {
	args := m.Called(ctx, authorID, text, media)
	var story models.Story
	if val := args.Get(0); val != nil {
		story = val.(models.Story)
	}
	return story, args.Error(1)
}

func (m *StoryRepositoryMock) ListActive(ctx context.Context, excludedAuthorIDs []int) ([]models.Story, error) {
	args := m.Called(ctx, excludedAuthorIDs)
	var stories []models.Story
	if val := args.Get(0); val != nil {
		stories = val.([]models.Story)
	}
	return stories, args.Error(1)
}

func (m *StoryRepositoryMock) DeleteByAuthor(ctx context.Context, storyID, authorID int) error {
	args := m.Called(ctx, storyID, authorID)
	return args.Error(0)
}

func (m *StoryRepositoryMock) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) BroadcastMessage(conversationID int, event string, msg models.Message) {
	m.Called(conversationID, event, msg)
}

func (m *BroadcasterMock) BroadcastDeletion(conversationID, messageID int, forEveryone bool, deletedBy *int) {
	m.Called(conversationID, messageID, forEveryone, deletedBy)
}
