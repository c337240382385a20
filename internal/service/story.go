package service

import (
	"context"
	"errors"
	"strings"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

const maxStoryTextLength = 500

// StoryService owns ephemeral stories. A story lives 24 hours; expiry is
// enforced both on read and by a periodic sweep.
type StoryService struct {
	stories repositories.StoryRepository
	blocks  *BlockRegistry
}

// NewStoryService constructs a StoryService.
func NewStoryService(stories repositories.StoryRepository, blocks *BlockRegistry) *StoryService {
	return &StoryService{stories: stories, blocks: blocks}
}

// Create publishes a story expiring 24 hours from now.
func (s *StoryService) Create(ctx context.Context, authorID int, text string, media models.AttachmentList) (models.Story, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(media) == 0 {
		return models.Story{}, invalidf("story needs text or media")
	}
	if len(text) > maxStoryTextLength {
		return models.Story{}, invalidf("story text exceeds %d characters", maxStoryTextLength)
	}
	return s.stories.CreateStory(ctx, authorID, text, media)
}

// List returns active stories visible to the user. Stories from users in a
// block relationship with the viewer are hidden in both directions.
func (s *StoryService) List(ctx context.Context, userID int) ([]models.Story, error) {
	blockedIDs, err := s.blocks.BlockedIDsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.stories.ListActive(ctx, blockedIDs)
}

// Delete removes the user's own story.
func (s *StoryService) Delete(ctx context.Context, userID, storyID int) error {
	err := s.stories.DeleteByAuthor(ctx, storyID, userID)
	if errors.Is(err, repositories.ErrStoryNotFound) {
		return notFoundf("story %d does not exist", storyID)
	}
	return err
}

// SweepExpired purges stories past their TTL and reports how many went.
func (s *StoryService) SweepExpired(ctx context.Context) (int64, error) {
	return s.stories.DeleteExpired(ctx)
}
