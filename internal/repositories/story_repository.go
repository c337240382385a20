package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var ErrStoryNotFound = errors.New("story not found")

// StoryRepository abstracts ephemeral story persistence.
type StoryRepository interface {
	CreateStory(ctx context.Context, authorID int, text string, media models.AttachmentList) (models.Story, error)
	ListActive(ctx context.Context, excludedAuthorIDs []int) ([]models.Story, error)
	DeleteByAuthor(ctx context.Context, storyID, authorID int) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// StoryRepo is a sqlx implementation of StoryRepository.
type StoryRepo struct {
	db *sqlx.DB
}

// NewStoryRepo constructs a StoryRepo.
func NewStoryRepo(db *sqlx.DB) *StoryRepo {
	return &StoryRepo{db: db}
}

// CreateStory persists a story expiring 24 hours from now.
func (r *StoryRepo) CreateStory(ctx context.Context, authorID int, text string, media models.AttachmentList) (models.Story, error) {
	var story models.Story
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO stories (author_id, text, media, expires_at) VALUES ($1, $2, $3, NOW() + INTERVAL '24 hours')
         RETURNING id, author_id, text, media, expires_at, created_at`,
		authorID, text, media).
		Scan(&story.ID, &story.AuthorID, &story.Text, &story.Media, &story.ExpiresAt, &story.CreatedAt)
	return story, err
}

// ListActive returns unexpired stories, newest first, skipping excluded
// authors.
func (r *StoryRepo) ListActive(ctx context.Context, excludedAuthorIDs []int) ([]models.Story, error) {
	if excludedAuthorIDs == nil {
		excludedAuthorIDs = []int{}
	}
	var stories []models.Story
	err := r.db.SelectContext(ctx, &stories,
		`SELECT s.id, s.author_id, u.username AS author_username, s.text, s.media, s.expires_at, s.created_at
         FROM stories s INNER JOIN users u ON u.id = s.author_id
         WHERE s.expires_at > NOW() AND NOT (s.author_id = ANY($1))
         ORDER BY s.created_at DESC`, pq.Array(excludedAuthorIDs))
	return stories, err
}

// DeleteByAuthor removes a story owned by the author.
func (r *StoryRepo) DeleteByAuthor(ctx context.Context, storyID, authorID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM stories WHERE id=$1 AND author_id=$2`, storyID, authorID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrStoryNotFound
	}
	return nil
}

// DeleteExpired removes stories past their TTL and reports how many.
func (r *StoryRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
