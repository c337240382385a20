package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

const conversationColumns = `id, type, title, description, avatar_url, created_by, is_archived, is_pinned, pinned_by, created_at, updated_at`

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	CreateOrGetDirect(ctx context.Context, userID, otherID int) (models.Conversation, error)
	CreateGroup(ctx context.Context, creatorID int, title, description, avatarURL string, participantIDs []int) (models.Conversation, error)
	GetConversation(ctx context.Context, id int) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int) ([]models.Conversation, error)
	AddParticipants(ctx context.Context, conversationID int, userIDs []int) error
	RemoveParticipant(ctx context.Context, conversationID, userID int) error
	PromoteAdmin(ctx context.Context, conversationID, userID int) error
	SetPinned(ctx context.Context, conversationID int, pinned bool, pinnedBy *int) error
	SetArchived(ctx context.Context, conversationID int, archived bool) error
	TouchUpdatedAt(ctx context.Context, conversationID int) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// directKey builds the unique key for a DIRECT pair, order-independent.
func directKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// CreateOrGetDirect returns the DIRECT conversation for the pair, creating it
// when absent. The unique direct_key makes creation idempotent.
func (r *ConversationRepo) CreateOrGetDirect(ctx context.Context, userID, otherID int) (models.Conversation, error) {
	key := directKey(userID, otherID)

	var convo models.Conversation
	err := r.db.GetContext(ctx, &convo,
		`SELECT `+conversationColumns+` FROM conversations WHERE direct_key=$1`, key)
	if err == nil {
		return r.withParticipants(ctx, convo)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (type, created_by, direct_key) VALUES ($1, $2, $3) RETURNING `+conversationColumns,
		models.ConversationDirect, userID, key).StructScan(&convo); err != nil {
		return models.Conversation{}, err
	}
	for _, id := range []int{userID, otherID} {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)`,
			convo.ID, id); err != nil {
			return models.Conversation{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return r.withParticipants(ctx, convo)
}

// CreateGroup creates a GROUP conversation with the creator as sole admin.
// participantIDs must already include the creator.
func (r *ConversationRepo) CreateGroup(ctx context.Context, creatorID int, title, description, avatarURL string, participantIDs []int) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var convo models.Conversation
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (type, title, description, avatar_url, created_by) VALUES ($1, $2, $3, $4, $5) RETURNING `+conversationColumns,
		models.ConversationGroup, title, description, avatarURL, creatorID).StructScan(&convo); err != nil {
		return models.Conversation{}, err
	}
	for _, id := range participantIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id, is_admin) VALUES ($1, $2, $3)`,
			convo.ID, id, id == creatorID); err != nil {
			return models.Conversation{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return r.withParticipants(ctx, convo)
}

// GetConversation fetches a conversation with its participants.
func (r *ConversationRepo) GetConversation(ctx context.Context, id int) (models.Conversation, error) {
	var convo models.Conversation
	err := r.db.GetContext(ctx, &convo,
		`SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return models.Conversation{}, err
	}
	return r.withParticipants(ctx, convo)
}

// ListForUser returns the conversations that include the user, most recently
// updated first, with participants attached.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	var convos []models.Conversation
	err := r.db.SelectContext(ctx, &convos,
		`SELECT c.id, c.type, c.title, c.description, c.avatar_url, c.created_by, c.is_archived, c.is_pinned, c.pinned_by, c.created_at, c.updated_at
         FROM conversations c
         INNER JOIN conversation_participants cp ON cp.conversation_id = c.id
         WHERE cp.user_id=$1
         ORDER BY c.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	if err := r.attachParticipants(ctx, convos); err != nil {
		return nil, err
	}
	return convos, nil
}

// AddParticipants appends members, ignoring ids that are already present.
func (r *ConversationRepo) AddParticipants(ctx context.Context, conversationID int, userIDs []int) error {
	for _, id := range userIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			conversationID, id); err != nil {
			return err
		}
	}
	return nil
}

// RemoveParticipant drops a member; the admin flag goes with the row.
func (r *ConversationRepo) RemoveParticipant(ctx context.Context, conversationID, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM conversation_participants WHERE conversation_id=$1 AND user_id=$2`,
		conversationID, userID)
	return err
}

// PromoteAdmin grants admin on an existing member.
func (r *ConversationRepo) PromoteAdmin(ctx context.Context, conversationID, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversation_participants SET is_admin=TRUE WHERE conversation_id=$1 AND user_id=$2`,
		conversationID, userID)
	return err
}

// SetPinned updates the pin flag and who pinned, and advances updated_at so
// pinned conversations surface in the inbox ordering.
func (r *ConversationRepo) SetPinned(ctx context.Context, conversationID int, pinned bool, pinnedBy *int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET is_pinned=$2, pinned_by=$3, updated_at=NOW() WHERE id=$1`,
		conversationID, pinned, pinnedBy)
	return err
}

// SetArchived updates the archive flag.
func (r *ConversationRepo) SetArchived(ctx context.Context, conversationID int, archived bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET is_archived=$2 WHERE id=$1`, conversationID, archived)
	return err
}

// TouchUpdatedAt advances updated_at, used when a message lands in the
// conversation.
func (r *ConversationRepo) TouchUpdatedAt(ctx context.Context, conversationID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at=NOW() WHERE id=$1`, conversationID)
	return err
}

func (r *ConversationRepo) withParticipants(ctx context.Context, convo models.Conversation) (models.Conversation, error) {
	convos := []models.Conversation{convo}
	if err := r.attachParticipants(ctx, convos); err != nil {
		return models.Conversation{}, err
	}
	return convos[0], nil
}

func (r *ConversationRepo) attachParticipants(ctx context.Context, convos []models.Conversation) error {
	if len(convos) == 0 {
		return nil
	}
	ids := make([]int, 0, len(convos))
	for _, c := range convos {
		ids = append(ids, c.ID)
	}

	rows, err := r.db.QueryxContext(ctx,
		`SELECT cp.conversation_id, cp.user_id, u.username, u.avatar_url, cp.is_admin, cp.joined_at
         FROM conversation_participants cp
         INNER JOIN users u ON u.id = cp.user_id
         WHERE cp.conversation_id = ANY($1)
         ORDER BY cp.joined_at ASC`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	byConvo := make(map[int][]models.Participant, len(convos))
	for rows.Next() {
		var conversationID int
		var p models.Participant
		if err := rows.Scan(&conversationID, &p.UserID, &p.Username, &p.AvatarURL, &p.IsAdmin, &p.JoinedAt); err != nil {
			return err
		}
		byConvo[conversationID] = append(byConvo[conversationID], p)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range convos {
		convos[i].Participants = byConvo[convos[i].ID]
	}
	return nil
}
