package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `m.id, m.conversation_id, m.author_id, u.username AS author_username, m.content, m.attachments, m.status, m.quoted_message_id, m.quoted_content, m.quoted_author_id, m.quoted_created_at, m.created_at`

// MessageRepository abstracts message persistence, including read receipts
// and reactions.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetMessage(ctx context.Context, id int) (models.Message, error)
	ListBefore(ctx context.Context, conversationID int, before time.Time, limit int) ([]models.Message, error)
	LastMessage(ctx context.Context, conversationID int) (models.Message, error)
	UpdateStatus(ctx context.Context, messageID int, status string) error
	InsertRead(ctx context.Context, messageID, userID int) (bool, error)
	CountReads(ctx context.Context, messageID int) (int, error)
	HasReaction(ctx context.Context, messageID, userID int, emoji string) (bool, error)
	InsertReaction(ctx context.Context, messageID, userID int, emoji string) error
	DeleteReaction(ctx context.Context, messageID, userID int, emoji string) error
	DeleteMessage(ctx context.Context, messageID int) error
	Search(ctx context.Context, conversationID int, query string, limit int) ([]models.Message, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// messageRow mirrors the messages table with nullable quote columns.
type messageRow struct {
	ID              int                   `db:"id"`
	ConversationID  int                   `db:"conversation_id"`
	AuthorID        int                   `db:"author_id"`
	AuthorUsername  string                `db:"author_username"`
	Content         string                `db:"content"`
	Attachments     models.AttachmentList `db:"attachments"`
	Status          string                `db:"status"`
	QuotedMessageID *int                  `db:"quoted_message_id"`
	QuotedContent   *string               `db:"quoted_content"`
	QuotedAuthorID  *int                  `db:"quoted_author_id"`
	QuotedCreatedAt *time.Time            `db:"quoted_created_at"`
	CreatedAt       time.Time             `db:"created_at"`
}

func (row messageRow) toMessage() models.Message {
	msg := models.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		AuthorID:       row.AuthorID,
		AuthorUsername: row.AuthorUsername,
		Content:        row.Content,
		Attachments:    row.Attachments,
		Status:         row.Status,
		CreatedAt:      row.CreatedAt,
	}
	if row.QuotedMessageID != nil {
		quoted := &models.QuotedMessage{MessageID: *row.QuotedMessageID}
		if row.QuotedContent != nil {
			quoted.Content = *row.QuotedContent
		}
		if row.QuotedAuthorID != nil {
			quoted.AuthorID = *row.QuotedAuthorID
		}
		if row.QuotedCreatedAt != nil {
			quoted.CreatedAt = *row.QuotedCreatedAt
		}
		msg.Quoted = quoted
	}
	return msg
}

// CreateMessage persists a message and returns it fully loaded.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	var quotedID, quotedAuthor *int
	var quotedContent *string
	var quotedCreatedAt *time.Time
	if msg.Quoted != nil {
		quotedID = &msg.Quoted.MessageID
		quotedContent = &msg.Quoted.Content
		quotedAuthor = &msg.Quoted.AuthorID
		quotedCreatedAt = &msg.Quoted.CreatedAt
	}

	var id int
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (conversation_id, author_id, content, attachments, status, quoted_message_id, quoted_content, quoted_author_id, quoted_created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		msg.ConversationID, msg.AuthorID, msg.Content, msg.Attachments, msg.Status,
		quotedID, quotedContent, quotedAuthor, quotedCreatedAt).Scan(&id)
	if err != nil {
		return models.Message{}, err
	}
	return r.GetMessage(ctx, id)
}

// GetMessage fetches a single message with receipts and reactions.
func (r *MessageRepo) GetMessage(ctx context.Context, id int) (models.Message, error) {
	var row messageRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+messageColumns+` FROM messages m INNER JOIN users u ON u.id = m.author_id WHERE m.id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	msgs := []models.Message{row.toMessage()}
	if err := r.attachRelations(ctx, msgs); err != nil {
		return models.Message{}, err
	}
	return msgs[0], nil
}

// ListBefore returns up to limit messages created strictly before the cutoff,
// newest first.
func (r *MessageRepo) ListBefore(ctx context.Context, conversationID int, before time.Time, limit int) ([]models.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+messageColumns+` FROM messages m INNER JOIN users u ON u.id = m.author_id
         WHERE m.conversation_id=$1 AND m.created_at < $2
         ORDER BY m.created_at DESC LIMIT $3`,
		conversationID, before, limit)
	if err != nil {
		return nil, err
	}
	return r.assemble(ctx, rows)
}

// LastMessage returns the most recent message of a conversation.
func (r *MessageRepo) LastMessage(ctx context.Context, conversationID int) (models.Message, error) {
	var row messageRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+messageColumns+` FROM messages m INNER JOIN users u ON u.id = m.author_id
         WHERE m.conversation_id=$1 ORDER BY m.created_at DESC LIMIT 1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	msgs := []models.Message{row.toMessage()}
	if err := r.attachRelations(ctx, msgs); err != nil {
		return models.Message{}, err
	}
	return msgs[0], nil
}

// UpdateStatus sets the delivery status.
func (r *MessageRepo) UpdateStatus(ctx context.Context, messageID int, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET status=$2 WHERE id=$1`, messageID, status)
	return err
}

// InsertRead records a read receipt; returns false when the user had already
// read the message.
func (r *MessageRepo) InsertRead(ctx context.Context, messageID, userID int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO message_reads (message_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		messageID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}

// CountReads returns how many distinct users have read the message.
func (r *MessageRepo) CountReads(ctx context.Context, messageID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM message_reads WHERE message_id=$1`, messageID)
	return count, err
}

// HasReaction reports whether the user already reacted with the emoji.
func (r *MessageRepo) HasReaction(ctx context.Context, messageID, userID int, emoji string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM message_reactions WHERE message_id=$1 AND user_id=$2 AND emoji=$3)`,
		messageID, userID, emoji)
	return exists, err
}

// InsertReaction adds the user to the emoji's set.
func (r *MessageRepo) InsertReaction(ctx context.Context, messageID, userID int, emoji string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		messageID, userID, emoji)
	return err
}

// DeleteReaction removes the user from the emoji's set; an emptied bucket
// simply has no rows left.
func (r *MessageRepo) DeleteReaction(ctx context.Context, messageID, userID int, emoji string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM message_reactions WHERE message_id=$1 AND user_id=$2 AND emoji=$3`,
		messageID, userID, emoji)
	return err
}

// DeleteMessage hard-deletes a message; receipts and reactions cascade.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Search returns messages whose content contains the query,
// case-insensitive, newest first.
func (r *MessageRepo) Search(ctx context.Context, conversationID int, query string, limit int) ([]models.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+messageColumns+` FROM messages m INNER JOIN users u ON u.id = m.author_id
         WHERE m.conversation_id=$1 AND m.content ILIKE '%' || $2 || '%'
         ORDER BY m.created_at DESC LIMIT $3`,
		conversationID, query, limit)
	if err != nil {
		return nil, err
	}
	return r.assemble(ctx, rows)
}

func (r *MessageRepo) assemble(ctx context.Context, rows []messageRow) ([]models.Message, error) {
	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toMessage())
	}
	if err := r.attachRelations(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// attachRelations batch-loads read receipts and reactions for the messages.
func (r *MessageRepo) attachRelations(ctx context.Context, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(msgs))
	index := make(map[int]int, len(msgs))
	for i, m := range msgs {
		ids = append(ids, m.ID)
		index[m.ID] = i
	}

	readRows, err := r.db.QueryxContext(ctx,
		`SELECT message_id, user_id, read_at FROM message_reads WHERE message_id = ANY($1) ORDER BY read_at ASC`,
		pq.Array(ids))
	if err != nil {
		return err
	}
	defer readRows.Close()
	for readRows.Next() {
		var messageID int
		var receipt models.ReadReceipt
		if err := readRows.Scan(&messageID, &receipt.UserID, &receipt.At); err != nil {
			return err
		}
		i := index[messageID]
		msgs[i].ReadBy = append(msgs[i].ReadBy, receipt)
	}
	if err := readRows.Err(); err != nil {
		return err
	}

	reactionRows, err := r.db.QueryxContext(ctx,
		`SELECT message_id, emoji, user_id FROM message_reactions WHERE message_id = ANY($1) ORDER BY created_at ASC`,
		pq.Array(ids))
	if err != nil {
		return err
	}
	defer reactionRows.Close()
	for reactionRows.Next() {
		var messageID, userID int
		var emoji string
		if err := reactionRows.Scan(&messageID, &emoji, &userID); err != nil {
			return err
		}
		i := index[messageID]
		found := false
		for j := range msgs[i].Reactions {
			if msgs[i].Reactions[j].Emoji == emoji {
				msgs[i].Reactions[j].Users = append(msgs[i].Reactions[j].Users, userID)
				found = true
				break
			}
		}
		if !found {
			msgs[i].Reactions = append(msgs[i].Reactions, models.Reaction{Emoji: emoji, Users: []int{userID}})
		}
	}
	return reactionRows.Err()
}
