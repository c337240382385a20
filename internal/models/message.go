package models

import "time"

// Message delivery states. Transitions only move forward:
// sent -> delivered -> read.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// Message is a single message in a conversation.
type Message struct {
	ID             int            `json:"id"`
	ConversationID int            `json:"conversationId"`
	AuthorID       int            `json:"authorId"`
	AuthorUsername string         `json:"authorUsername,omitempty"`
	Content        string         `json:"content"`
	Attachments    AttachmentList `json:"attachments"`
	Status         string         `json:"status"`
	ReadBy         []ReadReceipt  `json:"readBy"`
	Reactions      []Reaction     `json:"reactions"`
	Quoted         *QuotedMessage `json:"quotedMessage,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// ReadReceipt records that a user has read a message.
type ReadReceipt struct {
	UserID int       `db:"user_id" json:"userId"`
	At     time.Time `db:"read_at" json:"at"`
}

// Reaction groups the users who reacted with one emoji.
type Reaction struct {
	Emoji string `json:"emoji"`
	Users []int  `json:"users"`
}

// QuotedMessage is a snapshot of a referenced message captured at send time.
// It is not updated when the original changes or is deleted.
type QuotedMessage struct {
	MessageID int       `json:"messageId"`
	Content   string    `json:"content"`
	AuthorID  int       `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}
