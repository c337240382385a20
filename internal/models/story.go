package models

import "time"

// Story is an ephemeral post that expires 24 hours after creation.
type Story struct {
	ID             int            `db:"id" json:"id"`
	AuthorID       int            `db:"author_id" json:"authorId"`
	AuthorUsername string         `db:"author_username" json:"authorUsername,omitempty"`
	Text           string         `db:"text" json:"text"`
	Media          AttachmentList `db:"media" json:"media"`
	ExpiresAt      time.Time      `db:"expires_at" json:"expiresAt"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}
