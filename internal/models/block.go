package models

import "time"

// Block is a directed block record. Visibility rules treat the relationship
// as symmetric: either direction existing blocks both users from each other.
type Block struct {
	BlockerID int       `db:"blocker_id" json:"blockerId"`
	BlockedID int       `db:"blocked_id" json:"blockedId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
