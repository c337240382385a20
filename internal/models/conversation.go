package models

import "time"

// Conversation types.
const (
	ConversationDirect = "DIRECT"
	ConversationGroup  = "GROUP"
)

// Conversation is a DIRECT or GROUP conversation. Title, description and the
// admin subset only apply to groups.
type Conversation struct {
	ID          int       `db:"id" json:"id"`
	Type        string    `db:"type" json:"type"`
	Title       string    `db:"title" json:"title,omitempty"`
	Description string    `db:"description" json:"description,omitempty"`
	AvatarURL   string    `db:"avatar_url" json:"avatarUrl,omitempty"`
	CreatedBy   int       `db:"created_by" json:"createdBy"`
	IsArchived  bool      `db:"is_archived" json:"isArchived"`
	IsPinned    bool      `db:"is_pinned" json:"isPinned"`
	PinnedBy    *int      `db:"pinned_by" json:"pinnedBy,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	Participants []Participant `json:"participants"`
}

// Participant is one conversation member, joined with user display fields.
type Participant struct {
	UserID    int       `db:"user_id" json:"userId"`
	Username  string    `db:"username" json:"username"`
	AvatarURL string    `db:"avatar_url" json:"avatarUrl,omitempty"`
	IsAdmin   bool      `db:"is_admin" json:"isAdmin"`
	JoinedAt  time.Time `db:"joined_at" json:"joinedAt"`
}

// ConversationSummary is a conversation annotated with its latest message for
// inbox rendering. LastMessage is nil for empty conversations.
type ConversationSummary struct {
	Conversation
	LastMessage *Message `json:"lastMessage"`
}

// HasParticipant reports whether userID is a member.
func (c Conversation) HasParticipant(userID int) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether userID is an admin of the conversation.
func (c Conversation) IsAdmin(userID int) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return p.IsAdmin
		}
	}
	return false
}

// AdminIDs returns the ids of all admins.
func (c Conversation) AdminIDs() []int {
	var ids []int
	for _, p := range c.Participants {
		if p.IsAdmin {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

// ParticipantIDs returns the ids of all members.
func (c Conversation) ParticipantIDs() []int {
	ids := make([]int, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
