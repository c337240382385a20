package models

// Realtime event names emitted to conversation rooms.
const (
	EventMessageNew      = "message:new"
	EventMessageReaction = "message:reaction"
	EventMessageDeleted  = "message:deleted"
	EventTyping          = "typing"
	EventError           = "error"
)

// RoomEvent is the frame broadcast over websockets to room members.
type RoomEvent struct {
	Event              string   `json:"event"`
	Message            *Message `json:"message,omitempty"`
	MessageID          int      `json:"messageId,omitempty"`
	DeletedForEveryone bool     `json:"deletedForEveryone,omitempty"`
	DeletedBy          *int     `json:"deletedBy,omitempty"`
	ConversationID     int      `json:"conversationId,omitempty"`
	UserID             int      `json:"userId,omitempty"`
	FailedEvent        string   `json:"failedEvent,omitempty"`
	Reason             string   `json:"reason,omitempty"`
}
