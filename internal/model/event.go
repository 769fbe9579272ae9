package model

import "time"

const (
	EventChatCreated    = "chat.created"
	EventMessageSent    = "message.sent"
	EventMessageDeleted = "message.deleted"
	EventChatDeleted    = "chat.deleted"
	EventChatsCleared   = "chats.cleared"
)

// ChatEvent is the audit payload published after a chat mutation.
type ChatEvent struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	ChatID     string    `json:"chat_id,omitempty"`
	MessageID  string    `json:"message_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ChatEventRecord is the persisted form of a ChatEvent.
type ChatEventRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Type       string    `gorm:"size:32;not null;index" json:"type"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ChatID     string    `gorm:"size:36;index" json:"chat_id"`
	MessageID  string    `gorm:"size:36" json:"message_id"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}
