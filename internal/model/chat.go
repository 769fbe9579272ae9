package model

import (
	"strings"
	"time"
)

// SentinelTitle marks a chat whose title has not been auto-generated yet.
const SentinelTitle = "New Chat"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession is one conversation thread owned by a single user. IDs are
// random uuids minted at creation time and never reassigned.
type ChatSession struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"size:128;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSentinelTitle reports whether the title is still the placeholder.
// The comparison is case-insensitive.
func (c *ChatSession) HasSentinelTitle() bool {
	return strings.EqualFold(strings.TrimSpace(c.Title), SentinelTitle)
}
