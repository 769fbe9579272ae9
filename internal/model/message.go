package model

import "time"

// Message is one turn in a chat session. Seq is the per-chat append index;
// display order is Seq ascending.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ChatID    string    `gorm:"not null;index;size:36" json:"-"`
	Seq       int       `gorm:"not null" json:"-"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
