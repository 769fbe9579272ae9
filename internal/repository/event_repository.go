package repository

import (
	"fmt"

	"gorm.io/gorm"

	"lexichat/internal/model"
)

// EventRepository stores the audit trail written by the chat event worker.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(record *model.ChatEventRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("create chat event record failed: %w", err)
	}
	return nil
}
