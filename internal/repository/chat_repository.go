package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lexichat/internal/model"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(chat *model.ChatSession) error {
	if err := r.db.Create(chat).Error; err != nil {
		return fmt.Errorf("create chat failed: %w", err)
	}
	return nil
}

// ListByUserID returns the user's chats in creation order, which is the
// display order.
func (r *ChatRepository) ListByUserID(userID uint) ([]model.ChatSession, error) {
	var chats []model.ChatSession
	if err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&chats).Error; err != nil {
		return nil, fmt.Errorf("list chats failed: %w", err)
	}
	return chats, nil
}

func (r *ChatRepository) GetByIDAndUserID(chatID string, userID uint) (*model.ChatSession, error) {
	var chat model.ChatSession
	if err := r.db.Where("id = ? AND user_id = ?", chatID, userID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat failed: %w", err)
	}
	return &chat, nil
}

func (r *ChatRepository) UpdateTitle(chatID string, title string) error {
	if err := r.db.Model(&model.ChatSession{}).Where("id = ?", chatID).Update("title", title).Error; err != nil {
		return fmt.Errorf("update chat title failed: %w", err)
	}
	return nil
}

// DeleteByIDAndUserID removes the chat and its messages. Deleting an id
// that is not present is not an error.
func (r *ChatRepository) DeleteByIDAndUserID(chatID string, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("delete chat messages failed: %w", err)
		}
		if err := tx.Where("id = ? AND user_id = ?", chatID, userID).Delete(&model.ChatSession{}).Error; err != nil {
			return fmt.Errorf("delete chat failed: %w", err)
		}
		return nil
	})
}

// DeleteAllByUserID clears every chat the user owns along with the
// messages. Idempotent on an already-empty list.
func (r *ChatRepository) DeleteAllByUserID(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id IN (?)",
			tx.Model(&model.ChatSession{}).Select("id").Where("user_id = ?", userID),
		).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("delete user messages failed: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.ChatSession{}).Error; err != nil {
			return fmt.Errorf("delete user chats failed: %w", err)
		}
		return nil
	})
}
