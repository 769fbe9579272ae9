package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lexichat/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateBatch inserts the messages in one statement, preserving slice order.
func (r *MessageRepository) CreateBatch(messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}
	if err := r.db.Create(&messages).Error; err != nil {
		return fmt.Errorf("create messages failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListByChatID(chatID string) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("chat_id = ?", chatID).Order("seq ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

// LastContent returns the content of the chat's final message, or "" when
// the chat has no messages.
func (r *MessageRepository) LastContent(chatID string) (string, error) {
	var message model.Message
	err := r.db.Where("chat_id = ?", chatID).Order("seq DESC").First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get last message failed: %w", err)
	}
	return message.Content, nil
}

// NextSeq returns the append index for the chat's next message.
func (r *MessageRepository) NextSeq(chatID string) (int, error) {
	var maxSeq *int
	if err := r.db.Model(&model.Message{}).Where("chat_id = ?", chatID).Select("MAX(seq)").Scan(&maxSeq).Error; err != nil {
		return 0, fmt.Errorf("get max message seq failed: %w", err)
	}
	if maxSeq == nil {
		return 1, nil
	}
	return *maxSeq + 1, nil
}

// DeleteByID removes one message from the chat. A missing message id is
// not an error.
func (r *MessageRepository) DeleteByID(chatID, messageID string) error {
	if err := r.db.Where("chat_id = ? AND id = ?", chatID, messageID).Delete(&model.Message{}).Error; err != nil {
		return fmt.Errorf("delete message failed: %w", err)
	}
	return nil
}
