package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	chaterr "edu-chat/errors"
	"edu-chat/models"
)

// Gorm MySQL 消息存储
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Append(msg models.Message) error {
	if err := s.db.Create(&msg).Error; err != nil {
		return fmt.Errorf("%w: %v", chaterr.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Gorm) History(participantA, participantB string) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.
		Where("conversation_id = ?", models.ConversationIDFor(participantA, participantB)).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chaterr.ErrStorageUnavailable, err)
	}
	return messages, nil
}

func (s *Gorm) Touching(participantID string) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.
		Where("sender_id = ? OR receiver_id = ?", participantID, participantID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chaterr.ErrStorageUnavailable, err)
	}
	return messages, nil
}

func (s *Gorm) MarkConversationRead(readerID, otherPartyID string, at time.Time) (int64, error) {
	result := s.db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read_at IS NULL", otherPartyID, readerID).
		Update("read_at", at)
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %v", chaterr.ErrStorageUnavailable, result.Error)
	}
	return result.RowsAffected, nil
}
