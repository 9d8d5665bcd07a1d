package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Victor-talka/talka-history/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConversationService serves imported conversations and messages
type ConversationService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewConversationService creates a new conversation service
func NewConversationService(db *gorm.DB, log *zap.Logger) *ConversationService {
	return &ConversationService{
		db:  db,
		log: log,
	}
}

// ListForUser returns a user's conversations, most recently active first
func (s *ConversationService) ListForUser(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	db := s.db.WithContext(ctx)

	var conversations []models.Conversation
	if err := db.Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	if len(conversations) == 0 {
		return summaries, nil
	}

	ids := make([]uint, 0, len(conversations))
	for _, c := range conversations {
		ids = append(ids, c.ID)
	}

	var counts []struct {
		ConversationID uint
		Total          int
	}
	if err := db.Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS total").
		Where("conversation_id IN ?", ids).
		Group("conversation_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	byConversation := make(map[uint]int, len(counts))
	for _, c := range counts {
		byConversation[c.ConversationID] = c.Total
	}

	for _, c := range conversations {
		summaries = append(summaries, models.ConversationSummary{
			Conversation: c,
			MessageCount: byConversation[c.ID],
		})
	}
	return summaries, nil
}

// GetConversation returns a conversation without its messages
func (s *ConversationService) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.WithContext(ctx).First(&conversation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conversation, nil
}

// Messages returns every message of a conversation, oldest first
func (s *ConversationService) Messages(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var messages []models.Message
	if err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

// Media returns the non-text messages of a conversation, newest first
func (s *ConversationService) Media(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var messages []models.Message
	if err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND message_type IN ?", conversationID, models.MediaMessageTypes).
		Order("timestamp DESC, id DESC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return messages, nil
}

// DeleteConversation removes a conversation together with its messages
func (s *ConversationService) DeleteConversation(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		res := tx.Delete(&models.Conversation{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete conversation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("conversation %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Conversation deleted", zap.Uint("conversation_id", id))
	return nil
}
