package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Victor-talka/talka-history/internal/config"
	"github.com/Victor-talka/talka-history/internal/importer"
	"github.com/Victor-talka/talka-history/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	importStatusCompleted = "completed"
	importStatusFailed    = "failed"

	messageBatchSize = 500
)

// ImportService imports chat export CSV files into conversations
type ImportService struct {
	db  *gorm.DB
	cfg *config.Config
	log *zap.Logger
}

// NewImportService creates a new import service
func NewImportService(db *gorm.DB, cfg *config.Config, log *zap.Logger) *ImportService {
	return &ImportService{
		db:  db,
		cfg: cfg,
		log: log,
	}
}

// ImportRequest is one uploaded CSV file
type ImportRequest struct {
	UserID   uint
	Filename string
	Body     io.Reader
}

// ImportResult summarizes a completed import
type ImportResult struct {
	ImportID      uint
	Conversations []models.ConversationSummary
	MessagesCount int
	RowsTotal     int
	RowsSkipped   int
}

// ImportCSV parses a CSV body and upserts one conversation per phone number
// in a single transaction. A database error on any conversation rolls back
// the whole import. Every call leaves an Import audit row.
func (s *ImportService) ImportCSV(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	startedAt := time.Now().UTC()

	hash := sha256.New()
	var buf bytes.Buffer
	size, err := io.Copy(io.MultiWriter(&buf, hash), req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	record := models.Import{
		UUID:             uuid.New().String(),
		UserID:           req.UserID,
		OriginalFilename: req.Filename,
		FileHash:         hex.EncodeToString(hash.Sum(nil)),
		FileSize:         size,
		StartedAt:        startedAt,
	}

	records, err := importer.ReadCSV(&buf)
	if err != nil {
		s.finishImport(ctx, &record, err)
		if errors.Is(err, importer.ErrInvalidEncoding) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}

	grouped := importer.GroupRows(records.Rows, s.log)
	record.RowsTotal = grouped.RowsTotal + records.Malformed
	record.RowsSkipped = grouped.RowsSkipped + records.Malformed

	var summaries []models.ConversationSummary
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		summaries = make([]models.ConversationSummary, 0, len(grouped.Groups))
		for _, group := range grouped.Groups {
			summary, err := upsertConversation(tx, req.UserID, group)
			if err != nil {
				return fmt.Errorf("failed to import conversation %s: %w", group.PhoneNumber, err)
			}
			summaries = append(summaries, *summary)
		}
		return nil
	})
	if err != nil {
		s.finishImport(ctx, &record, err)
		return nil, err
	}

	record.ConversationsCount = len(summaries)
	record.MessagesCount = grouped.MessageCount()
	s.finishImport(ctx, &record, nil)

	s.log.Info("CSV import completed",
		zap.Uint("user_id", req.UserID),
		zap.String("filename", req.Filename),
		zap.Int("conversations", record.ConversationsCount),
		zap.Int("messages", record.MessagesCount),
		zap.Int("rows_skipped", record.RowsSkipped),
	)

	return &ImportResult{
		ImportID:      record.ID,
		Conversations: summaries,
		MessagesCount: record.MessagesCount,
		RowsTotal:     record.RowsTotal,
		RowsSkipped:   record.RowsSkipped,
	}, nil
}

// finishImport stores the audit row outside the import transaction so
// failed imports are recorded too. Failing to store it is only logged.
func (s *ImportService) finishImport(ctx context.Context, record *models.Import, importErr error) {
	completedAt := time.Now().UTC()
	record.CompletedAt = &completedAt
	record.Status = importStatusCompleted
	if importErr != nil {
		record.Status = importStatusFailed
		msg := importErr.Error()
		record.ErrorMessage = &msg
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.log.Error("Failed to record import",
			zap.String("uuid", record.UUID),
			zap.Error(err),
		)
	}
}

// upsertConversation finds or creates the conversation of a phone group,
// replaces its messages and moves updated_at to the latest message.
func upsertConversation(tx *gorm.DB, userID uint, group importer.Group) (*models.ConversationSummary, error) {
	latest := group.LatestTimestamp()

	var conversation models.Conversation
	err := tx.Where("user_id = ? AND phone_number = ?", userID, group.PhoneNumber).
		Order("id ASC").
		First(&conversation).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		conversation = models.Conversation{
			UserID:      userID,
			Title:       fmt.Sprintf("Conversa com %s", group.PhoneNumber),
			PhoneNumber: group.PhoneNumber,
			UpdatedAt:   latest,
		}
		if err := tx.Create(&conversation).Error; err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}

	if err := ReplaceConversationMessages(tx, conversation.ID, group.Messages); err != nil {
		return nil, err
	}

	// UpdateColumn skips GORM's auto update time, which would overwrite the value.
	if err := tx.Model(&conversation).UpdateColumn("updated_at", latest).Error; err != nil {
		return nil, fmt.Errorf("failed to update conversation timestamp: %w", err)
	}
	conversation.UpdatedAt = latest

	return &models.ConversationSummary{
		Conversation: conversation,
		MessageCount: len(group.Messages),
	}, nil
}

// ReplaceConversationMessages deletes every message of a conversation and
// inserts the given batch in its place. Prior messages are discarded, never
// merged. It must run inside the caller's transaction.
func ReplaceConversationMessages(tx *gorm.DB, conversationID uint, parsed []importer.ParsedMessage) error {
	if err := tx.Where("conversation_id = ?", conversationID).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("failed to delete previous messages: %w", err)
	}

	if len(parsed) == 0 {
		return nil
	}

	messages := make([]models.Message, 0, len(parsed))
	for _, p := range parsed {
		messages = append(messages, models.Message{
			ConversationID: conversationID,
			Content:        p.Content,
			Timestamp:      p.Timestamp,
			FromMe:         p.FromMe,
			MessageType:    p.MessageType,
			MediaURL:       p.MediaURL,
			MediaFilename:  p.MediaFilename,
		})
	}

	if err := tx.CreateInBatches(messages, messageBatchSize).Error; err != nil {
		return fmt.Errorf("failed to create messages batch: %w", err)
	}
	return nil
}

// ListImports returns the import history of a user, newest first
func (s *ImportService) ListImports(ctx context.Context, userID uint, limit int) ([]models.Import, error) {
	var imports []models.Import
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&imports).Error; err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	return imports, nil
}
