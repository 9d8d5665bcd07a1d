package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Victor-talka/talka-history/internal/importer"
	"github.com/Victor-talka/talka-history/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sampleCSV = `"timestamp","phone","message","from_me"
"01/03/2024, 14:30","+551199999999","Olha essa foto.jpg","false"
"2024-03-01 14:35:00","+551199999999","confira este video: http://x.co/v","1"
"02/03/2024 09:00","+551188888888","bom dia","sim"
"data ruim","+551188888888","ignorada","false"
"02/03/2024 08:00","+551188888888","mais cedo","false"
`

func newImportService(t *testing.T) (*ImportService, *gorm.DB) {
	t.Helper()
	cfg := testConfig(t)
	db := newTestDB(t, cfg)
	return NewImportService(db, cfg, zap.NewNop()), db
}

func runImport(t *testing.T, svc *ImportService, userID uint, body string) *ImportResult {
	t.Helper()
	res, err := svc.ImportCSV(context.Background(), ImportRequest{
		UserID:   userID,
		Filename: "export.csv",
		Body:     strings.NewReader(body),
	})
	require.NoError(t, err)
	return res
}

func loadMessages(t *testing.T, db *gorm.DB, conversationID uint) []models.Message {
	t.Helper()
	var messages []models.Message
	require.NoError(t, db.Where("conversation_id = ?", conversationID).Order("id ASC").Find(&messages).Error)
	return messages
}

func TestImportCSV(t *testing.T) {
	svc, db := newImportService(t)

	res := runImport(t, svc, 7, sampleCSV)

	assert.Equal(t, 5, res.RowsTotal)
	assert.Equal(t, 1, res.RowsSkipped)
	assert.Equal(t, 4, res.MessagesCount)
	require.Len(t, res.Conversations, 2)

	first := res.Conversations[0]
	assert.Equal(t, "+551199999999", first.PhoneNumber)
	assert.Equal(t, "Conversa com +551199999999", first.Title)
	assert.Equal(t, uint(7), first.UserID)
	assert.Equal(t, 2, first.MessageCount)
	assert.True(t, time.Date(2024, 3, 1, 14, 35, 0, 0, time.UTC).Equal(first.UpdatedAt))

	messages := loadMessages(t, db, first.ID)
	require.Len(t, messages, 2)
	assert.Equal(t, models.MessageTypeImage, messages[0].MessageType)
	require.NotNil(t, messages[0].MediaFilename)
	assert.Equal(t, "foto.jpg", *messages[0].MediaFilename)
	assert.False(t, messages[0].FromMe)
	assert.Equal(t, models.MessageTypeVideo, messages[1].MessageType)
	require.NotNil(t, messages[1].MediaURL)
	assert.Equal(t, "http://x.co/v", *messages[1].MediaURL)
	assert.True(t, messages[1].FromMe)

	// updated_at is the max timestamp, not the last row's.
	second := res.Conversations[1]
	assert.Equal(t, 2, second.MessageCount)
	var stored models.Conversation
	require.NoError(t, db.First(&stored, second.ID).Error)
	assert.True(t, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC).Equal(stored.UpdatedAt), "got %s", stored.UpdatedAt)

	var record models.Import
	require.NoError(t, db.First(&record, res.ImportID).Error)
	assert.Equal(t, importStatusCompleted, record.Status)
	assert.Equal(t, 2, record.ConversationsCount)
	assert.Equal(t, 4, record.MessagesCount)
	assert.Equal(t, 1, record.RowsSkipped)
	assert.Len(t, record.FileHash, 64)
	assert.Equal(t, int64(len(sampleCSV)), record.FileSize)
	assert.NotNil(t, record.CompletedAt)
}

func TestImportCSVIsIdempotent(t *testing.T) {
	svc, db := newImportService(t)

	first := runImport(t, svc, 1, sampleCSV)
	second := runImport(t, svc, 1, sampleCSV)

	require.Len(t, second.Conversations, 2)
	for i := range first.Conversations {
		assert.Equal(t, first.Conversations[i].ID, second.Conversations[i].ID)
	}

	var conversations, messages int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&conversations).Error)
	require.NoError(t, db.Model(&models.Message{}).Count(&messages).Error)
	assert.Equal(t, int64(2), conversations)
	assert.Equal(t, int64(4), messages)
}

func TestImportCSVReplacesMessages(t *testing.T) {
	svc, db := newImportService(t)

	first := runImport(t, svc, 1, sampleCSV)
	res := runImport(t, svc, 1, `timestamp,phone,message
05/03/2024 10:00,+551199999999,nova mensagem
`)

	require.Len(t, res.Conversations, 1)
	conv := res.Conversations[0]
	assert.Equal(t, first.Conversations[0].ID, conv.ID)

	messages := loadMessages(t, db, conv.ID)
	require.Len(t, messages, 1)
	assert.Equal(t, "nova mensagem", messages[0].Content)

	var stored models.Conversation
	require.NoError(t, db.First(&stored, conv.ID).Error)
	assert.True(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC).Equal(stored.UpdatedAt))

	// The other phone number is untouched by this batch.
	assert.Len(t, loadMessages(t, db, first.Conversations[1].ID), 2)
}

func TestImportCSVSeparatesUsers(t *testing.T) {
	svc, db := newImportService(t)

	a := runImport(t, svc, 1, sampleCSV)
	b := runImport(t, svc, 2, sampleCSV)

	assert.NotEqual(t, a.Conversations[0].ID, b.Conversations[0].ID)

	var count int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestImportCSVEmpty(t *testing.T) {
	svc, _ := newImportService(t)

	res := runImport(t, svc, 1, "")
	assert.Empty(t, res.Conversations)
	assert.Zero(t, res.RowsTotal)
}

func TestImportCSVRejectsInvalidEncoding(t *testing.T) {
	svc, db := newImportService(t)

	_, err := svc.ImportCSV(context.Background(), ImportRequest{
		UserID:   1,
		Filename: "bad.csv",
		Body:     strings.NewReader("a,b,\xff\n"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	var record models.Import
	require.NoError(t, db.Where("original_filename = ?", "bad.csv").First(&record).Error)
	assert.Equal(t, importStatusFailed, record.Status)
	require.NotNil(t, record.ErrorMessage)
}

func TestImportCSVRollsBackOnDatabaseError(t *testing.T) {
	svc, db := newImportService(t)

	first := runImport(t, svc, 1, sampleCSV)

	// Second conversation of the batch fails; the first one must not change.
	require.NoError(t, db.Exec(`CREATE TRIGGER fail_second BEFORE INSERT ON messages
		WHEN NEW.content = 'explode' BEGIN SELECT RAISE(ABORT, 'boom'); END`).Error)

	_, err := svc.ImportCSV(context.Background(), ImportRequest{
		UserID:   1,
		Filename: "export.csv",
		Body: strings.NewReader(`timestamp,phone,message
06/03/2024 10:00,+551199999999,substituta
06/03/2024 10:00,+551188888888,explode
`),
	})
	require.Error(t, err)

	messages := loadMessages(t, db, first.Conversations[0].ID)
	require.Len(t, messages, 2)
	assert.Equal(t, "Olha essa foto.jpg", messages[0].Content)

	var failed int64
	require.NoError(t, db.Model(&models.Import{}).Where("status = ?", importStatusFailed).Count(&failed).Error)
	assert.Equal(t, int64(1), failed)
}

func TestReplaceConversationMessages(t *testing.T) {
	cfg := testConfig(t)
	db := newTestDB(t, cfg)

	conv := models.Conversation{UserID: 1, Title: "t", PhoneNumber: "+1"}
	require.NoError(t, db.Create(&conv).Error)

	batch := []importer.ParsedMessage{
		{Content: "a", Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), MessageType: models.MessageTypeText},
		{Content: "b", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), MessageType: models.MessageTypeText, FromMe: true},
	}
	require.NoError(t, ReplaceConversationMessages(db, conv.ID, batch))
	require.NoError(t, ReplaceConversationMessages(db, conv.ID, batch[1:]))

	messages := loadMessages(t, db, conv.ID)
	require.Len(t, messages, 1)
	assert.Equal(t, "b", messages[0].Content)
	assert.True(t, messages[0].FromMe)

	require.NoError(t, ReplaceConversationMessages(db, conv.ID, nil))
	assert.Empty(t, loadMessages(t, db, conv.ID))
}

func TestListImports(t *testing.T) {
	svc, _ := newImportService(t)

	runImport(t, svc, 3, sampleCSV)
	runImport(t, svc, 3, sampleCSV)
	runImport(t, svc, 4, sampleCSV)

	imports, err := svc.ListImports(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Len(t, imports, 2)
	for _, imp := range imports {
		assert.Equal(t, uint(3), imp.UserID)
	}
}
