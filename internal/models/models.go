package models

import (
	"time"

	"gorm.io/datatypes"
)

// MessageType classifies the media carried by a message
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeVideo    MessageType = "video"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeDocument MessageType = "document"
)

// MediaMessageTypes lists every non-text message type
var MediaMessageTypes = []MessageType{
	MessageTypeImage,
	MessageTypeVideo,
	MessageTypeAudio,
	MessageTypeDocument,
}

// User is an account of the history viewer
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`                            // bcrypt hash
	UserType  string    `gorm:"type:varchar(20);not null;default:'user'" json:"user_type"`      // admin, user
	Status    string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"` // active, inactive
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Conversation is a per-user, per-phone-number thread of messages.
// (user_id, phone_number) is kept unique by the importer, not by the schema.
type Conversation struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	PhoneNumber string    `gorm:"type:varchar(50);not null;index" json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"` // latest message timestamp after an import

	// Relationships
	Messages []Message `gorm:"constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// ConversationSummary is a conversation plus the size of its message set
type ConversationSummary struct {
	Conversation
	MessageCount int `json:"message_count"`
}

// Message is one chat event inside a conversation
type Message struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	ConversationID uint        `gorm:"not null;index" json:"conversation_id"`
	Content        string      `gorm:"type:text;not null" json:"content"`
	Timestamp      time.Time   `gorm:"not null;index" json:"timestamp"`
	FromMe         bool        `gorm:"not null;default:false" json:"from_me"`
	MessageType    MessageType `gorm:"type:varchar(20);not null;default:'text';index" json:"message_type"`
	MediaURL       *string     `gorm:"type:varchar(500)" json:"media_url"`
	MediaFilename  *string     `gorm:"type:varchar(200)" json:"media_filename"`
}

// Import tracks one CSV import call
type Import struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UUID               string     `gorm:"uniqueIndex;not null" json:"uuid"`
	UserID             uint       `gorm:"not null;index" json:"user_id"`
	OriginalFilename   string     `gorm:"type:varchar(255);not null" json:"original_filename"`
	FileHash           string     `gorm:"type:varchar(64);index" json:"file_hash"` // SHA256 hex digest
	FileSize           int64      `json:"file_size"`
	Status             string     `gorm:"type:varchar(50);not null;index" json:"status"` // completed, failed
	RowsTotal          int        `json:"rows_total"`
	RowsSkipped        int        `json:"rows_skipped"`
	ConversationsCount int        `json:"conversations_count"`
	MessagesCount      int        `json:"messages_count"`
	ErrorMessage       *string    `json:"error_message,omitempty"`
	StartedAt          time.Time  `gorm:"not null;index" json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// Partner is a reseller earning commissions on sales
type Partner struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Email       string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	CompanyName string    `gorm:"type:varchar(200);not null" json:"company_name"`
	CompanyType string    `gorm:"type:varchar(100);not null" json:"company_type"`
	Phone       string    `gorm:"type:varchar(20)" json:"phone"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`

	// Relationships
	Sales          []Sale          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Commissions    []Commission    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PaymentMethods []PaymentMethod `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Sale is a plan sold by a partner
type Sale struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	PartnerID   uint       `gorm:"not null;index" json:"partner_id"`
	ClientName  string     `gorm:"type:varchar(200);not null" json:"client_name"`
	ClientEmail string     `gorm:"type:varchar(120);not null" json:"client_email"`
	Amount      float64    `gorm:"not null" json:"amount"`
	PlanType    string     `gorm:"type:varchar(50);not null" json:"plan_type"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // pending, confirmed, cancelled
	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
}

// Commission is owed to a partner for a confirmed sale
type Commission struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	PartnerID      uint       `gorm:"not null;index" json:"partner_id"`
	SaleID         uint       `gorm:"not null;index" json:"sale_id"`
	Amount         float64    `gorm:"not null" json:"amount"`
	CommissionType string     `gorm:"type:varchar(20);not null" json:"commission_type"`                // standard, recurring
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // pending, paid, cancelled
	CreatedAt      time.Time  `json:"created_at"`
	PaidAt         *time.Time `json:"paid_at"`
}

// PaymentMethod is where a partner receives commissions
type PaymentMethod struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	PartnerID  uint           `gorm:"not null;index" json:"partner_id"`
	MethodType string         `gorm:"type:varchar(20);not null" json:"method_type"` // pix, bank_transfer, paypal
	Details    datatypes.JSON `json:"details"`
	IsDefault  bool           `gorm:"not null;default:false" json:"is_default"`
	CreatedAt  time.Time      `json:"created_at"`
}
