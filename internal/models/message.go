package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is one immutable entry of a case's chat log.
// Body always holds ciphertext; whether it is chat text or a control envelope
// is only known after decryption.
type Message struct {
	// ID is a UUIDv7, so ordering by (CreatedAt, ID) follows insertion order.
	ID string `gorm:"type:uuid;primaryKey" json:"id"`
	// CaseID references the externally owned case record.
	CaseID string `gorm:"type:uuid;not null;index:idx_case_log,priority:1" json:"case_id"`
	// SenderRole is the role of the participant that produced the entry.
	SenderRole Role `gorm:"type:text;not null" json:"sender_role"`
	// Body is the field-cipher token of the plaintext.
	Body string `gorm:"type:text;not null" json:"-"`
	// CreatedAt is assigned on insert and never updated.
	CreatedAt time.Time `gorm:"not null;index:idx_case_log,priority:2" json:"created_at"`
}

// TableName keeps the log in its own table, apart from any other message store.
func (Message) TableName() string {
	return "chat_messages"
}

// BeforeCreate assigns the id and timestamp when the caller left them empty.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		m.ID = id.String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

// DecryptedMessage is a log entry after the field cipher has opened its body.
type DecryptedMessage struct {
	ID         string
	CaseID     string
	SenderRole Role
	Text       string
	CreatedAt  time.Time
}
