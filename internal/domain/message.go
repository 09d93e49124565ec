package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Message is immutable once created. Ordered by CreatedAt within a
// conversation for display and summarization.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`

	Content    string `gorm:"column:content;type:text;not null" json:"content"`
	SenderType string `gorm:"column:sender_type;not null;index" json:"sender_type"`

	// Only meaningful for user messages; nil for AI messages.
	EmotionalState *datatypes.JSONType[EmotionalState] `gorm:"type:jsonb;column:emotional_state" json:"emotional_state,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (Message) TableName() string { return "message" }

func (m *Message) DetectedState() *EmotionalState {
	if m.EmotionalState == nil {
		return nil
	}
	s := m.EmotionalState.Data()
	return &s
}
