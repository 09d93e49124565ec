package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConversationActive    = "active"
	ConversationLiminal   = "liminal"
	ConversationCompleted = "completed"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

type Conversation struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Status string `gorm:"column:status;not null;default:'active';index" json:"status"`

	StartTime time.Time  `gorm:"column:start_time;not null;default:now()" json:"start_time"`
	EndTime   *time.Time `gorm:"column:end_time" json:"end_time,omitempty"`

	RiskLevel *string `gorm:"column:risk_level" json:"risk_level,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }
