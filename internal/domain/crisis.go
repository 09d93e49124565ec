package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SeverityCritical = "critical"
	SeveritySevere   = "severe"
	SeverityModerate = "moderate"
	SeverityLow      = "low"
)

// CrisisEvent is append-only apart from explicit resolution, which sets
// ResolvedAt and ResolutionNotes exactly once.
type CrisisEvent struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	SeverityLevel string `gorm:"column:severity_level;not null;index" json:"severity_level"`
	ActionTaken   string `gorm:"column:action_taken;not null" json:"action_taken"`

	ResolutionNotes *string    `gorm:"column:resolution_notes;type:text" json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (CrisisEvent) TableName() string { return "crisis_event" }
