package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConversationSummary rows are append-only, one per completion event. The
// "current" summary for a conversation is the latest by CreatedAt.
type ConversationSummary struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`

	Emotions        datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"emotions"`
	MainConcerns    datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"main_concerns"`
	ProgressNotes   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"progress_notes"`
	Recommendations datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"recommendations"`

	RawSummary string `gorm:"column:raw_summary;type:text;not null;default:''" json:"raw_summary"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (ConversationSummary) TableName() string { return "conversation_summary" }
