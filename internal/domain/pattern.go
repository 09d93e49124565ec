package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	PatternTypeEmotion  = "emotion"
	PatternTypeContext  = "context"
	PatternTypeResource = "resource"
)

// EmotionalPattern is a recurring signal for a user, unique per
// (user_id, pattern_type, pattern_value). Rows are only ever inserted or
// updated, never deleted; significance is carried by the decaying
// confidence score, not by row lifetime.
type EmotionalPattern struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_pattern_user_type_value,unique,priority:1" json:"user_id"`

	PatternType  string `gorm:"column:pattern_type;not null;index:idx_pattern_user_type_value,unique,priority:2" json:"pattern_type"`
	PatternValue string `gorm:"column:pattern_value;not null;index:idx_pattern_user_type_value,unique,priority:3" json:"pattern_value"`

	OccurrenceCount int     `gorm:"column:occurrence_count;not null;default:1" json:"occurrence_count"`
	ConfidenceScore float64 `gorm:"column:confidence_score;not null;default:0" json:"confidence_score"`

	FirstDetected time.Time `gorm:"column:first_detected;not null;default:now()" json:"first_detected"`
	LastDetected  time.Time `gorm:"column:last_detected;not null;default:now();index" json:"last_detected"`
}

func (EmotionalPattern) TableName() string { return "emotional_pattern" }
