package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenline/haven-backend/internal/data/repos"
	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/emotion"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	"github.com/havenline/haven-backend/internal/platform/logger"
)

// RecordPatternResult reports a soft outcome: recording failures are logged
// and surfaced here but never abort the caller's flow.
type RecordPatternResult struct {
	Success    bool    `json:"success"`
	Confidence float64 `json:"confidence,omitempty"`
	Err        string  `json:"error,omitempty"`
}

type PatternService interface {
	RecordPattern(dbc dbctx.Context, userID uuid.UUID, patternType, patternValue, sourceText string) RecordPatternResult
	// RecordFromState records every non-trivial tag of a detected state.
	RecordFromState(dbc dbctx.Context, userID uuid.UUID, state types.EmotionalState, sourceText string) []RecordPatternResult
	GetUserPatterns(dbc dbctx.Context, userID uuid.UUID) ([]*types.EmotionalPattern, error)
}

type patternService struct {
	db          *gorm.DB
	log         *logger.Logger
	patternRepo repos.EmotionalPatternRepo
}

func NewPatternService(db *gorm.DB, log *logger.Logger, patternRepo repos.EmotionalPatternRepo) PatternService {
	return &patternService{
		db:          db,
		log:         log.With("service", "PatternService"),
		patternRepo: patternRepo,
	}
}

func (ps *patternService) RecordPattern(dbc dbctx.Context, userID uuid.UUID, patternType, patternValue, sourceText string) RecordPatternResult {
	row, err := ps.patternRepo.Upsert(dbc, userID, patternType, patternValue, time.Now().UTC())
	if err != nil {
		ps.log.Warn("Pattern recording failed",
			"user_id", userID,
			"pattern_type", patternType,
			"pattern_value", patternValue,
			"content", sourceText,
			"error", err,
		)
		return RecordPatternResult{Success: false, Err: err.Error()}
	}
	return RecordPatternResult{Success: true, Confidence: row.ConfidenceScore}
}

func (ps *patternService) RecordFromState(dbc dbctx.Context, userID uuid.UUID, state types.EmotionalState, sourceText string) []RecordPatternResult {
	if state.IsTrivial() {
		return nil
	}
	out := make([]RecordPatternResult, 0, len(state.State))
	for _, tag := range state.State {
		if tag == types.StateNeutral {
			continue
		}
		out = append(out, ps.RecordPattern(dbc, userID, emotion.PatternTypeFor(tag), tag, sourceText))
	}
	return out
}

func (ps *patternService) GetUserPatterns(dbc dbctx.Context, userID uuid.UUID) ([]*types.EmotionalPattern, error) {
	return ps.patternRepo.ListSignificant(dbc, userID, time.Now().UTC())
}
