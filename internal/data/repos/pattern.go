package repos

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/patterns"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	"github.com/havenline/haven-backend/internal/platform/logger"
)

type EmotionalPatternRepo interface {
	// Upsert records one sighting of (user, type, value). Insert seeds the
	// confidence at one occurrence / zero elapsed; update recomputes it from
	// count+1 and time since first detection. Atomic under concurrent
	// sightings of the same key.
	Upsert(dbc dbctx.Context, userID uuid.UUID, patternType, patternValue string, now time.Time) (*types.EmotionalPattern, error)
	// ListSignificant returns "patterns that still matter now": confidence
	// at or above the significance floor and reinforced within the recency
	// window, ordered confidence desc then occurrences desc.
	ListSignificant(dbc dbctx.Context, userID uuid.UUID, now time.Time) ([]*types.EmotionalPattern, error)
	GetByKey(dbc dbctx.Context, userID uuid.UUID, patternType, patternValue string) (*types.EmotionalPattern, error)
}

type emotionalPatternRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmotionalPatternRepo(db *gorm.DB, log *logger.Logger) EmotionalPatternRepo {
	return &emotionalPatternRepo{db: db, log: log.With("repo", "EmotionalPatternRepo")}
}

func (r *emotionalPatternRepo) Upsert(dbc dbctx.Context, userID uuid.UUID, patternType, patternValue string, now time.Time) (*types.EmotionalPattern, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}
	if patternType == "" || patternValue == "" {
		return nil, fmt.Errorf("missing pattern type/value")
	}

	if dbc.Tx != nil {
		return r.upsertLocked(dbc, userID, patternType, patternValue, now)
	}

	var out *types.EmotionalPattern
	err := r.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		row, err := r.upsertLocked(inner, userID, patternType, patternValue, now)
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *emotionalPatternRepo) upsertLocked(dbc dbctx.Context, userID uuid.UUID, patternType, patternValue string, now time.Time) (*types.EmotionalPattern, error) {
	existing, err := r.lockByKey(dbc, userID, patternType, patternValue)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing == nil {
		row := &types.EmotionalPattern{
			ID:              uuid.New(),
			UserID:          userID,
			PatternType:     patternType,
			PatternValue:    patternValue,
			OccurrenceCount: 1,
			ConfidenceScore: patterns.InitialScore(),
			FirstDetected:   now,
			LastDetected:    now,
		}
		res := dbc.Tx.WithContext(dbc.Ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(row)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			return row, nil
		}
		// Lost the insert race: another sighting created the row between our
		// lock attempt and the insert. Fall through to the update path.
		existing, err = r.lockByKey(dbc, userID, patternType, patternValue)
		if err != nil {
			return nil, err
		}
	}

	newCount := existing.OccurrenceCount + 1
	confidence := patterns.Score(newCount, now.Sub(existing.FirstDetected))
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Model(&types.EmotionalPattern{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"occurrence_count": newCount,
			"confidence_score": confidence,
			"last_detected":    now,
		}).Error; err != nil {
		return nil, err
	}
	existing.OccurrenceCount = newCount
	existing.ConfidenceScore = confidence
	existing.LastDetected = now
	return existing, nil
}

func (r *emotionalPatternRepo) lockByKey(dbc dbctx.Context, userID uuid.UUID, patternType, patternValue string) (*types.EmotionalPattern, error) {
	var out types.EmotionalPattern
	err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND pattern_type = ? AND pattern_value = ?", userID, patternType, patternValue).
		First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *emotionalPatternRepo) ListSignificant(dbc dbctx.Context, userID uuid.UUID, now time.Time) ([]*types.EmotionalPattern, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	cutoff := now.Add(-patterns.RecencyWindow)
	var out []*types.EmotionalPattern
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND confidence_score >= ? AND last_detected >= ?", userID, patterns.MinSignificantConfidence, cutoff).
		Order("confidence_score DESC").
		Order("occurrence_count DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *emotionalPatternRepo) GetByKey(dbc dbctx.Context, userID uuid.UUID, patternType, patternValue string) (*types.EmotionalPattern, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.EmotionalPattern
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND pattern_type = ? AND pattern_value = ?", userID, patternType, patternValue).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
