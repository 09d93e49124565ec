package repos

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/platform/logger"
)

type CrisisEventRepo interface {
	Create(dbc dbctx.Context, rows []*types.CrisisEvent) ([]*types.CrisisEvent, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CrisisEvent, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.CrisisEvent, error)
	ListUnresolvedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CrisisEvent, error)
	Resolve(dbc dbctx.Context, id uuid.UUID, notes string, resolvedAt time.Time) error
}

type crisisEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCrisisEventRepo(db *gorm.DB, log *logger.Logger) CrisisEventRepo {
	return &crisisEventRepo{db: db, log: log.With("repo", "CrisisEventRepo")}
}

func (r *crisisEventRepo) Create(dbc dbctx.Context, rows []*types.CrisisEvent) ([]*types.CrisisEvent, error) {
	if len(rows) == 0 {
		return []*types.CrisisEvent{}, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *crisisEventRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CrisisEvent, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing event id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.CrisisEvent
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerr.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *crisisEventRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.CrisisEvent, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CrisisEvent
	if err := transaction.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *crisisEventRepo) ListUnresolvedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CrisisEvent, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CrisisEvent
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND resolved_at IS NULL", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *crisisEventRepo) Resolve(dbc dbctx.Context, id uuid.UUID, notes string, resolvedAt time.Time) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing event id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.CrisisEvent{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Updates(map[string]interface{}{
			"resolution_notes": notes,
			"resolved_at":      resolvedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerr.ErrNotFound
	}
	return nil
}
