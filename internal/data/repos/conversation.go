package repos

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/platform/logger"
)

type ConversationRepo interface {
	Create(dbc dbctx.Context, rows []*types.Conversation) ([]*types.Conversation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
	// LockByID takes a row lock so status transitions and message appends
	// for one conversation serialize.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SetRiskLevel(dbc dbctx.Context, id uuid.UUID, riskLevel string) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(dbc dbctx.Context, rows []*types.Conversation) ([]*types.Conversation, error) {
	if len(rows) == 0 {
		return []*types.Conversation{}, nil
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

func (r *conversationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing conversation id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Conversation
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

func (r *conversationRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing conversation id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Conversation
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerr.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *conversationRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Conversation
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing conversation id")
	}
	if len(updates) == 0 {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	updates["updated_at"] = time.Now().UTC()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *conversationRepo) SetRiskLevel(dbc dbctx.Context, id uuid.UUID, riskLevel string) error {
	return r.UpdateFields(dbc, id, map[string]interface{}{
		"risk_level": riskLevel,
	})
}
