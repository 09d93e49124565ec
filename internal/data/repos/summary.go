package repos

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/platform/logger"
)

type ConversationSummaryRepo interface {
	Create(dbc dbctx.Context, rows []*types.ConversationSummary) ([]*types.ConversationSummary, error)
	// GetLatest resolves "current summary" by creation order; rows are
	// append-only, one per completion event.
	GetLatest(dbc dbctx.Context, conversationID uuid.UUID) (*types.ConversationSummary, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.ConversationSummary, error)
}

type conversationSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationSummaryRepo(db *gorm.DB, log *logger.Logger) ConversationSummaryRepo {
	return &conversationSummaryRepo{db: db, log: log.With("repo", "ConversationSummaryRepo")}
}

func (r *conversationSummaryRepo) Create(dbc dbctx.Context, rows []*types.ConversationSummary) ([]*types.ConversationSummary, error) {
	if len(rows) == 0 {
		return []*types.ConversationSummary{}, nil
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

func (r *conversationSummaryRepo) GetLatest(dbc dbctx.Context, conversationID uuid.UUID) (*types.ConversationSummary, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.ConversationSummary
	if err := transaction.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerr.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *conversationSummaryRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.ConversationSummary, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ConversationSummary
	if err := transaction.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
