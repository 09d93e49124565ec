package repos

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	"github.com/havenline/haven-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error)
	// ListUserMessages returns user-authored messages, newest first,
	// capped at limit. The fallback summarizer uses the last few.
	ListUserMessages(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error) {
	if len(rows) == 0 {
		return []*types.Message{}, nil
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

func (r *messageRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Message
	if err := transaction.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) ListUserMessages(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.Message, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation id")
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("conversation_id = ? AND sender_type = ?", conversationID, types.SenderUser).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Message
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
