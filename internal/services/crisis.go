package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenline/haven-backend/internal/data/repos"
	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	"github.com/havenline/haven-backend/internal/platform/logger"
	"github.com/havenline/haven-backend/internal/realtime"
)

const defaultCrisisAction = "Crisis response protocol engaged; support resources shared with user."

type CrisisService interface {
	// RecordEvent inserts a crisis event in its own transaction. It is
	// fire-and-forget relative to the message-send flow: callers log a
	// returned error and move on.
	RecordEvent(dbc dbctx.Context, conversationID, userID uuid.UUID, severity, actionTaken string) (*types.CrisisEvent, error)
	GetEvent(dbc dbctx.Context, eventID uuid.UUID) (*types.CrisisEvent, error)
	ResolveEvent(dbc dbctx.Context, eventID uuid.UUID, notes string) error
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.CrisisEvent, error)
	ListUnresolvedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CrisisEvent, error)
}

type crisisService struct {
	db         *gorm.DB
	log        *logger.Logger
	crisisRepo repos.CrisisEventRepo
	alertBus   realtime.AlertBus
}

// NewCrisisService accepts a nil alertBus; alert publishing is best-effort.
func NewCrisisService(db *gorm.DB, log *logger.Logger, crisisRepo repos.CrisisEventRepo, alertBus realtime.AlertBus) CrisisService {
	return &crisisService{
		db:         db,
		log:        log.With("service", "CrisisService"),
		crisisRepo: crisisRepo,
		alertBus:   alertBus,
	}
}

func (cs *crisisService) RecordEvent(dbc dbctx.Context, conversationID, userID uuid.UUID, severity, actionTaken string) (*types.CrisisEvent, error) {
	if conversationID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation/user id")
	}
	if severity == "" {
		severity = types.SeverityModerate
	}
	if actionTaken == "" {
		actionTaken = defaultCrisisAction
	}

	event := &types.CrisisEvent{
		ID:             uuid.New(),
		ConversationID: conversationID,
		UserID:         userID,
		SeverityLevel:  severity,
		ActionTaken:    actionTaken,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := cs.crisisRepo.Create(dbc, []*types.CrisisEvent{event}); err != nil {
		cs.log.Error("Failed to record crisis event",
			"conversation_id", conversationID,
			"user_id", userID,
			"severity", severity,
			"error", err,
		)
		return nil, err
	}

	cs.log.Warn("Crisis event recorded",
		"event_id", event.ID,
		"conversation_id", conversationID,
		"user_id", userID,
		"severity", severity,
	)

	if cs.alertBus != nil {
		alert := realtime.CrisisAlert{
			EventID:        event.ID,
			ConversationID: conversationID,
			UserID:         userID,
			SeverityLevel:  severity,
			OccurredAt:     event.CreatedAt,
		}
		if err := cs.alertBus.Publish(dbc.Ctx, alert); err != nil {
			cs.log.Warn("Crisis alert publish failed", "event_id", event.ID, "error", err)
		}
	}

	return event, nil
}

func (cs *crisisService) GetEvent(dbc dbctx.Context, eventID uuid.UUID) (*types.CrisisEvent, error) {
	return cs.crisisRepo.GetByID(dbc, eventID)
}

func (cs *crisisService) ResolveEvent(dbc dbctx.Context, eventID uuid.UUID, notes string) error {
	if eventID == uuid.Nil {
		return fmt.Errorf("missing event id")
	}
	return cs.crisisRepo.Resolve(dbc, eventID, notes, time.Now().UTC())
}

func (cs *crisisService) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.CrisisEvent, error) {
	return cs.crisisRepo.ListByConversation(dbc, conversationID)
}

func (cs *crisisService) ListUnresolvedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CrisisEvent, error) {
	return cs.crisisRepo.ListUnresolvedByUser(dbc, userID)
}
