package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/havenline/haven-backend/internal/data/repos"
	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/emotion"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/pkg/retry"
	"github.com/havenline/haven-backend/internal/platform/logger"
)

// allowedTransitions is the full lifecycle table. completed is terminal in
// practice but re-enterable: moving back out of it is a re-opening.
var allowedTransitions = map[string]map[string]bool{
	types.ConversationActive: {
		types.ConversationLiminal:   true,
		types.ConversationCompleted: true,
	},
	types.ConversationLiminal: {
		types.ConversationActive:    true,
		types.ConversationCompleted: true,
	},
	types.ConversationCompleted: {
		types.ConversationActive:  true,
		types.ConversationLiminal: true,
	},
}

const replyInstruction = `You are a warm, supportive companion in a community support app.
Respond to the user's latest message with empathy. Keep it short, concrete, and never clinical.
Do not diagnose. Suggest local community resources when they fit.

Conversation so far:
`

// crisisReplyText is deterministic and generator-independent so the safety
// path cannot be degraded by generator failures.
const crisisReplyText = "I'm really glad you told me, and I'm concerned about how much pain you're in right now. " +
	"You deserve immediate support from a real person. Please reach out to the 988 Suicide & Crisis Lifeline " +
	"(call or text 988) or your local emergency services. I'm staying right here with you too - " +
	"would you like to keep talking while you reach out?"

const genericReplyText = "Thank you for sharing that with me. I'm having a little trouble responding right now, " +
	"but I'm still here with you. Could you tell me a bit more about how things have been?"

// SendMessageResult is the outcome of the full per-message pipeline.
type SendMessageResult struct {
	UserMessage    *types.Message        `json:"user_message"`
	AIMessage      *types.Message        `json:"ai_message"`
	EmotionalState types.EmotionalState  `json:"emotional_state"`
	RiskLevel      string                `json:"risk_level"`
	CrisisEvent    *types.CrisisEvent    `json:"crisis_event,omitempty"`
	PatternResults []RecordPatternResult `json:"pattern_results,omitempty"`
}

type ConversationService interface {
	// CreateConversation resolves the external identity to an internal
	// user, retrying per the injected policy for propagation lag, then
	// opens an active conversation. Exhausted retries return
	// pkgerr.ErrUserNotReady, which callers may retry wholesale.
	CreateConversation(dbc dbctx.Context, externalAuthID string) (*types.Conversation, error)
	GetConversation(dbc dbctx.Context, conversationID uuid.UUID) (*types.Conversation, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error)
	ListMessages(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error)

	// AddMessage validates and appends one message. User messages carrying
	// a non-trivial emotional state feed the pattern accumulator; pattern
	// failures are soft and never block the message write.
	AddMessage(dbc dbctx.Context, conversationID uuid.UUID, content, senderType string, state *types.EmotionalState) (*types.Message, []RecordPatternResult, error)

	// SendMessage runs the whole inbound pipeline: detect, persist the user
	// message, record patterns, generate the AI reply, persist it, evaluate
	// risk, and log a crisis event when warranted.
	SendMessage(dbc dbctx.Context, conversationID uuid.UUID, content string) (*SendMessageResult, error)

	// UpdateStatus drives the lifecycle state machine. Entering completed
	// stamps end_time and triggers the summary side effect: a non-empty
	// providedSummary is persisted through the parse-or-fallback path,
	// otherwise a summary is generated. Any other target clears end_time.
	// completed->completed re-runs the summary side effect; all other
	// self-transitions are no-ops.
	UpdateStatus(dbc dbctx.Context, conversationID uuid.UUID, newStatus, providedSummary string) (*types.Conversation, error)

	DetectEmotionalState(message string) types.EmotionalState
}

type conversationService struct {
	db               *gorm.DB
	log              *logger.Logger
	userRepo         repos.UserRepo
	conversationRepo repos.ConversationRepo
	messageRepo      repos.MessageRepo
	patternService   PatternService
	summaryService   SummaryService
	crisisService    CrisisService
	generator        TextGenerator
	lookupPolicy     retry.Policy
}

func NewConversationService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	conversationRepo repos.ConversationRepo,
	messageRepo repos.MessageRepo,
	patternService PatternService,
	summaryService SummaryService,
	crisisService CrisisService,
	generator TextGenerator,
	lookupPolicy retry.Policy,
) ConversationService {
	if lookupPolicy.MaxAttempts == 0 {
		lookupPolicy = retry.UserLookupPolicy()
	}
	return &conversationService{
		db:               db,
		log:              log.With("service", "ConversationService"),
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		patternService:   patternService,
		summaryService:   summaryService,
		crisisService:    crisisService,
		generator:        generator,
		lookupPolicy:     lookupPolicy,
	}
}

func (cs *conversationService) CreateConversation(dbc dbctx.Context, externalAuthID string) (*types.Conversation, error) {
	externalAuthID = strings.TrimSpace(externalAuthID)
	if externalAuthID == "" {
		return nil, fmt.Errorf("%w: missing external auth id", pkgerr.ErrInvalidArgument)
	}

	var user *types.User
	found, err := cs.lookupPolicy.Do(dbc.Ctx, func(ctx context.Context) (bool, error) {
		u, lookupErr := cs.userRepo.GetByExternalAuthID(dbctx.Context{Ctx: ctx, Tx: dbc.Tx}, externalAuthID)
		if lookupErr != nil {
			if errors.Is(lookupErr, pkgerr.ErrNotFound) {
				// Identity may not have propagated yet; keep trying.
				return false, nil
			}
			return false, lookupErr
		}
		user = u
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		cs.log.Warn("User lookup exhausted retries", "external_auth_id", externalAuthID)
		return nil, pkgerr.ErrUserNotReady
	}

	conversation := &types.Conversation{
		ID:        uuid.New(),
		UserID:    user.ID,
		Status:    types.ConversationActive,
		StartTime: time.Now().UTC(),
	}
	if _, err := cs.conversationRepo.Create(dbc, []*types.Conversation{conversation}); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conversation, nil
}

func (cs *conversationService) GetConversation(dbc dbctx.Context, conversationID uuid.UUID) (*types.Conversation, error) {
	return cs.conversationRepo.GetByID(dbc, conversationID)
}

func (cs *conversationService) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error) {
	return cs.conversationRepo.ListByUser(dbc, userID, limit)
}

func (cs *conversationService) ListMessages(dbc dbctx.Context, conversationID uuid.UUID) ([]*types.Message, error) {
	return cs.messageRepo.ListByConversation(dbc, conversationID)
}

func (cs *conversationService) AddMessage(dbc dbctx.Context, conversationID uuid.UUID, content, senderType string, state *types.EmotionalState) (*types.Message, []RecordPatternResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil, fmt.Errorf("%w: empty message content", pkgerr.ErrInvalidArgument)
	}
	if senderType != types.SenderUser && senderType != types.SenderAI {
		return nil, nil, fmt.Errorf("%w: unknown sender type %q", pkgerr.ErrInvalidArgument, senderType)
	}

	conversation, err := cs.conversationRepo.GetByID(dbc, conversationID)
	if err != nil {
		return nil, nil, err
	}

	message := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Content:        content,
		SenderType:     senderType,
		CreatedAt:      time.Now().UTC(),
	}
	if senderType == types.SenderUser && state != nil {
		wrapped := datatypes.NewJSONType(*state)
		message.EmotionalState = &wrapped
	}
	if _, err := cs.messageRepo.Create(dbc, []*types.Message{message}); err != nil {
		return nil, nil, fmt.Errorf("create message: %w", err)
	}

	// Pattern recording runs outside the message transaction: it may fail
	// independently without rolling the message back.
	var patternResults []RecordPatternResult
	if senderType == types.SenderUser && state != nil && !state.IsTrivial() {
		patternResults = cs.patternService.RecordFromState(
			dbctx.Context{Ctx: dbc.Ctx},
			conversation.UserID,
			*state,
			content,
		)
	}

	return message, patternResults, nil
}

func (cs *conversationService) SendMessage(dbc dbctx.Context, conversationID uuid.UUID, content string) (*SendMessageResult, error) {
	conversation, err := cs.conversationRepo.GetByID(dbc, conversationID)
	if err != nil {
		return nil, err
	}

	state := emotion.Detect(content)

	userMessage, patternResults, err := cs.AddMessage(dbc, conversationID, content, types.SenderUser, &state)
	if err != nil {
		return nil, err
	}

	replyText := cs.generateReply(dbc, conversationID, state)
	aiMessage, _, err := cs.AddMessage(dbc, conversationID, replyText, types.SenderAI, nil)
	if err != nil {
		return nil, err
	}

	insights, err := cs.sessionInsights(dbc, conversationID)
	if err != nil {
		cs.log.Warn("Session insight computation failed", "conversation_id", conversationID, "error", err)
		insights = emotion.SessionInsights{}
	}

	riskLevel := emotion.EvaluateRisk(state, insights)
	if err := cs.conversationRepo.SetRiskLevel(dbc, conversationID, riskLevel); err != nil {
		return nil, fmt.Errorf("update risk level: %w", err)
	}

	result := &SendMessageResult{
		UserMessage:    userMessage,
		AIMessage:      aiMessage,
		EmotionalState: state,
		RiskLevel:      riskLevel,
		PatternResults: patternResults,
	}

	// Crisis logging is fire-and-forget for the send flow: failures are
	// logged, never propagated.
	switch {
	case state.RequiresAlert:
		event, crisisErr := cs.crisisService.RecordEvent(dbctx.Context{Ctx: dbc.Ctx}, conversationID, conversation.UserID, types.SeveritySevere, "")
		if crisisErr != nil {
			cs.log.Error("Crisis event recording failed", "conversation_id", conversationID, "error", crisisErr)
		} else {
			result.CrisisEvent = event
		}
	case emotion.ShouldEscalate(riskLevel, insights):
		event, crisisErr := cs.crisisService.RecordEvent(dbctx.Context{Ctx: dbc.Ctx}, conversationID, conversation.UserID, types.SeverityModerate, emotion.EscalationNote)
		if crisisErr != nil {
			cs.log.Error("Escalation event recording failed", "conversation_id", conversationID, "error", crisisErr)
		} else {
			result.CrisisEvent = event
		}
	}

	return result, nil
}

func (cs *conversationService) UpdateStatus(dbc dbctx.Context, conversationID uuid.UUID, newStatus, providedSummary string) (*types.Conversation, error) {
	if _, known := allowedTransitions[newStatus]; !known {
		return nil, fmt.Errorf("%w: unknown status %q", pkgerr.ErrInvalidTransition, newStatus)
	}

	var conversation *types.Conversation
	runCompletionEffect := false

	transition := func(inner dbctx.Context) error {
		locked, err := cs.conversationRepo.LockByID(inner, conversationID)
		if err != nil {
			return err
		}

		if locked.Status == newStatus && newStatus != types.ConversationCompleted {
			// Same-state no-op; only completed->completed reprocesses.
			conversation = locked
			return nil
		}
		if locked.Status != newStatus && !allowedTransitions[locked.Status][newStatus] {
			return fmt.Errorf("%w: %s -> %s", pkgerr.ErrInvalidTransition, locked.Status, newStatus)
		}

		updates := map[string]interface{}{"status": newStatus}
		if newStatus == types.ConversationCompleted {
			now := time.Now().UTC()
			updates["end_time"] = now
			locked.EndTime = &now
			runCompletionEffect = true
		} else {
			updates["end_time"] = gorm.Expr("NULL")
			locked.EndTime = nil
		}
		if err := cs.conversationRepo.UpdateFields(inner, conversationID, updates); err != nil {
			return err
		}
		locked.Status = newStatus
		conversation = locked
		return nil
	}

	if dbc.Tx != nil || cs.db == nil {
		if err := transition(dbc); err != nil {
			return nil, err
		}
	} else {
		if err := cs.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			return transition(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
		}); err != nil {
			return nil, err
		}
	}

	// The summary side effect runs after the status commit so a slow or
	// failing generator can never fail (or hold) the transition itself.
	if runCompletionEffect {
		var summaryErr error
		if trimmed := strings.TrimSpace(providedSummary); trimmed != "" {
			_, _, summaryErr = cs.summaryService.PersistProvided(dbctx.Context{Ctx: dbc.Ctx}, conversationID, trimmed)
		} else {
			_, _, summaryErr = cs.summaryService.GenerateAndPersist(dbctx.Context{Ctx: dbc.Ctx}, conversationID)
		}
		if summaryErr != nil {
			cs.log.Warn("Completion summary failed", "conversation_id", conversationID, "error", summaryErr)
		}
	}

	return conversation, nil
}

func (cs *conversationService) DetectEmotionalState(message string) types.EmotionalState {
	return emotion.Detect(message)
}

func (cs *conversationService) generateReply(dbc dbctx.Context, conversationID uuid.UUID, state types.EmotionalState) string {
	if state.IsCrisis() {
		return crisisReplyText
	}
	if cs.generator == nil {
		return genericReplyText
	}

	messages, err := cs.messageRepo.ListByConversation(dbc, conversationID)
	if err != nil {
		cs.log.Warn("Transcript load for reply failed", "conversation_id", conversationID, "error", err)
		return genericReplyText
	}

	reply, err := cs.generator.Generate(dbc.Ctx, replyInstruction+buildTranscript(messages))
	if err != nil {
		if errors.Is(err, pkgerr.ErrPolicyRejected) {
			// The generator refusing is itself a distress signal; answer
			// with the deterministic crisis response.
			cs.log.Warn("Reply generation policy-rejected", "conversation_id", conversationID)
			return crisisReplyText
		}
		cs.log.Warn("Reply generation failed", "conversation_id", conversationID, "error", err)
		return genericReplyText
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return genericReplyText
	}
	return reply
}

// sessionInsights tallies detected tags across the conversation's user
// messages. Built fresh per call: no shared per-process conversation state.
func (cs *conversationService) sessionInsights(dbc dbctx.Context, conversationID uuid.UUID) (emotion.SessionInsights, error) {
	messages, err := cs.messageRepo.ListByConversation(dbc, conversationID)
	if err != nil {
		return emotion.SessionInsights{}, err
	}
	insights := emotion.SessionInsights{TagCounts: map[string]int{}, MessageCount: len(messages)}
	for _, m := range messages {
		if m.SenderType != types.SenderUser {
			continue
		}
		state := m.DetectedState()
		if state == nil {
			continue
		}
		for _, tag := range state.State {
			if tag == types.StateNeutral {
				continue
			}
			insights.TagCounts[tag]++
		}
	}
	return insights, nil
}
