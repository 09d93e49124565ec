package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/havenline/haven-backend/internal/data/repos"
	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/platform/logger"
)

const summaryInstruction = `You are reviewing a support conversation between a user and an AI companion.
Summarize it using exactly this template, with one bullet list per section:

Key Emotions:
- ...

Main Concerns:
- ...

Progress Made:
- ...

Recommendations:
- ...

Keep bullets short and concrete. Do not add other sections.

Conversation transcript:
`

const (
	// Caps for the fallback summarizer.
	fallbackConcernMessages = 3
	fallbackConcernMaxLen   = 120
)

const delayedRawSummary = "Summary processing delayed. A basic summary was assembled from conversation data."

// SummaryResult always carries a usable structured summary; Source records
// whether the generator produced it or the fallback did.
type SummaryResult struct {
	Summary *ParsedSummary `json:"summary"`
	Source  string         `json:"source"` // "generated" or "fallback"
	Err     string         `json:"error,omitempty"`
}

type SummaryService interface {
	// GenerateSummary runs the two-stage pipeline (generate, then parse)
	// against the conversation transcript, falling back to the extractive
	// summarizer when generation or parsing fails. It never returns a nil
	// result alongside a nil error.
	GenerateSummary(dbc dbctx.Context, conversationID uuid.UUID) (*SummaryResult, error)
	// GenerateAndPersist additionally appends a ConversationSummary row.
	GenerateAndPersist(dbc dbctx.Context, conversationID uuid.UUID) (*types.ConversationSummary, *SummaryResult, error)
	// PersistProvided stores a caller-supplied summary text through the same
	// parse-or-fallback path as generated ones. The generator is never
	// invoked for provided text.
	PersistProvided(dbc dbctx.Context, conversationID uuid.UUID, raw string) (*types.ConversationSummary, *SummaryResult, error)
	GetLatest(dbc dbctx.Context, conversationID uuid.UUID) (*types.ConversationSummary, error)
}

type summaryService struct {
	db          *gorm.DB
	log         *logger.Logger
	messageRepo repos.MessageRepo
	summaryRepo repos.ConversationSummaryRepo
	generator   TextGenerator
	parser      SummaryParser
	timeout     time.Duration
}

func NewSummaryService(
	db *gorm.DB,
	log *logger.Logger,
	messageRepo repos.MessageRepo,
	summaryRepo repos.ConversationSummaryRepo,
	generator TextGenerator,
	parser SummaryParser,
	timeout time.Duration,
) SummaryService {
	if parser == nil {
		parser = NewSectionParser()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &summaryService{
		db:          db,
		log:         log.With("service", "SummaryService"),
		messageRepo: messageRepo,
		summaryRepo: summaryRepo,
		generator:   generator,
		parser:      parser,
		timeout:     timeout,
	}
}

func (s *summaryService) GenerateSummary(dbc dbctx.Context, conversationID uuid.UUID) (*SummaryResult, error) {
	messages, err := s.messageRepo.ListByConversation(dbc, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	raw, genErr := s.generate(dbc.Ctx, messages)
	if genErr == nil {
		result := s.parser.Parse(raw)
		if result.Success {
			return &SummaryResult{Summary: result.Parsed, Source: "generated"}, nil
		}
		genErr = fmt.Errorf("parse summary: %s", result.Err)
	}

	s.log.Warn("Summary generation failed, using fallback",
		"conversation_id", conversationID,
		"error", genErr,
	)
	fallback := s.fallbackSummary(dbc, conversationID, messages, genErr)
	return &SummaryResult{Summary: fallback, Source: "fallback", Err: genErr.Error()}, nil
}

func (s *summaryService) GenerateAndPersist(dbc dbctx.Context, conversationID uuid.UUID) (*types.ConversationSummary, *SummaryResult, error) {
	result, err := s.GenerateSummary(dbc, conversationID)
	if err != nil {
		return nil, nil, err
	}
	return s.persist(dbc, conversationID, result)
}

func (s *summaryService) PersistProvided(dbc dbctx.Context, conversationID uuid.UUID, raw string) (*types.ConversationSummary, *SummaryResult, error) {
	var cause error
	if hasAllSections(raw) {
		parsed := s.parser.Parse(raw)
		if parsed.Success {
			return s.persist(dbc, conversationID, &SummaryResult{Summary: parsed.Parsed, Source: "provided"})
		}
		cause = fmt.Errorf("parse provided summary: %s", parsed.Err)
	} else {
		cause = fmt.Errorf("provided summary missing required sections")
	}

	s.log.Warn("Provided summary unusable, using fallback",
		"conversation_id", conversationID,
		"error", cause,
	)
	messages, err := s.messageRepo.ListByConversation(dbc, conversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}
	fallback := s.fallbackSummary(dbc, conversationID, messages, cause)
	return s.persist(dbc, conversationID, &SummaryResult{Summary: fallback, Source: "fallback", Err: cause.Error()})
}

func (s *summaryService) persist(dbc dbctx.Context, conversationID uuid.UUID, result *SummaryResult) (*types.ConversationSummary, *SummaryResult, error) {
	row := &types.ConversationSummary{
		ID:              uuid.New(),
		ConversationID:  conversationID,
		Emotions:        result.Summary.Emotions,
		MainConcerns:    result.Summary.MainConcerns,
		ProgressNotes:   result.Summary.ProgressNotes,
		Recommendations: result.Summary.Recommendations,
		RawSummary:      result.Summary.Raw,
	}
	if _, err := s.summaryRepo.Create(dbc, []*types.ConversationSummary{row}); err != nil {
		return nil, result, fmt.Errorf("persist summary: %w", err)
	}
	return row, result, nil
}

func (s *summaryService) GetLatest(dbc dbctx.Context, conversationID uuid.UUID) (*types.ConversationSummary, error) {
	return s.summaryRepo.GetLatest(dbc, conversationID)
}

func (s *summaryService) generate(ctx context.Context, messages []*types.Message) (string, error) {
	if s.generator == nil {
		return "", fmt.Errorf("no text generator configured")
	}
	transcript := buildTranscript(messages)
	if transcript == "" {
		return "", fmt.Errorf("empty transcript")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generator.Generate(ctx, summaryInstruction+transcript)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("summary generation timed out after %s: %w", s.timeout, err)
		}
		if errors.Is(err, pkgerr.ErrPolicyRejected) {
			return "", err
		}
		return "", fmt.Errorf("generate summary: %w", err)
	}
	if !hasAllSections(raw) {
		return "", fmt.Errorf("generator output missing required sections")
	}
	return raw, nil
}

// buildTranscript renders messages as ordered "role[tags]: content" lines,
// skipping blank content.
func buildTranscript(messages []*types.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m == nil {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		b.WriteString(m.SenderType)
		if state := m.DetectedState(); state != nil && len(state.State) > 0 {
			b.WriteString("[")
			b.WriteString(strings.Join(state.State, ", "))
			b.WriteString("]")
		}
		b.WriteString(": ")
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}

// fallbackSummary assembles a deterministic summary from data already on
// hand: the union of detected tags, the last few user messages as concerns,
// and fixed text for the remaining sections. It honors the same
// four-section contract as generated summaries.
func (s *summaryService) fallbackSummary(dbc dbctx.Context, conversationID uuid.UUID, messages []*types.Message, cause error) *ParsedSummary {
	emotions := []string{}
	seen := map[string]bool{}
	for _, m := range messages {
		state := m.DetectedState()
		if state == nil {
			continue
		}
		for _, tag := range state.State {
			if !seen[tag] {
				seen[tag] = true
				emotions = append(emotions, tag)
			}
		}
	}

	concerns := []string{}
	for _, m := range s.recentUserMessages(dbc, conversationID, messages) {
		concerns = append(concerns, truncate(strings.TrimSpace(m.Content), fallbackConcernMaxLen))
	}

	raw := delayedRawSummary
	if cause != nil && !errors.Is(cause, context.DeadlineExceeded) {
		raw = "Automatic summary unavailable. A basic summary was assembled from conversation data."
	}

	return &ParsedSummary{
		Emotions:        emotions,
		MainConcerns:    concerns,
		ProgressNotes:   []string{"User engaged with the support conversation."},
		Recommendations: []string{"Continue regular check-ins.", "Revisit highlighted concerns in the next session."},
		Raw:             raw,
	}
}

// recentUserMessages returns the last few user messages in chronological
// order, preferring the repo's dedicated query and falling back to filtering
// the transcript already in hand.
func (s *summaryService) recentUserMessages(dbc dbctx.Context, conversationID uuid.UUID, messages []*types.Message) []*types.Message {
	recent, err := s.messageRepo.ListUserMessages(dbc, conversationID, fallbackConcernMessages)
	if err == nil {
		// Newest-first from the repo; flip to display order.
		out := make([]*types.Message, 0, len(recent))
		for i := len(recent) - 1; i >= 0; i-- {
			if strings.TrimSpace(recent[i].Content) != "" {
				out = append(out, recent[i])
			}
		}
		return out
	}
	s.log.Warn("Recent user message query failed, filtering transcript", "conversation_id", conversationID, "error", err)

	var userMessages []*types.Message
	for _, m := range messages {
		if m.SenderType == types.SenderUser && strings.TrimSpace(m.Content) != "" {
			userMessages = append(userMessages, m)
		}
	}
	start := len(userMessages) - fallbackConcernMessages
	if start < 0 {
		start = 0
	}
	return userMessages[start:]
}

// truncate cuts on a rune boundary so multi-byte content is never split
// mid-sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
