package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/platform/logger"
)

const wellFormedSummary = `Key Emotions:
- anxiety
- financial_stress

Main Concerns:
- worried about making rent this month

Progress Made:
- named the main stressor out loud

Recommendations:
- look into local rental assistance
- check in again tomorrow
`

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type fakeSummaryRepo struct {
	rows []*types.ConversationSummary
}

func (f *fakeSummaryRepo) Create(_ dbctx.Context, rows []*types.ConversationSummary) ([]*types.ConversationSummary, error) {
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeSummaryRepo) GetLatest(_ dbctx.Context, conversationID uuid.UUID) (*types.ConversationSummary, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].ConversationID == conversationID {
			return f.rows[i], nil
		}
	}
	return nil, pkgerr.ErrNotFound
}

func (f *fakeSummaryRepo) ListByConversation(_ dbctx.Context, conversationID uuid.UUID) ([]*types.ConversationSummary, error) {
	var out []*types.ConversationSummary
	for _, r := range f.rows {
		if r.ConversationID == conversationID {
			out = append(out, r)
		}
	}
	return out, nil
}

func testMessage(conversationID uuid.UUID, sender, content string, tags ...string) *types.Message {
	m := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderType:     sender,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if len(tags) > 0 {
		wrapped := datatypes.NewJSONType(types.EmotionalState{State: tags, Intensity: types.IntensityModerate})
		m.EmotionalState = &wrapped
	}
	return m
}

func newSummaryFixture(t *testing.T, gen TextGenerator, timeout time.Duration) (SummaryService, *fakeMessageRepo, *fakeSummaryRepo) {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	messages := &fakeMessageRepo{}
	summaries := &fakeSummaryRepo{}
	svc := NewSummaryService(nil, log, messages, summaries, gen, nil, timeout)
	return svc, messages, summaries
}

// --- parser ---

func TestSectionParserParsesTemplate(t *testing.T) {
	result := NewSectionParser().Parse(wellFormedSummary)
	if !result.Success {
		t.Fatalf("parse failed: %s", result.Err)
	}
	p := result.Parsed
	if len(p.Emotions) != 2 || p.Emotions[0] != "anxiety" {
		t.Errorf("emotions = %v", p.Emotions)
	}
	if len(p.MainConcerns) != 1 || !strings.Contains(p.MainConcerns[0], "rent") {
		t.Errorf("concerns = %v", p.MainConcerns)
	}
	if len(p.ProgressNotes) != 1 {
		t.Errorf("progress = %v", p.ProgressNotes)
	}
	if len(p.Recommendations) != 2 {
		t.Errorf("recommendations = %v", p.Recommendations)
	}
	if p.Raw != wellFormedSummary {
		t.Error("raw text should be preserved verbatim")
	}
}

func TestSectionParserHandlesBulletVariants(t *testing.T) {
	raw := "Key Emotions:\n* grief\nMain Concerns:\n• missing their partner\nProgress Made:\n- opened up\nRecommendations:\n- grief support group"
	result := NewSectionParser().Parse(raw)
	if !result.Success {
		t.Fatalf("parse failed: %s", result.Err)
	}
	if len(result.Parsed.Emotions) != 1 || result.Parsed.Emotions[0] != "grief" {
		t.Errorf("emotions = %v", result.Parsed.Emotions)
	}
	if len(result.Parsed.MainConcerns) != 1 {
		t.Errorf("concerns = %v", result.Parsed.MainConcerns)
	}
}

func TestSectionParserNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"complete nonsense with no structure at all",
		"Key Emotions:\nMain Concerns:\nProgress Made:\nRecommendations:",
		"- bullet before any header\n- another",
		strings.Repeat("Key Emotions:\n- a\n", 500),
		"Key Emotions:\n-\n*\n•",
		"\x00\xff\nKey Emotions:\n- ok",
	}
	parser := NewSectionParser()
	for _, raw := range inputs {
		result := parser.Parse(raw)
		if result.Success && result.Parsed == nil {
			t.Errorf("input %.30q: success with nil parsed", raw)
		}
		if !result.Success && result.Err == "" {
			t.Errorf("input %.30q: failure with empty error", raw)
		}
	}
}

func TestSectionParserIgnoresLooseProse(t *testing.T) {
	raw := "Here is the summary you asked for.\n\nKey Emotions:\nsome intro prose\n- anxiety\n\nMain Concerns:\n- rent\nProgress Made:\n- talked\nRecommendations:\n- rest"
	result := NewSectionParser().Parse(raw)
	if !result.Success {
		t.Fatalf("parse failed: %s", result.Err)
	}
	if len(result.Parsed.Emotions) != 1 {
		t.Errorf("emotions = %v, prose lines should be skipped", result.Parsed.Emotions)
	}
}

func TestHasAllSections(t *testing.T) {
	if !hasAllSections(wellFormedSummary) {
		t.Error("well-formed template should pass")
	}
	if hasAllSections("Key Emotions:\n- a\nMain Concerns:\n- b") {
		t.Error("missing sections should fail")
	}
	if !hasAllSections(strings.ToUpper(wellFormedSummary)) {
		t.Error("section match must be case-insensitive")
	}
}

// --- summary service ---

func TestGenerateSummaryUsesGeneratorOutput(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string) (string, error) {
		return wellFormedSummary, nil
	})
	svc, messages, _ := newSummaryFixture(t, gen, time.Second)
	convID := uuid.New()
	messages.rows = []*types.Message{
		testMessage(convID, types.SenderUser, "worried about rent", types.StateAnxiety, types.StateFinancialStress),
		testMessage(convID, types.SenderAI, "that sounds stressful"),
	}

	result, err := svc.GenerateSummary(bg(), convID)
	if err != nil {
		t.Fatalf("GenerateSummary: %v", err)
	}
	if result.Source != "generated" {
		t.Fatalf("source = %q, want generated (err=%s)", result.Source, result.Err)
	}
	if len(result.Summary.Emotions) != 2 {
		t.Errorf("emotions = %v", result.Summary.Emotions)
	}
}

func TestGenerateSummaryFallsBackOnMissingSections(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string) (string, error) {
		return "Key Emotions:\n- anxiety\n\nand that's all I have", nil
	})
	svc, messages, _ := newSummaryFixture(t, gen, time.Second)
	convID := uuid.New()
	messages.rows = []*types.Message{
		testMessage(convID, types.SenderUser, "first worry", types.StateAnxiety),
		testMessage(convID, types.SenderUser, "second worry", types.StateAnxiety),
	}

	result, err := svc.GenerateSummary(bg(), convID)
	if err != nil {
		t.Fatalf("GenerateSummary: %v", err)
	}
	if result.Source != "fallback" {
		t.Fatalf("source = %q, want fallback", result.Source)
	}
	if result.Err == "" {
		t.Error("fallback result should carry the cause")
	}
	if len(result.Summary.Emotions) != 1 || result.Summary.Emotions[0] != types.StateAnxiety {
		t.Errorf("emotions = %v, want detected tags", result.Summary.Emotions)
	}
	if len(result.Summary.MainConcerns) != 2 {
		t.Errorf("concerns = %v, want recent user messages", result.Summary.MainConcerns)
	}
	if len(result.Summary.ProgressNotes) == 0 || len(result.Summary.Recommendations) == 0 {
		t.Error("fallback must fill all four sections")
	}
}

func TestGenerateSummaryFallsBackOnGeneratorError(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("upstream unavailable")
	})
	svc, messages, _ := newSummaryFixture(t, gen, time.Second)
	convID := uuid.New()
	messages.rows = []*types.Message{
		testMessage(convID, types.SenderUser, "hello", types.StateNeutral),
	}

	result, err := svc.GenerateSummary(bg(), convID)
	if err != nil {
		t.Fatalf("GenerateSummary: %v", err)
	}
	if result.Source != "fallback" {
		t.Fatalf("source = %q, want fallback", result.Source)
	}
}

func TestGenerateSummaryTimeoutMarksDelayed(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	svc, messages, _ := newSummaryFixture(t, gen, 10*time.Millisecond)
	convID := uuid.New()
	messages.rows = []*types.Message{
		testMessage(convID, types.SenderUser, "still here", types.StateNeutral),
	}

	result, err := svc.GenerateSummary(bg(), convID)
	if err != nil {
		t.Fatalf("GenerateSummary: %v", err)
	}
	if result.Source != "fallback" {
		t.Fatalf("source = %q, want fallback", result.Source)
	}
	if result.Summary.Raw != delayedRawSummary {
		t.Errorf("raw = %q, want the delayed marker", result.Summary.Raw)
	}
}

func TestGenerateSummaryFallbackTruncatesConcerns(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("down")
	})
	svc, messages, _ := newSummaryFixture(t, gen, time.Second)
	convID := uuid.New()
	long := strings.Repeat("x", 300)
	for i := 0; i < 5; i++ {
		messages.rows = append(messages.rows, testMessage(convID, types.SenderUser, long, types.StateNeutral))
	}

	result, err := svc.GenerateSummary(bg(), convID)
	if err != nil {
		t.Fatalf("GenerateSummary: %v", err)
	}
	if len(result.Summary.MainConcerns) != fallbackConcernMessages {
		t.Fatalf("concerns = %d, want %d", len(result.Summary.MainConcerns), fallbackConcernMessages)
	}
	for _, c := range result.Summary.MainConcerns {
		if len(c) != fallbackConcernMaxLen+len("...") {
			t.Errorf("concern length = %d, want truncated", len(c))
		}
	}
}

func TestPersistProvidedSummaryParsesCallerText(t *testing.T) {
	genCalls := 0
	gen := generatorFunc(func(_ context.Context, _ string) (string, error) {
		genCalls++
		return wellFormedSummary, nil
	})
	svc, messages, summaries := newSummaryFixture(t, gen, time.Second)
	convID := uuid.New()
	messages.rows = []*types.Message{
		testMessage(convID, types.SenderUser, "worried about rent", types.StateAnxiety),
	}

	row, result, err := svc.PersistProvided(bg(), convID, wellFormedSummary)
	if err != nil {
		t.Fatalf("PersistProvided: %v", err)
	}
	if result.Source != "provided" {
		t.Fatalf("source = %q, want provided (err=%s)", result.Source, result.Err)
	}
	if genCalls != 0 {
		t.Errorf("generator calls = %d, want 0", genCalls)
	}
	if len(summaries.rows) != 1 || summaries.rows[0].ID != row.ID {
		t.Fatal("summary row was not persisted")
	}
	if len(row.Emotions) != 2 || row.Emotions[0] != "anxiety" {
		t.Errorf("emotions = %v, want parsed caller sections", row.Emotions)
	}
}

func TestPersistProvidedSummaryFallsBackOnMalformedText(t *testing.T) {
	genCalls := 0
	gen := generatorFunc(func(_ context.Context, _ string) (string, error) {
		genCalls++
		return wellFormedSummary, nil
	})
	svc, messages, summaries := newSummaryFixture(t, gen, time.Second)
	convID := uuid.New()
	messages.rows = []*types.Message{
		testMessage(convID, types.SenderUser, "worried about rent", types.StateAnxiety),
	}

	_, result, err := svc.PersistProvided(bg(), convID, "we talked about rent and it went fine")
	if err != nil {
		t.Fatalf("PersistProvided: %v", err)
	}
	if result.Source != "fallback" {
		t.Fatalf("source = %q, want fallback", result.Source)
	}
	if result.Err == "" {
		t.Error("fallback result should carry the cause")
	}
	if genCalls != 0 {
		t.Errorf("generator calls = %d, want 0 even on fallback", genCalls)
	}
	if len(summaries.rows) != 1 {
		t.Fatalf("rows = %d, want the fallback persisted", len(summaries.rows))
	}
	if len(result.Summary.Emotions) != 1 || result.Summary.Emotions[0] != types.StateAnxiety {
		t.Errorf("emotions = %v, want detected tags", result.Summary.Emotions)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("ü", 200) // 2 bytes per rune; 120 lands mid-rune
	got := truncate(long, fallbackConcernMaxLen)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("got %q, want ellipsis suffix", got)
	}
	body := strings.TrimSuffix(got, "...")
	if !utf8.ValidString(body) {
		t.Errorf("truncated text is not valid UTF-8: %q", body)
	}
	if len(body) > fallbackConcernMaxLen {
		t.Errorf("body length = %d, want <= %d", len(body), fallbackConcernMaxLen)
	}

	short := "ok ünder the cap"
	if got := truncate(short, fallbackConcernMaxLen); got != short {
		t.Errorf("short input changed: %q", got)
	}
}

func TestGenerateAndPersistAppendsRow(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string) (string, error) {
		return wellFormedSummary, nil
	})
	svc, messages, summaries := newSummaryFixture(t, gen, time.Second)
	convID := uuid.New()
	messages.rows = []*types.Message{
		testMessage(convID, types.SenderUser, "worried about rent", types.StateAnxiety),
	}

	row, result, err := svc.GenerateAndPersist(bg(), convID)
	if err != nil {
		t.Fatalf("GenerateAndPersist: %v", err)
	}
	if result.Source != "generated" {
		t.Errorf("source = %q", result.Source)
	}
	if len(summaries.rows) != 1 || summaries.rows[0].ID != row.ID {
		t.Fatalf("summary row was not persisted")
	}

	// Completing again appends a second row; history is never overwritten.
	if _, _, err := svc.GenerateAndPersist(bg(), convID); err != nil {
		t.Fatalf("second GenerateAndPersist: %v", err)
	}
	if len(summaries.rows) != 2 {
		t.Errorf("rows = %d, want 2", len(summaries.rows))
	}
}
