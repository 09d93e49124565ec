package services

import (
	"fmt"
	"strings"
)

// The four sections every summary must carry, generated or fallback.
const (
	sectionEmotions        = "key emotions"
	sectionConcerns        = "main concerns"
	sectionProgress        = "progress made"
	sectionRecommendations = "recommendations"
)

var requiredSections = []string{
	sectionEmotions,
	sectionConcerns,
	sectionProgress,
	sectionRecommendations,
}

// ParsedSummary is the structured form of a free-text summary.
type ParsedSummary struct {
	Emotions        []string `json:"emotions"`
	MainConcerns    []string `json:"main_concerns"`
	ProgressNotes   []string `json:"progress_notes"`
	Recommendations []string `json:"recommendations"`
	Raw             string   `json:"raw"`
}

// ParseResult never carries a panic or raw error upward: parsing either
// succeeds or reports a detail string.
type ParseResult struct {
	Success bool           `json:"success"`
	Parsed  *ParsedSummary `json:"parsed,omitempty"`
	Err     string         `json:"error,omitempty"`
}

// SummaryParser extracts the four section lists from generator output. The
// substring-on-headings approach is deliberate for free-text mode; a strict
// structured-output parser can replace it behind this interface without
// touching callers.
type SummaryParser interface {
	Parse(raw string) ParseResult
}

type sectionParser struct{}

func NewSectionParser() SummaryParser {
	return sectionParser{}
}

func (sectionParser) Parse(raw string) (result ParseResult) {
	// Malformed input must never escape as a panic.
	defer func() {
		if r := recover(); r != nil {
			result = ParseResult{Success: false, Err: fmt.Sprintf("summary parse panic: %v", r)}
		}
	}()

	parsed := &ParsedSummary{
		Emotions:        []string{},
		MainConcerns:    []string{},
		ProgressNotes:   []string{},
		Recommendations: []string{},
		Raw:             raw,
	}

	current := ""
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if section, ok := matchSectionHeader(trimmed); ok {
			current = section
			continue
		}

		item, isBullet := stripBullet(trimmed)
		if !isBullet || item == "" {
			// Non-bullet prose outside a recognized structure is ignored.
			continue
		}
		switch current {
		case sectionEmotions:
			parsed.Emotions = append(parsed.Emotions, item)
		case sectionConcerns:
			parsed.MainConcerns = append(parsed.MainConcerns, item)
		case sectionProgress:
			parsed.ProgressNotes = append(parsed.ProgressNotes, item)
		case sectionRecommendations:
			parsed.Recommendations = append(parsed.Recommendations, item)
		}
	}

	return ParseResult{Success: true, Parsed: parsed}
}

func matchSectionHeader(line string) (string, bool) {
	lowered := strings.ToLower(line)
	for _, section := range requiredSections {
		if strings.Contains(lowered, section) {
			return section, true
		}
	}
	return "", false
}

var bulletMarkers = []string{"- ", "* ", "• "}

func stripBullet(line string) (string, bool) {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	// Bare markers with no content still count as bullets.
	switch line {
	case "-", "*", "•":
		return "", true
	}
	return "", false
}

// hasAllSections validates generator output before parsing: an incomplete
// template is a generation failure, not a partial-parse case.
func hasAllSections(raw string) bool {
	lowered := strings.ToLower(raw)
	for _, section := range requiredSections {
		if !strings.Contains(lowered, section) {
			return false
		}
	}
	return true
}
