package emotion

import (
	types "github.com/havenline/haven-backend/internal/domain"
)

// Thresholds for the cumulative-distress rules. sessionSignalThreshold is
// per-tag within the current conversation; escalation fires only past
// escalationMinMessages and escalationCategoryThreshold.
const (
	sessionSignalThreshold      = 2
	escalationMinMessages       = 4
	escalationCategoryThreshold = 3
)

// EscalationNote is the fixed action text attached to auto-logged events.
const EscalationNote = "automatic escalation: sustained distress signals across the conversation"

// SessionInsights carries per-conversation signal counts into risk
// evaluation. Built per call by the caller; never shared process state.
type SessionInsights struct {
	TagCounts    map[string]int
	MessageCount int
}

func (si SessionInsights) count(tag string) int {
	if si.TagCounts == nil {
		return 0
	}
	return si.TagCounts[tag]
}

// EvaluateRisk derives the coarse risk level from the current message's
// state and accumulated session counts. Crisis always wins.
func EvaluateRisk(state types.EmotionalState, insights SessionInsights) string {
	if state.IsCrisis() {
		return types.RiskHigh
	}
	if insights.count(types.StateAnxiety) > sessionSignalThreshold ||
		insights.count(types.StateDepression) > sessionSignalThreshold {
		return types.RiskMedium
	}
	return types.RiskLow
}

// ShouldEscalate reports whether a medium-risk conversation has accumulated
// enough repeated signals to auto-log a moderate crisis event. This catches
// cumulative distress that never trips a single crisis keyword.
func ShouldEscalate(riskLevel string, insights SessionInsights) bool {
	if riskLevel != types.RiskMedium {
		return false
	}
	if insights.MessageCount <= escalationMinMessages {
		return false
	}
	for _, n := range insights.TagCounts {
		if n > escalationCategoryThreshold {
			return true
		}
	}
	return false
}
