package emotion

import (
	"strings"

	types "github.com/havenline/haven-backend/internal/domain"
)

// Crisis keywords short-circuit everything else. Substring match on the
// lowercased message; a single hit means the safety path runs with no
// dependency on any external service.
var crisisKeywords = []string{
	"suicide",
	"suicidal",
	"kill myself",
	"end my life",
	"want to die",
	"self harm",
	"self-harm",
	"hurt myself",
	"overdose",
	"no reason to live",
	"better off dead",
}

// Pattern categories, grouped by theme. A category contributes its tag when
// any of its phrases appears in the message.
var patternCategories = []struct {
	tag     string
	ptype   string
	phrases []string
}{
	// basic emotions
	{types.StateAnxiety, types.PatternTypeEmotion, []string{"anxious", "anxiety", "panic", "worried", "overwhelmed", "can't breathe", "on edge"}},
	{types.StateDepression, types.PatternTypeEmotion, []string{"depressed", "depression", "hopeless", "empty", "numb", "worthless", "can't get out of bed"}},
	{types.StateAnger, types.PatternTypeEmotion, []string{"angry", "furious", "rage", "fed up", "so mad"}},
	{types.StateGrief, types.PatternTypeEmotion, []string{"grief", "grieving", "passed away", "lost my", "miss them", "mourning"}},
	{types.StateHopeful, types.PatternTypeEmotion, []string{"hopeful", "better today", "looking forward", "improving", "proud of myself"}},

	// local/contextual stressors
	{types.StateFinancialStress, types.PatternTypeContext, []string{"rent", "bills", "debt", "can't afford", "paycheck", "evicted", "money problems"}},
	{types.StateHousingStress, types.PatternTypeContext, []string{"homeless", "housing", "shelter", "nowhere to stay", "couch surfing"}},
	{types.StateFamilyConflict, types.PatternTypeContext, []string{"my parents", "divorce", "custody", "family fight", "kicked out"}},
	{types.StateWorkStress, types.PatternTypeContext, []string{"my boss", "laid off", "fired", "overworked", "burnout", "job stress"}},

	// community/isolation signals
	{types.StateIsolation, types.PatternTypeContext, []string{"alone", "lonely", "no one to talk to", "isolated", "nobody cares"}},
	{types.StateCommunityNeed, types.PatternTypeContext, []string{"support group", "meet people", "make friends", "community"}},

	// resource-need signals
	{types.StateResourceSeeking, types.PatternTypeResource, []string{"therapist", "counselor", "counseling", "hotline", "food bank", "need help finding", "where can i get"}},
}

var intensifiers = []string{
	"very", "extremely", "really", "so ", "incredibly", "completely", "totally", "always", "never",
}

// Detect classifies a message into an emotional state. Pure and
// deterministic: identical input yields identical output.
func Detect(message string) types.EmotionalState {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return types.EmotionalState{State: []string{types.StateNeutral}}
	}

	for _, kw := range crisisKeywords {
		if strings.Contains(text, kw) {
			return types.EmotionalState{
				State:         []string{types.StateCrisis},
				RequiresAlert: true,
			}
		}
	}

	var tags []string
	for _, cat := range patternCategories {
		for _, phrase := range cat.phrases {
			if strings.Contains(text, phrase) {
				tags = append(tags, cat.tag)
				break
			}
		}
	}
	if len(tags) == 0 {
		tags = []string{types.StateNeutral}
	}

	return types.EmotionalState{
		State:     tags,
		Intensity: scoreIntensity(text),
	}
}

// PatternTypeFor maps a detected tag to the accumulator's pattern type.
// Unknown tags fall back to the emotion type.
func PatternTypeFor(tag string) string {
	for _, cat := range patternCategories {
		if cat.tag == tag {
			return cat.ptype
		}
	}
	return types.PatternTypeEmotion
}

func scoreIntensity(text string) string {
	score := 1
	for _, w := range intensifiers {
		if strings.Contains(text, w) {
			score++
		}
	}
	switch {
	case score >= 3:
		return types.IntensityHigh
	case score >= 2:
		return types.IntensityModerate
	default:
		return types.IntensityLow
	}
}
