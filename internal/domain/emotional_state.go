package domain

// Emotional state tags produced by the detector. The tag set is closed: a
// message either matches configured categories, is a crisis, or is neutral.
const (
	StateCrisis  = "crisis"
	StateNeutral = "neutral"

	StateAnxiety    = "anxiety"
	StateDepression = "depression"
	StateAnger      = "anger"
	StateGrief      = "grief"
	StateHopeful    = "hopeful"

	StateFinancialStress = "financial_stress"
	StateHousingStress   = "housing_stress"
	StateFamilyConflict  = "family_conflict"
	StateWorkStress      = "work_stress"

	StateIsolation       = "isolation"
	StateCommunityNeed   = "community_need"
	StateResourceSeeking = "resource_seeking"
)

const (
	IntensityLow      = "low"
	IntensityModerate = "moderate"
	IntensityHigh     = "high"
)

// EmotionalState is the detector's verdict for a single message. Produced
// fresh per message and never mutated afterwards.
type EmotionalState struct {
	State         []string `json:"state"`
	Intensity     string   `json:"intensity,omitempty"`
	RequiresAlert bool     `json:"requiresAlert"`
}

func (s EmotionalState) HasTag(tag string) bool {
	for _, t := range s.State {
		if t == tag {
			return true
		}
	}
	return false
}

func (s EmotionalState) IsCrisis() bool {
	return s.HasTag(StateCrisis)
}

// Trivial states (empty or neutral-only) do not feed the pattern accumulator.
func (s EmotionalState) IsTrivial() bool {
	if len(s.State) == 0 {
		return true
	}
	return len(s.State) == 1 && s.State[0] == StateNeutral
}
