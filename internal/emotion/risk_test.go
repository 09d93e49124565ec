package emotion

import (
	"testing"

	types "github.com/havenline/haven-backend/internal/domain"
)

func TestEvaluateRisk(t *testing.T) {
	cases := []struct {
		name     string
		state    types.EmotionalState
		insights SessionInsights
		want     string
	}{
		{
			name:  "crisis_is_high",
			state: types.EmotionalState{State: []string{types.StateCrisis}, RequiresAlert: true},
			want:  types.RiskHigh,
		},
		{
			name:  "crisis_wins_over_counts",
			state: types.EmotionalState{State: []string{types.StateCrisis}, RequiresAlert: true},
			insights: SessionInsights{TagCounts: map[string]int{
				types.StateAnxiety: 10,
			}},
			want: types.RiskHigh,
		},
		{
			name:  "repeated_anxiety_is_medium",
			state: types.EmotionalState{State: []string{types.StateAnxiety}},
			insights: SessionInsights{TagCounts: map[string]int{
				types.StateAnxiety: 3,
			}},
			want: types.RiskMedium,
		},
		{
			name:  "repeated_depression_is_medium",
			state: types.EmotionalState{State: []string{types.StateDepression}},
			insights: SessionInsights{TagCounts: map[string]int{
				types.StateDepression: 3,
			}},
			want: types.RiskMedium,
		},
		{
			name:  "at_threshold_is_low",
			state: types.EmotionalState{State: []string{types.StateAnxiety}},
			insights: SessionInsights{TagCounts: map[string]int{
				types.StateAnxiety:    2,
				types.StateDepression: 2,
			}},
			want: types.RiskLow,
		},
		{
			name:  "neutral_is_low",
			state: types.EmotionalState{State: []string{types.StateNeutral}},
			want:  types.RiskLow,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateRisk(tc.state, tc.insights)
			if got != tc.want {
				t.Fatalf("EvaluateRisk=%q, want %q", got, tc.want)
			}
		})
	}
}

func TestShouldEscalate(t *testing.T) {
	heavy := SessionInsights{
		MessageCount: 6,
		TagCounts: map[string]int{
			types.StateAnxiety: 4,
		},
	}

	cases := []struct {
		name     string
		risk     string
		insights SessionInsights
		want     bool
	}{
		{name: "medium_heavy_session", risk: types.RiskMedium, insights: heavy, want: true},
		{name: "low_never_escalates", risk: types.RiskLow, insights: heavy, want: false},
		{name: "high_handled_by_crisis_path", risk: types.RiskHigh, insights: heavy, want: false},
		{
			name: "too_few_messages",
			risk: types.RiskMedium,
			insights: SessionInsights{
				MessageCount: 3,
				TagCounts:    map[string]int{types.StateAnxiety: 4},
			},
			want: false,
		},
		{
			name: "counts_below_escalation_threshold",
			risk: types.RiskMedium,
			insights: SessionInsights{
				MessageCount: 6,
				TagCounts:    map[string]int{types.StateAnxiety: 3},
			},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ShouldEscalate(tc.risk, tc.insights)
			if got != tc.want {
				t.Fatalf("ShouldEscalate(%q)=%v, want %v", tc.risk, got, tc.want)
			}
		})
	}
}
