package emotion

import (
	"reflect"
	"testing"

	types "github.com/havenline/haven-backend/internal/domain"
)

func TestDetectCrisisTakesPrecedence(t *testing.T) {
	cases := []struct {
		name string
		msg  string
	}{
		{name: "plain_keyword", msg: "I want to kill myself"},
		{name: "uppercase", msg: "I WANT TO KILL MYSELF"},
		{name: "embedded", msg: "lately I've been thinking about suicide a lot"},
		{name: "crisis_plus_other_patterns", msg: "I'm so anxious about rent that I think about self harm"},
		{name: "hyphenated", msg: "struggling with self-harm again"},
		{name: "overdose", msg: "I took an overdose once before"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.msg)
			if !reflect.DeepEqual(got.State, []string{types.StateCrisis}) {
				t.Fatalf("Detect(%q).State=%v, want [crisis]", tc.msg, got.State)
			}
			if !got.RequiresAlert {
				t.Fatalf("Detect(%q).RequiresAlert=false, want true", tc.msg)
			}
			if got.Intensity != "" {
				t.Fatalf("Detect(%q).Intensity=%q, want empty on crisis path", tc.msg, got.Intensity)
			}
		})
	}
}

func TestDetectNeutralDefault(t *testing.T) {
	cases := []struct {
		name string
		msg  string
	}{
		{name: "empty", msg: ""},
		{name: "whitespace", msg: "   "},
		{name: "no_match", msg: "the weather was fine on my walk"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.msg)
			if !reflect.DeepEqual(got.State, []string{types.StateNeutral}) {
				t.Fatalf("Detect(%q).State=%v, want [neutral]", tc.msg, got.State)
			}
			if got.RequiresAlert {
				t.Fatalf("Detect(%q).RequiresAlert=true, want false", tc.msg)
			}
		})
	}
}

func TestDetectCategories(t *testing.T) {
	cases := []struct {
		name     string
		msg      string
		wantTags []string
	}{
		{
			name:     "single_emotion",
			msg:      "I've been feeling depressed all week",
			wantTags: []string{types.StateDepression},
		},
		{
			name:     "emotion_plus_stressor",
			msg:      "I'm worried because I can't afford rent this month",
			wantTags: []string{types.StateAnxiety, types.StateFinancialStress},
		},
		{
			name:     "isolation",
			msg:      "I feel alone, there's no one to talk to",
			wantTags: []string{types.StateIsolation},
		},
		{
			name:     "resource_seeking",
			msg:      "do you know where can i get a therapist",
			wantTags: []string{types.StateResourceSeeking},
		},
		{
			name:     "positive",
			msg:      "actually feeling hopeful and looking forward to tomorrow",
			wantTags: []string{types.StateHopeful},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.msg)
			if !reflect.DeepEqual(got.State, tc.wantTags) {
				t.Fatalf("Detect(%q).State=%v, want %v", tc.msg, got.State, tc.wantTags)
			}
			if got.RequiresAlert {
				t.Fatalf("Detect(%q).RequiresAlert=true, want false", tc.msg)
			}
		})
	}
}

func TestDetectIntensity(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want string
	}{
		{name: "base", msg: "feeling anxious", want: types.IntensityLow},
		{name: "one_intensifier", msg: "feeling very anxious", want: types.IntensityModerate},
		{name: "two_intensifiers", msg: "feeling very anxious, really panicking", want: types.IntensityHigh},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.msg)
			if got.Intensity != tc.want {
				t.Fatalf("Detect(%q).Intensity=%q, want %q", tc.msg, got.Intensity, tc.want)
			}
		})
	}
}

func TestDetectDeterministic(t *testing.T) {
	msg := "I'm very anxious about my boss and feel alone"
	first := Detect(msg)
	for i := 0; i < 10; i++ {
		if !reflect.DeepEqual(Detect(msg), first) {
			t.Fatalf("Detect is not deterministic for %q", msg)
		}
	}
}

func TestPatternTypeFor(t *testing.T) {
	if got := PatternTypeFor(types.StateAnxiety); got != types.PatternTypeEmotion {
		t.Fatalf("PatternTypeFor(anxiety)=%q", got)
	}
	if got := PatternTypeFor(types.StateFinancialStress); got != types.PatternTypeContext {
		t.Fatalf("PatternTypeFor(financial_stress)=%q", got)
	}
	if got := PatternTypeFor(types.StateResourceSeeking); got != types.PatternTypeResource {
		t.Fatalf("PatternTypeFor(resource_seeking)=%q", got)
	}
	if got := PatternTypeFor("unknown_tag"); got != types.PatternTypeEmotion {
		t.Fatalf("PatternTypeFor(unknown)=%q", got)
	}
}
