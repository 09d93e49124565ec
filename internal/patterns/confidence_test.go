package patterns

import (
	"testing"
	"time"
)

func TestScoreIdempotent(t *testing.T) {
	a := Score(2, 36*time.Hour)
	b := Score(2, 36*time.Hour)
	if a != b {
		t.Fatalf("Score not idempotent: %v vs %v", a, b)
	}
}

func TestScoreValues(t *testing.T) {
	cases := []struct {
		name        string
		occurrences int
		elapsed     time.Duration
		want        float64
	}{
		{name: "first_sighting", occurrences: 1, elapsed: 0, want: 33.33},
		{name: "second_sighting_fresh", occurrences: 2, elapsed: 0, want: 66.67},
		{name: "threshold_fresh", occurrences: 3, elapsed: 0, want: 100},
		{name: "capped_above_threshold", occurrences: 10, elapsed: 0, want: 100},
		{name: "half_window", occurrences: 3, elapsed: RecencyWindow / 2, want: 50},
		{name: "window_expired", occurrences: 3, elapsed: RecencyWindow, want: 0},
		{name: "past_window", occurrences: 10, elapsed: 8 * 24 * time.Hour, want: 0},
		{name: "zero_occurrences", occurrences: 0, elapsed: 0, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.occurrences, tc.elapsed)
			if got != tc.want {
				t.Fatalf("Score(%d, %v)=%v, want %v", tc.occurrences, tc.elapsed, got, tc.want)
			}
		})
	}
}

func TestScoreDecaysWithElapsedTime(t *testing.T) {
	prev := Score(3, 0)
	for _, elapsed := range []time.Duration{
		12 * time.Hour,
		24 * time.Hour,
		3 * 24 * time.Hour,
		6 * 24 * time.Hour,
	} {
		got := Score(3, elapsed)
		if got >= prev {
			t.Fatalf("Score(3, %v)=%v not below previous %v", elapsed, got, prev)
		}
		prev = got
	}
}

func TestScoreIncreasesWithOccurrences(t *testing.T) {
	elapsed := 24 * time.Hour
	prev := Score(1, elapsed)
	for occ := 2; occ <= 3; occ++ {
		got := Score(occ, elapsed)
		if got <= prev {
			t.Fatalf("Score(%d, %v)=%v not above previous %v", occ, elapsed, got, prev)
		}
		prev = got
	}
	// Saturates at the threshold.
	if Score(4, elapsed) != Score(3, elapsed) {
		t.Fatalf("expected cap at occurrence threshold")
	}
}

func TestInitialScoreMatchesFormula(t *testing.T) {
	if InitialScore() != Score(1, 0) {
		t.Fatalf("InitialScore must use the uniform formula")
	}
}
