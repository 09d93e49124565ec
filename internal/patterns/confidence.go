package patterns

import (
	"math"
	"time"
)

const (
	// OccurrenceThreshold is how many sightings reach full raw confidence.
	OccurrenceThreshold = 3
	// RecencyWindow is how long a pattern stays significant after its first
	// sighting without reinforcement.
	RecencyWindow = 7 * 24 * time.Hour

	// MinSignificantConfidence gates retrieval: below this a pattern no
	// longer "matters now".
	MinSignificantConfidence = 50.0
)

// Score computes the confidence (0-100, two decimal places) for a pattern
// with the given occurrence count and elapsed time since first detection.
// Raw confidence saturates at the occurrence threshold; recency decays
// linearly to zero across the window, so an old pattern loses significance
// even if its count is high. Recency beats raw frequency here.
func Score(occurrences int, elapsed time.Duration) float64 {
	if occurrences < 1 {
		return 0
	}
	raw := math.Min(float64(occurrences)/float64(OccurrenceThreshold)*100, 100)
	recency := math.Max(0, 1-elapsed.Seconds()/RecencyWindow.Seconds())
	return math.Round(raw*recency*100) / 100
}

// InitialScore seeds a freshly inserted pattern. Same formula as every later
// update, evaluated at one occurrence and zero elapsed time.
func InitialScore() float64 {
	return Score(1, 0)
}
