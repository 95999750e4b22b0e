// Package duplicate drops near-identical chat messages before they reach the prompt.
package duplicate

import (
	"log/slog"
)

// DefaultThreshold is the similarity above which a later message counts as a repeat.
const DefaultThreshold = 0.8

// Detector filters repeated messages out of a channel history.
type Detector struct {
	threshold float64
}

// NewDetector creates a Detector. A threshold outside (0, 1] falls back to DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// Threshold returns the configured similarity threshold.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Filter returns the indexes of messages to keep, in their original order,
// and the number removed. For every pair i < j whose similarity exceeds the
// threshold, j is dropped. A dropped message still eliminates later repeats of itself.
func (d *Detector) Filter(messages []string) (kept []int, removed int) {
	return Filter(messages, d.threshold)
}

// Filter is Detector.Filter with an explicit threshold.
func Filter(messages []string, threshold float64) (kept []int, removed int) {
	drop := make([]bool, len(messages))
	runes := make([][]string, len(messages))
	for i, m := range messages {
		runes[i] = splitRunes(m)
	}

	for i := range messages {
		for j := i + 1; j < len(messages); j++ {
			if drop[j] {
				continue
			}
			if ratio(runes[i], runes[j]) > threshold {
				drop[j] = true
			}
		}
	}

	kept = make([]int, 0, len(messages))
	for i, d := range drop {
		if d {
			removed++
			continue
		}
		kept = append(kept, i)
	}

	if removed > 0 {
		slog.Debug("filtered repeated messages", "removed", removed, "total", len(messages))
	}
	return kept, removed
}
