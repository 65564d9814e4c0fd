package beat

import "time"

const (
	MinTempo     = 40
	MaxTempo     = 208
	DefaultTempo = 120

	DefaultBeatsPerMeasure = 4
)

// SupportedMeasures lists the measure lengths a scheduler accepts, ascending.
var SupportedMeasures = []int{1, 2, 3, 4, 5, 6, 7, 9, 12}

// ClampTempo forces bpm into [MinTempo, MaxTempo].
func ClampTempo(bpm int) int {
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return bpm
}

// ClampMeasure returns the supported measure length nearest to n. Ties go to
// the shorter measure.
func ClampMeasure(n int) int {
	best := SupportedMeasures[0]
	for _, m := range SupportedMeasures[1:] {
		if abs(m-n) < abs(best-n) {
			best = m
		}
	}
	return best
}

// Period is the time between two beats at bpm.
func Period(bpm int) time.Duration {
	return time.Minute / time.Duration(ClampTempo(bpm))
}

// Next returns the beat that follows current in a measure of n beats.
func Next(current, n int) int {
	if n < 1 {
		return 1
	}
	return current%n + 1
}

// Pattern returns the first count beat indices of a measure of n beats,
// starting on the downbeat.
func Pattern(n, count int) []int {
	beats := make([]int, 0, count)
	current := 1
	for i := 0; i < count; i++ {
		beats = append(beats, current)
		current = Next(current, n)
	}
	return beats
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
