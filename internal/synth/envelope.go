package synth

import (
	"math"
	"time"
)

// envelopeFloor is the level an exponential decay ramps down to. A quieter
// peak decays to a thousandth of itself instead.
const envelopeFloor = 0.001

// Envelope is a linear attack followed by an exponential decay.
type Envelope struct {
	Attack time.Duration
	End    time.Duration
	Peak   float64
}

// At returns the gain at offset t from the start of the sound.
func (e Envelope) At(t time.Duration) float64 {
	if t < 0 || t > e.End || e.Peak <= 0 {
		return 0
	}
	if t < e.Attack {
		return e.Peak * float64(t) / float64(e.Attack)
	}
	if e.End <= e.Attack {
		return e.Peak
	}
	floor := envelopeFloor
	if e.Peak <= envelopeFloor {
		floor = e.Peak * envelopeFloor
	}
	progress := float64(t-e.Attack) / float64(e.End-e.Attack)
	return e.Peak * math.Pow(floor/e.Peak, progress)
}
