// Package export renders click tracks to files instead of the speaker.
package export

import (
	"github.com/faiface/beep"

	"github.com/dimfu/clacktime/internal/audio"
	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/synth"
)

const DefaultMeasures = 8

type Options struct {
	Tempo           int
	BeatsPerMeasure int
	// NoteValue is the time signature denominator written to MIDI files.
	NoteValue  int
	Profile    synth.Profile
	Volume     float64
	Measures   int
	SampleRate beep.SampleRate
}

func (o Options) normalize() Options {
	o.Tempo = beat.ClampTempo(o.Tempo)
	o.BeatsPerMeasure = beat.ClampMeasure(o.BeatsPerMeasure)
	if o.NoteValue <= 0 {
		o.NoteValue = 4
	}
	if o.Measures <= 0 {
		o.Measures = DefaultMeasures
	}
	if o.SampleRate <= 0 {
		o.SampleRate = audio.DefaultSampleRate
	}
	return o
}

// Beats is the number of clicks the options describe.
func (o Options) Beats() int {
	o = o.normalize()
	return o.Measures * o.BeatsPerMeasure
}
