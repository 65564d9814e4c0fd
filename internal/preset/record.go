// Package preset stores named sets of metronome parameters.
package preset

import (
	"encoding/json"
	"math"

	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/countdown"
	"github.com/dimfu/clacktime/internal/synth"
)

// Record is one saved parameter set. TimerMinutes is optional; zero leaves
// the countdown untouched when the record is applied.
type Record struct {
	Name            string        `json:"name"`
	BPM             int           `json:"bpm"`
	BeatsPerMeasure int           `json:"beatsPerMeasure"`
	SoundType       synth.Profile `json:"soundType"`
	Volume          float64       `json:"volume"`
	TimerMinutes    int           `json:"timerMinutes,omitempty"`
}

// Normalize clamps every field into the range the schedulers accept.
func (r Record) Normalize() Record {
	r.BPM = beat.ClampTempo(r.BPM)
	r.BeatsPerMeasure = beat.ClampMeasure(r.BeatsPerMeasure)
	if r.Volume < 0 || math.IsNaN(r.Volume) {
		r.Volume = 0
	}
	if r.Volume > 1 {
		r.Volume = 1
	}
	if r.TimerMinutes != 0 {
		r.TimerMinutes = countdown.ClampMinutes(r.TimerMinutes)
	}
	return r
}

// BeatSettings is the part of the record the beat scheduler applies.
func (r Record) BeatSettings() beat.Settings {
	return beat.Settings{
		Tempo:           r.BPM,
		BeatsPerMeasure: r.BeatsPerMeasure,
		Profile:         r.SoundType,
	}
}

// UnmarshalJSON reads an unknown sound type as the metronome click.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var raw struct {
		plain
		SoundType string `json:"soundType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record(raw.plain)
	if p, err := synth.ParseProfile(raw.SoundType); err == nil {
		r.SoundType = p
	} else {
		r.SoundType = synth.Metronome
	}
	return nil
}
