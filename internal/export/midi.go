package export

import (
	"io"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/synth"
)

const (
	ticksPerBeat = 960
	noteTicks    = ticksPerBeat / 4

	// General MIDI routes channel 10 to the drum kit.
	percussionChannel = 9

	accentVelocity = 127
	normalVelocity = 85
)

// drumNotes maps a profile to its General MIDI percussion keys, downbeat
// first.
var drumNotes = map[synth.Profile][2]uint8{
	synth.Metronome: {34, 33}, // metronome bell, metronome click
	synth.Cowbell:   {56, 56},
	synth.Woodblock: {76, 77}, // hi, low wood block
	synth.Clap:      {39, 39},
}

// DrumNote returns the percussion key for a beat.
func DrumNote(p synth.Profile, accent bool) uint8 {
	notes, ok := drumNotes[p]
	if !ok {
		notes = drumNotes[synth.Metronome]
	}
	if accent {
		return notes[0]
	}
	return notes[1]
}

// MIDI writes a single track Standard MIDI File with tempo, meter and one
// percussion note per beat.
func MIDI(w io.Writer, opts Options) error {
	opts = opts.normalize()

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerBeat)

	var track smf.Track
	track.Add(0, smf.MetaMeter(uint8(opts.BeatsPerMeasure), uint8(opts.NoteValue)))
	track.Add(0, smf.MetaTempo(float64(opts.Tempo)))

	var delta uint32
	for _, b := range beat.Pattern(opts.BeatsPerMeasure, opts.Beats()) {
		accent := b == 1
		key := DrumNote(opts.Profile, accent)
		velocity := uint8(normalVelocity)
		if accent {
			velocity = accentVelocity
		}
		track.Add(delta, midi.NoteOn(percussionChannel, key, velocity))
		track.Add(noteTicks, midi.NoteOff(percussionChannel, key))
		delta = ticksPerBeat - noteTicks
	}
	track.Close(delta)

	if err := s.Add(track); err != nil {
		return errors.Wrap(err, "error while adding midi track")
	}
	if _, err := s.WriteTo(w); err != nil {
		return errors.Wrap(err, "error while writing midi")
	}
	return nil
}
