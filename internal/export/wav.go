package export

import (
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"

	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/synth"
)

// Render lays the clicks out at exact sample offsets: every beat is its voice
// padded with silence to one period.
func Render(opts Options) beep.Streamer {
	opts = opts.normalize()
	period := opts.SampleRate.N(beat.Period(opts.Tempo))

	segments := make([]beep.Streamer, 0, opts.Beats())
	for _, b := range beat.Pattern(opts.BeatsPerMeasure, opts.Beats()) {
		req := synth.NewRequest(opts.Profile, b == 1, opts.Volume)
		voice := beep.Seq(synth.Voice(req, opts.SampleRate), beep.Silence(-1))
		segments = append(segments, beep.Take(period, voice))
	}
	return beep.Seq(segments...)
}

// Frames is the length of Render(opts) in samples.
func Frames(opts Options) int {
	opts = opts.normalize()
	return opts.Beats() * opts.SampleRate.N(beat.Period(opts.Tempo))
}

// WAV encodes the rendered click track as 16-bit stereo.
func WAV(w io.WriteSeeker, opts Options) error {
	opts = opts.normalize()
	format := beep.Format{
		SampleRate:  opts.SampleRate,
		NumChannels: 2,
		Precision:   2,
	}
	if err := wav.Encode(w, Render(opts), format); err != nil {
		return errors.Wrap(err, "error while encoding wav")
	}
	return nil
}
