package synth

import (
	"math"
	"sync/atomic"

	"github.com/faiface/beep"

	"github.com/dimfu/clacktime/internal/audio"
	"github.com/dimfu/clacktime/internal/logger"
)

// Level is a volume in [0, 1] shared between the control surface and the
// synthesizer.
type Level struct {
	bits atomic.Uint64
}

func NewLevel(v float64) *Level {
	l := &Level{}
	l.Set(v)
	return l
}

// Set clamps v into [0, 1].
func (l *Level) Set(v float64) {
	l.bits.Store(math.Float64bits(clampUnit(v)))
}

func (l *Level) Get() float64 {
	return math.Float64frombits(l.bits.Load())
}

// Synth plays beats and the completion chime on an output.
type Synth struct {
	out    audio.Output
	volume *Level
}

func New(out audio.Output, volume *Level) *Synth {
	if volume == nil {
		volume = NewLevel(1)
	}
	return &Synth{out: out, volume: volume}
}

// Beat plays one beat. It does nothing when the output is not ready.
func (s *Synth) Beat(p Profile, accent bool) {
	s.play(func(sr beep.SampleRate) beep.Streamer {
		return Voice(NewRequest(p, accent, s.volume.Get()), sr)
	})
}

// Chime plays the three completion tones as one batch.
func (s *Synth) Chime() {
	s.play(func(sr beep.SampleRate) beep.Streamer {
		return Chime(s.volume.Get(), sr)
	})
}

func (s *Synth) play(build func(beep.SampleRate) beep.Streamer) {
	if s.out == nil || !s.out.Ready() {
		return
	}
	// a lost sound must never take down the tick that asked for it
	defer func() {
		if r := recover(); r != nil {
			logger.GetProjectLogger().Errorf("sound dropped: %v", r)
		}
	}()
	s.out.Play(build(s.out.SampleRate()))
}
