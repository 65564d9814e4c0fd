package synth

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
)

const (
	clapCutoff = 2000.0
	clapQ      = math.Sqrt2 / 2

	chimeSpacing = 300 * time.Millisecond
	chimeAttack  = 50 * time.Millisecond
	chimeGain    = 0.8
)

var chimeNotes = []float64{800, 1000, 1200}

// Request is one fully resolved sound: what to generate and how loud.
type Request struct {
	Profile   Profile
	Accent    bool
	Noise     bool
	Frequency float64
	Envelope  Envelope
	Length    time.Duration
}

// Amplitude is the peak gain the envelope ramps up to.
func (r Request) Amplitude() float64 {
	return r.Envelope.Peak
}

// NewRequest resolves a profile, accent flag and volume into a Request.
func NewRequest(p Profile, accent bool, volume float64) Request {
	rec := p.recipe()

	amp := clampUnit(volume) * rec.gain
	freq := rec.freq
	if accent {
		amp *= AccentFactor
		freq = rec.accentFreq
	}

	return Request{
		Profile:   p,
		Accent:    accent,
		Noise:     rec.source == noise,
		Frequency: freq,
		Envelope:  Envelope{Attack: rec.attack, End: rec.decay, Peak: amp},
		Length:    rec.length,
	}
}

// ChimeRequests returns the three ascending completion tones.
func ChimeRequests(volume float64) []Request {
	reqs := make([]Request, 0, len(chimeNotes))
	for _, freq := range chimeNotes {
		reqs = append(reqs, Request{
			Frequency: freq,
			Envelope:  Envelope{Attack: chimeAttack, End: chimeSpacing, Peak: clampUnit(volume) * chimeGain},
			Length:    chimeSpacing,
		})
	}
	return reqs
}

// Voice builds an independent streamer for a request. Every call allocates its
// own oscillator, noise source and filter.
func Voice(req Request, sr beep.SampleRate) beep.Streamer {
	v := &voice{
		env:   req.Envelope,
		sr:    sr,
		total: sr.N(req.Length),
		step:  req.Frequency / float64(sr),
	}
	if req.Noise {
		v.rng = rand.New(rand.NewSource(nextSeed()))
		v.hp = newHighPass(clapCutoff, clapQ, float64(sr))
	}
	return v
}

// Chime sequences the completion tones into one streamer, each starting
// chimeSpacing after the previous one.
func Chime(volume float64, sr beep.SampleRate) beep.Streamer {
	reqs := ChimeRequests(volume)
	streamers := make([]beep.Streamer, 0, len(reqs))
	for _, req := range reqs {
		streamers = append(streamers, Voice(req, sr))
	}
	return beep.Seq(streamers...)
}

type voice struct {
	env   Envelope
	sr    beep.SampleRate
	pos   int
	total int
	phase float64
	step  float64
	rng   *rand.Rand
	hp    *biquad
}

func (v *voice) Stream(samples [][2]float64) (n int, ok bool) {
	if v.pos >= v.total {
		return 0, false
	}
	for i := range samples {
		if v.pos >= v.total {
			break
		}
		s := v.next() * v.env.At(v.sr.D(v.pos))
		samples[i][0] = s
		samples[i][1] = s
		v.pos++
		n++
	}
	return n, true
}

func (v *voice) Err() error {
	return nil
}

func (v *voice) next() float64 {
	if v.rng != nil {
		return v.hp.process(v.rng.Float64()*2 - 1)
	}
	s := math.Sin(2 * math.Pi * v.phase)
	v.phase += v.step
	if v.phase >= 1 {
		v.phase--
	}
	return s
}

var seed atomic.Int64

func init() {
	seed.Store(time.Now().UnixNano())
}

func nextSeed() int64 {
	return seed.Add(1)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
