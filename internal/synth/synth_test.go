package synth

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimfu/clacktime/internal/audio"
)

const rate = beep.SampleRate(44100)

func peak(samples [][2]float64) float64 {
	max := 0.0
	for _, s := range samples {
		max = math.Max(max, math.Abs(s[0]))
	}
	return max
}

func TestAccentAmplitude(t *testing.T) {
	t.Parallel()

	for _, p := range Profiles {
		for _, volume := range []float64{0, 0.25, 0.5, 0.8, 1} {
			normal := NewRequest(p, false, volume)
			accented := NewRequest(p, true, volume)
			assert.Equal(t, normal.Amplitude()*AccentFactor, accented.Amplitude(), "%v at %v", p, volume)
		}
	}
}

func TestRequestRecipes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		profile   Profile
		accent    bool
		noise     bool
		frequency float64
		length    time.Duration
		decay     time.Duration
		amplitude float64
	}{
		{Metronome, true, false, 880, 60 * time.Millisecond, 60 * time.Millisecond, 0.75},
		{Metronome, false, false, 440, 60 * time.Millisecond, 60 * time.Millisecond, 0.5},
		{Cowbell, true, false, 800, 80 * time.Millisecond, 80 * time.Millisecond, 0.75},
		{Cowbell, false, false, 600, 80 * time.Millisecond, 80 * time.Millisecond, 0.5},
		{Woodblock, true, false, 1000, 70 * time.Millisecond, 70 * time.Millisecond, 0.75},
		{Woodblock, false, false, 800, 70 * time.Millisecond, 70 * time.Millisecond, 0.5},
		{Clap, false, true, 0, 100 * time.Millisecond, 150 * time.Millisecond, 0.4},
	}

	for _, tc := range testCases {
		req := NewRequest(tc.profile, tc.accent, 0.5)
		assert.Equal(t, tc.noise, req.Noise, tc.profile.String())
		assert.Equal(t, tc.frequency, req.Frequency, tc.profile.String())
		assert.Equal(t, tc.length, req.Length, tc.profile.String())
		assert.Equal(t, tc.decay, req.Envelope.End, tc.profile.String())
		assert.Equal(t, time.Millisecond, req.Envelope.Attack, tc.profile.String())
		assert.InDelta(t, tc.amplitude, req.Amplitude(), 1e-12, tc.profile.String())
	}
}

func TestRequestClampsVolume(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, NewRequest(Metronome, false, 3).Amplitude())
	assert.Equal(t, 0.0, NewRequest(Metronome, false, -1).Amplitude())
	assert.Equal(t, 0.0, NewRequest(Metronome, false, math.NaN()).Amplitude())
}

func TestEnvelope(t *testing.T) {
	t.Parallel()

	env := Envelope{Attack: time.Millisecond, End: 61 * time.Millisecond, Peak: 0.5}

	assert.Equal(t, 0.0, env.At(0))
	assert.InDelta(t, 0.25, env.At(500*time.Microsecond), 1e-9)
	assert.InDelta(t, 0.5, env.At(time.Millisecond), 1e-9)
	assert.InDelta(t, envelopeFloor, env.At(61*time.Millisecond), 1e-9)
	assert.Equal(t, 0.0, env.At(62*time.Millisecond))

	// strictly decaying after the attack
	prev := env.At(time.Millisecond)
	for ms := 2; ms <= 61; ms++ {
		cur := env.At(time.Duration(ms) * time.Millisecond)
		assert.Less(t, cur, prev)
		prev = cur
	}

	assert.Equal(t, 0.0, Envelope{Attack: time.Millisecond, End: time.Second}.At(10*time.Millisecond))
}

func TestQuietEnvelopeStillDecays(t *testing.T) {
	t.Parallel()

	env := NewRequest(Metronome, false, 0.0004).Envelope
	require.Less(t, env.Peak, envelopeFloor)

	assert.InDelta(t, env.Peak, env.At(env.Attack), 1e-12)
	prev := env.At(env.Attack)
	for d := env.Attack + time.Millisecond; d <= env.End; d += time.Millisecond {
		cur := env.At(d)
		assert.Less(t, cur, prev, "at %v", d)
		assert.LessOrEqual(t, cur, env.Peak)
		prev = cur
	}
	assert.InDelta(t, env.Peak*envelopeFloor, env.At(env.End), 1e-12)
}

func TestVoiceLengthAndPeak(t *testing.T) {
	t.Parallel()

	req := NewRequest(Woodblock, true, 0.6)
	samples := audio.Collect(Voice(req, rate))

	require.Len(t, samples, rate.N(70*time.Millisecond))
	assert.LessOrEqual(t, peak(samples), req.Amplitude()+1e-9)
	assert.Greater(t, peak(samples), req.Amplitude()*0.5)
	assert.Equal(t, samples[10][0], samples[10][1])
	assert.Equal(t, 0.0, samples[0][0])
}

func TestVoicesAreIndependent(t *testing.T) {
	t.Parallel()

	req := NewRequest(Metronome, false, 1)
	a := Voice(req, rate)
	b := Voice(req, rate)

	// interleaving two voices must not disturb either one
	first := make([][2]float64, 100)
	a.Stream(first)
	second := make([][2]float64, 100)
	b.Stream(second)
	assert.Equal(t, first, second)
}

func TestClapIsHighPassedNoise(t *testing.T) {
	t.Parallel()

	req := NewRequest(Clap, false, 1)
	samples := audio.Collect(Voice(req, rate))
	require.Len(t, samples, rate.N(100*time.Millisecond))
	assert.Greater(t, peak(samples), 0.0)

	// a constant input must be removed by the filter
	hp := newHighPass(clapCutoff, clapQ, float64(rate))
	var out float64
	for i := 0; i < 4000; i++ {
		out = hp.process(1)
	}
	assert.InDelta(t, 0, out, 1e-6)
}

func TestChime(t *testing.T) {
	t.Parallel()

	reqs := ChimeRequests(0.5)
	require.Len(t, reqs, 3)
	assert.Equal(t, 800.0, reqs[0].Frequency)
	assert.Equal(t, 1000.0, reqs[1].Frequency)
	assert.Equal(t, 1200.0, reqs[2].Frequency)
	for _, r := range reqs {
		assert.InDelta(t, 0.4, r.Amplitude(), 1e-12)
		assert.Equal(t, 50*time.Millisecond, r.Envelope.Attack)
		assert.Equal(t, 300*time.Millisecond, r.Length)
	}

	samples := audio.Collect(Chime(0.5, rate))
	require.Len(t, samples, 3*rate.N(300*time.Millisecond))

	// each tone starts from silence exactly 300 ms after the previous one
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, samples[i*rate.N(300*time.Millisecond)][0])
	}
}

func TestSynthPlaysOnlyWhenReady(t *testing.T) {
	t.Parallel()

	rec := audio.NewRecorder(rate)
	s := New(rec, NewLevel(0.5))

	s.Beat(Cowbell, true)
	s.Chime()
	assert.Empty(t, rec.Played())

	require.NoError(t, rec.Resume())
	s.Beat(Cowbell, true)
	s.Chime()
	assert.Len(t, rec.Played(), 2)

	// the shared volume is read at call time
	samples := audio.Collect(rec.Played()[0])
	assert.LessOrEqual(t, peak(samples), 0.75+1e-9)
}

func TestSynthSurvivesBrokenOutput(t *testing.T) {
	t.Parallel()

	s := New(panicky{}, nil)
	assert.NotPanics(t, func() { s.Beat(Metronome, false) })
}

type panicky struct{}

func (panicky) Resume() error               { return nil }
func (panicky) Ready() bool                 { return true }
func (panicky) Play(beep.Streamer)          { panic("device gone") }
func (panicky) SampleRate() beep.SampleRate { return rate }

func TestLevel(t *testing.T) {
	t.Parallel()

	l := NewLevel(0.3)
	assert.Equal(t, 0.3, l.Get())
	l.Set(7)
	assert.Equal(t, 1.0, l.Get())
	l.Set(-2)
	assert.Equal(t, 0.0, l.Get())
}

func TestProfileText(t *testing.T) {
	t.Parallel()

	for _, p := range Profiles {
		parsed, err := ParseProfile(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	p, err := ParseProfile(" CowBell ")
	require.NoError(t, err)
	assert.Equal(t, Cowbell, p)

	_, err = ParseProfile("gong")
	assert.True(t, errors.Is(err, ErrUnknownProfile))

	var decoded struct {
		Sound Profile `json:"soundType"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"soundType":"clap"}`), &decoded))
	assert.Equal(t, Clap, decoded.Sound)

	data, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"soundType":"clap"}`, string(data))

	assert.Equal(t, Metronome, Clap.Next())
	assert.Equal(t, Cowbell, Metronome.Next())
}
