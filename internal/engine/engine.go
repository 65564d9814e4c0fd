// Package engine ties the schedulers, the synthesizer and the preset store
// together behind the operations a control surface needs.
package engine

import (
	"sync"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/dimfu/clacktime/internal/audio"
	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/countdown"
	"github.com/dimfu/clacktime/internal/logger"
	"github.com/dimfu/clacktime/internal/preset"
	"github.com/dimfu/clacktime/internal/synth"
)

const DefaultVolume = 0.8

// Listener receives core events. Methods are called from scheduler
// goroutines with the scheduler locked, so they must return quickly and
// never call back into the engine.
type Listener interface {
	BeatFired(ev beat.Event)
	CountdownTick(remaining int)
	CountdownCompleted()
}

type Config struct {
	Beat             beat.Settings
	Volume           float64
	CountdownMinutes int
	// Clock drives both schedulers; nil means the real clock.
	Clock clock.WithTicker
}

// DefaultConfig is a 4/4 metronome at 120 bpm with a ten minute countdown.
func DefaultConfig() Config {
	return Config{
		Beat: beat.Settings{
			Tempo:           beat.DefaultTempo,
			BeatsPerMeasure: beat.DefaultBeatsPerMeasure,
			Profile:         synth.Metronome,
		},
		Volume:           DefaultVolume,
		CountdownMinutes: countdown.DefaultMinutes,
	}
}

type Status struct {
	Beat      beat.Status
	Countdown countdown.Status
	Volume    float64
}

type Engine struct {
	out       audio.Output
	volume    *synth.Level
	synth     *synth.Synth
	beat      *beat.Scheduler
	countdown *countdown.Timer
	store     preset.Store
	clock     clock.WithTicker

	mu        sync.RWMutex
	listeners []Listener

	// applying serializes ApplyPreset against Status snapshots
	applying sync.RWMutex
}

func New(out audio.Output, store preset.Store, cfg Config) *Engine {
	if store == nil {
		store = preset.NewMemoryStore()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}

	e := &Engine{
		out:    out,
		volume: synth.NewLevel(cfg.Volume),
		store:  store,
		clock:  cfg.Clock,
	}
	e.synth = synth.New(out, e.volume)
	e.beat = beat.New(out, e.synth,
		beat.WithClock(cfg.Clock),
		beat.WithSettings(cfg.Beat),
		beat.OnBeat(e.beatFired),
	)
	e.countdown = countdown.New(chimer{e},
		countdown.WithClock(cfg.Clock),
		countdown.WithMinutes(cfg.CountdownMinutes),
		countdown.OnTick(e.countdownTick),
		countdown.OnComplete(e.countdownCompleted),
	)
	return e
}

// Subscribe adds a listener for beat and countdown events.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *Engine) StartBeat() error {
	return e.beat.Start()
}

func (e *Engine) StopBeat() {
	e.beat.Stop()
}

func (e *Engine) ToggleBeat() error {
	return e.beat.Toggle()
}

func (e *Engine) SetTempo(bpm int) {
	e.beat.SetTempo(bpm)
}

func (e *Engine) SetBeatsPerMeasure(n int) {
	e.beat.SetBeatsPerMeasure(n)
}

func (e *Engine) SetSoundProfile(p synth.Profile) {
	e.beat.SetSoundProfile(p)
}

// SetVolume clamps v into [0, 1]; the next sound uses it.
func (e *Engine) SetVolume(v float64) {
	e.volume.Set(v)
}

func (e *Engine) StartCountdown() {
	e.countdown.Start()
}

func (e *Engine) PauseCountdown() {
	e.countdown.Pause()
}

func (e *Engine) ToggleCountdown() {
	e.countdown.Toggle()
}

// ResetCountdown refills an idle countdown and reports whether it did.
func (e *Engine) ResetCountdown() bool {
	return e.countdown.Reset()
}

// SetCountdownMinutes reports false when the countdown is running and the
// change was refused.
func (e *Engine) SetCountdownMinutes(m int) bool {
	return e.countdown.Configure(m)
}

// ApplyPreset sets tempo, measure, sound and volume, restarting a running
// beat at the new tempo. The countdown length changes only when the record
// carries one and the countdown is idle.
func (e *Engine) ApplyPreset(r preset.Record) {
	r = r.Normalize()

	e.applying.Lock()
	defer e.applying.Unlock()

	e.beat.Apply(r.BeatSettings(), func() { e.volume.Set(r.Volume) })
	if r.TimerMinutes != 0 && !e.countdown.Configure(r.TimerMinutes) {
		logger.GetProjectLogger().WithField("preset", r.Name).Debug("countdown running, preset timer ignored")
	}
}

// CurrentPreset captures the current parameters under name.
func (e *Engine) CurrentPreset(name string) preset.Record {
	st := e.Status()
	return preset.Record{
		Name:            name,
		BPM:             st.Beat.Tempo,
		BeatsPerMeasure: st.Beat.BeatsPerMeasure,
		SoundType:       st.Beat.Profile,
		Volume:          st.Volume,
		TimerMinutes:    st.Countdown.TotalSeconds / 60,
	}
}

// SavePreset appends the current parameters to the store. An empty name is
// replaced by one derived from the time of day.
func (e *Engine) SavePreset(name string) (preset.Record, error) {
	if name == "" {
		name = "Preset " + e.clock.Now().Format("15:04:05")
	}
	r := e.CurrentPreset(name)
	if err := e.store.Append(r); err != nil {
		return preset.Record{}, errors.Wrapf(err, "could not save preset %q", name)
	}
	return r, nil
}

func (e *Engine) Presets() ([]preset.Record, error) {
	records, err := e.store.List()
	if err != nil {
		return nil, errors.Wrap(err, "could not list presets")
	}
	return records, nil
}

func (e *Engine) DeletePreset(index int) error {
	if err := e.store.RemoveAt(index); err != nil {
		return errors.Wrap(err, "could not delete preset")
	}
	return nil
}

func (e *Engine) Status() Status {
	e.applying.RLock()
	defer e.applying.RUnlock()

	return Status{
		Beat:      e.beat.Status(),
		Countdown: e.countdown.Status(),
		Volume:    e.volume.Get(),
	}
}

// Close stops both schedulers.
func (e *Engine) Close() {
	e.beat.Stop()
	e.countdown.Stop()
}

func (e *Engine) each(fn func(Listener)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, l := range e.listeners {
		fn(l)
	}
}

func (e *Engine) beatFired(ev beat.Event) {
	e.each(func(l Listener) { l.BeatFired(ev) })
}

func (e *Engine) countdownTick(remaining int) {
	e.each(func(l Listener) { l.CountdownTick(remaining) })
}

func (e *Engine) countdownCompleted() {
	e.each(func(l Listener) { l.CountdownCompleted() })
}

// chimer resumes the output before the completion chime, which may be the
// first sound of the session.
type chimer struct {
	e *Engine
}

func (c chimer) Chime() {
	if c.e.out == nil {
		return
	}
	if err := c.e.out.Resume(); err != nil {
		logger.GetProjectLogger().WithError(err).Warn("countdown chime skipped")
		return
	}
	c.e.synth.Chime()
}
