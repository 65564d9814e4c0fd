// Package beat schedules the periodic clicks of the metronome.
package beat

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/dimfu/clacktime/internal/audio"
	"github.com/dimfu/clacktime/internal/logger"
	"github.com/dimfu/clacktime/internal/synth"
)

type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Backend is the audio output a scheduler resumes before it starts.
type Backend interface {
	Resume() error
}

// Sounder makes a beat audible.
type Sounder interface {
	Beat(p synth.Profile, accent bool)
}

// Event describes one fired beat.
type Event struct {
	Beat            int
	Accent          bool
	BeatsPerMeasure int
	At              time.Time
}

// Settings is the part of a scheduler's configuration a preset can replace.
type Settings struct {
	Tempo           int
	BeatsPerMeasure int
	Profile         synth.Profile
}

type Status struct {
	State           State
	Tempo           int
	BeatsPerMeasure int
	// CurrentBeat is the beat the next tick will fire.
	CurrentBeat int
	Profile     synth.Profile
	Period      time.Duration
}

// run is one armed ticker. Closing done stops its goroutine.
type run struct {
	ticker clock.Ticker
	done   chan struct{}
}

type Option func(*Scheduler)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clock.WithTicker) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// OnBeat registers fn to be called after every fired beat. fn runs while the
// scheduler is locked and must not block or call back into the scheduler.
func OnBeat(fn func(Event)) Option {
	return func(s *Scheduler) {
		s.onBeat = fn
	}
}

// WithSettings sets the initial tempo, measure and profile.
func WithSettings(set Settings) Option {
	return func(s *Scheduler) {
		s.tempo = ClampTempo(set.Tempo)
		s.beats = ClampMeasure(set.BeatsPerMeasure)
		s.profile = set.Profile
	}
}

type Scheduler struct {
	mu      sync.Mutex
	clock   clock.WithTicker
	backend Backend
	sounder Sounder
	onBeat  func(Event)

	state   State
	tempo   int
	beats   int
	current int
	profile synth.Profile
	run     *run
}

func New(backend Backend, sounder Sounder, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:   clock.RealClock{},
		backend: backend,
		sounder: sounder,
		tempo:   DefaultTempo,
		beats:   DefaultBeatsPerMeasure,
		current: 1,
		profile: synth.Metronome,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resumes the audio backend, fires the downbeat and arms the ticker.
// Starting a running scheduler does nothing.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		return nil
	}
	if s.backend != nil {
		if err := s.backend.Resume(); err != nil {
			if errors.Is(err, audio.ErrUnavailable) {
				return errors.Wrap(err, "could not start beat")
			}
			return errors.Wrapf(audio.ErrUnavailable, "could not start beat: %v", err)
		}
	}

	s.state = Running
	s.current = 1
	s.fire(s.clock.Now())
	s.arm()
	s.log().Info("beat started")
	return nil
}

// Stop cancels the ticker and rewinds to the downbeat.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Stopped {
		return
	}
	s.disarm()
	s.state = Stopped
	s.current = 1
	s.log().Info("beat stopped")
}

func (s *Scheduler) Toggle() error {
	if s.Status().State == Running {
		s.Stop()
		return nil
	}
	return s.Start()
}

// SetTempo clamps bpm and, when running, re-arms at the new period from now.
func (s *Scheduler) SetTempo(bpm int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bpm = ClampTempo(bpm)
	if bpm == s.tempo {
		return
	}
	s.tempo = bpm
	s.reconfigure()
}

// SetBeatsPerMeasure clamps n to a supported measure and rewinds to the
// downbeat.
func (s *Scheduler) SetBeatsPerMeasure(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.beats = ClampMeasure(n)
	s.current = 1
	s.reconfigure()
}

// SetSoundProfile takes effect from the next beat.
func (s *Scheduler) SetSoundProfile(p synth.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

// Apply replaces tempo, measure and profile at once and re-arms a single time.
// Each with func runs in the same critical section, so no beat fires with
// only part of the change applied. They must not call the scheduler.
func (s *Scheduler) Apply(set Settings, with ...func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fn := range with {
		fn()
	}
	s.tempo = ClampTempo(set.Tempo)
	s.beats = ClampMeasure(set.BeatsPerMeasure)
	s.profile = set.Profile
	s.current = 1
	s.reconfigure()
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		State:           s.state,
		Tempo:           s.tempo,
		BeatsPerMeasure: s.beats,
		CurrentBeat:     s.current,
		Profile:         s.profile,
		Period:          Period(s.tempo),
	}
}

// reconfigure swaps the armed ticker for one at the current period. Callers
// hold s.mu.
func (s *Scheduler) reconfigure() {
	if s.state != Running {
		return
	}
	s.disarm()
	s.arm()
	s.log().Debug("beat rescheduled")
}

func (s *Scheduler) arm() {
	r := &run{
		ticker: s.clock.NewTicker(Period(s.tempo)),
		done:   make(chan struct{}),
	}
	s.run = r
	go s.loop(r)
}

func (s *Scheduler) disarm() {
	if s.run == nil {
		return
	}
	s.run.ticker.Stop()
	close(s.run.done)
	s.run = nil
}

func (s *Scheduler) loop(r *run) {
	for {
		select {
		case <-r.done:
			return
		case now := <-r.ticker.C():
			s.tick(r, now)
		}
	}
}

func (s *Scheduler) tick(r *run, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a tick already in flight when its run was cancelled
	if s.run != r || s.state != Running {
		return
	}
	s.fire(now)
}

func (s *Scheduler) fire(now time.Time) {
	ev := Event{
		Beat:            s.current,
		Accent:          s.current == 1,
		BeatsPerMeasure: s.beats,
		At:              now,
	}
	if s.sounder != nil {
		s.sounder.Beat(s.profile, ev.Accent)
	}
	if s.onBeat != nil {
		s.onBeat(ev)
	}
	s.current = Next(s.current, s.beats)
}

func (s *Scheduler) log() *logrus.Entry {
	return logger.GetProjectLogger().WithFields(logrus.Fields{
		"bpm":   s.tempo,
		"beats": s.beats,
	})
}
