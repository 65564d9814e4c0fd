// Package countdown runs the session timer that chimes when it reaches zero.
package countdown

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/dimfu/clacktime/internal/logger"
)

const (
	MinMinutes     = 1
	MaxMinutes     = 120
	DefaultMinutes = 10
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Chimer announces the end of a countdown.
type Chimer interface {
	Chime()
}

type Status struct {
	State            State
	TotalSeconds     int
	RemainingSeconds int
}

type ticker struct {
	t    clock.Ticker
	done chan struct{}
}

type Option func(*Timer)

func WithClock(c clock.WithTicker) Option {
	return func(t *Timer) {
		t.clock = c
	}
}

func WithMinutes(minutes int) Option {
	return func(t *Timer) {
		t.total = ClampMinutes(minutes) * 60
		t.remaining = t.total
	}
}

// OnTick registers fn to receive the remaining seconds after every tick. fn
// runs while the timer is locked and must not block.
func OnTick(fn func(remaining int)) Option {
	return func(t *Timer) {
		t.onTick = fn
	}
}

// OnComplete registers fn to be called once per countdown that reaches zero.
// fn runs while the timer is locked and must not block.
func OnComplete(fn func()) Option {
	return func(t *Timer) {
		t.onComplete = fn
	}
}

// Timer counts down whole seconds independently of the beat.
type Timer struct {
	mu         sync.Mutex
	clock      clock.WithTicker
	chimer     Chimer
	onTick     func(int)
	onComplete func()

	state     State
	total     int
	remaining int
	run       *ticker
}

func New(chimer Chimer, opts ...Option) *Timer {
	t := &Timer{
		clock:     clock.RealClock{},
		chimer:    chimer,
		total:     DefaultMinutes * 60,
		remaining: DefaultMinutes * 60,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func ClampMinutes(m int) int {
	if m < MinMinutes {
		return MinMinutes
	}
	if m > MaxMinutes {
		return MaxMinutes
	}
	return m
}

// Configure sets the duration and refills the remaining time. It is refused
// while the countdown runs.
func (t *Timer) Configure(minutes int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Running {
		return false
	}
	t.total = ClampMinutes(minutes) * 60
	t.remaining = t.total
	return true
}

// Start resumes counting from the remaining time, or from the full duration
// after a completed run. It returns false when already running.
func (t *Timer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Running {
		return false
	}
	if t.remaining <= 0 {
		t.remaining = t.total
	}
	t.state = Running
	t.run = &ticker{t: t.clock.NewTicker(time.Second), done: make(chan struct{})}
	go t.loop(t.run)
	t.log().Info("countdown started")
	return true
}

// Pause stops counting and keeps the remaining time.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running {
		return
	}
	t.disarm()
	t.log().Info("countdown paused")
}

// Stop is Pause; the remaining time survives until Reset or Configure.
func (t *Timer) Stop() {
	t.Pause()
}

// Reset refills the remaining time. It is refused while the countdown runs.
func (t *Timer) Reset() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Running {
		return false
	}
	t.remaining = t.total
	return true
}

func (t *Timer) Toggle() {
	if t.Status().State == Running {
		t.Pause()
		return
	}
	t.Start()
}

func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Status{
		State:            t.state,
		TotalSeconds:     t.total,
		RemainingSeconds: t.remaining,
	}
}

func (t *Timer) disarm() {
	if t.run != nil {
		t.run.t.Stop()
		close(t.run.done)
		t.run = nil
	}
	t.state = Idle
}

func (t *Timer) loop(r *ticker) {
	for {
		select {
		case <-r.done:
			return
		case <-r.t.C():
			t.tick(r)
		}
	}
}

func (t *Timer) tick(r *ticker) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.run != r || t.state != Running {
		return
	}

	t.remaining--
	if t.onTick != nil {
		t.onTick(t.remaining)
	}
	if t.remaining > 0 {
		return
	}

	t.disarm()
	t.log().Info("countdown complete")
	if t.chimer != nil {
		t.chimer.Chime()
	}
	if t.onComplete != nil {
		t.onComplete()
	}
}

func (t *Timer) log() *logrus.Entry {
	return logger.GetProjectLogger().WithFields(logrus.Fields{
		"total":     t.total,
		"remaining": t.remaining,
	})
}
