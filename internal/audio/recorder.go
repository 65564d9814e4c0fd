package audio

import (
	"sync"

	"github.com/faiface/beep"
	"github.com/pkg/errors"
)

// Recorder is an Output that keeps what it is asked to play. It backs the
// "none" backend and the tests.
type Recorder struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	ready   bool
	fail    error
	resumes int
	played  []beep.Streamer
}

func NewRecorder(rate beep.SampleRate) *Recorder {
	return &Recorder{rate: rate}
}

// FailResume makes every following Resume fail with err; nil clears it.
func (r *Recorder) FailResume(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumes++
	if r.fail != nil {
		return errors.Wrapf(ErrUnavailable, "recorder: %v", r.fail)
	}
	r.ready = true
	return nil
}

func (r *Recorder) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

func (r *Recorder) Play(s beep.Streamer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return
	}
	r.played = append(r.played, s)
}

func (r *Recorder) SampleRate() beep.SampleRate {
	return r.rate
}

// Played returns the streamers handed to Play so far.
func (r *Recorder) Played() []beep.Streamer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]beep.Streamer(nil), r.played...)
}

// Resumes counts Resume calls.
func (r *Recorder) Resumes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resumes
}
