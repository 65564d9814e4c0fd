package audio

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/pkg/errors"

	"github.com/dimfu/clacktime/internal/logger"
)

// the speaker package is global, so is its initialization state
var (
	speakerMu    sync.Mutex
	speakerReady bool
	speakerRate  beep.SampleRate
)

// Speaker plays through github.com/faiface/beep/speaker.
type Speaker struct {
	rate   beep.SampleRate
	buffer time.Duration
}

func NewSpeaker(rate beep.SampleRate, buffer time.Duration) *Speaker {
	return &Speaker{rate: rate, buffer: buffer}
}

func (s *Speaker) Resume() error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerReady {
		return nil
	}
	if err := speaker.Init(s.rate, s.rate.N(s.buffer)); err != nil {
		return errors.Wrapf(ErrUnavailable, "error while initializing speaker: %v", err)
	}

	speakerReady = true
	speakerRate = s.rate
	logger.GetProjectLogger().WithField("sample_rate", int(s.rate)).Debug("speaker initialized")
	return nil
}

func (s *Speaker) Ready() bool {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	return speakerReady
}

func (s *Speaker) Play(st beep.Streamer) {
	if !s.Ready() {
		return
	}
	speaker.Play(st)
}

// SampleRate reports the rate the speaker was initialized with.
func (s *Speaker) SampleRate() beep.SampleRate {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerReady {
		return speakerRate
	}
	return s.rate
}

// Clear silences everything currently playing.
func (s *Speaker) Clear() {
	if s.Ready() {
		speaker.Clear()
	}
}
