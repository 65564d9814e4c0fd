// Package audio owns the process-wide sound output.
package audio

import (
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/pkg/errors"
)

const (
	DefaultSampleRate beep.SampleRate = 44100
	DefaultBuffer                     = 50 * time.Millisecond
)

// ErrUnavailable is wrapped by every failure to create or resume a backend.
var ErrUnavailable = errors.New("audio backend unavailable")

// Output is a sound sink that mixes overlapping streamers.
type Output interface {
	// Resume creates the backend on first use and resumes it afterwards.
	Resume() error
	// Ready reports whether Play will be heard.
	Ready() bool
	// Play starts a streamer and returns immediately.
	Play(s beep.Streamer)
	SampleRate() beep.SampleRate
}

// New returns the output registered under name: "speaker", "oto" or "none".
func New(name string, rate beep.SampleRate, buffer time.Duration) (Output, error) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	switch strings.ToLower(name) {
	case "", "speaker":
		return NewSpeaker(rate, buffer), nil
	case "oto":
		return NewOto(rate, buffer), nil
	case "none":
		return NewRecorder(rate), nil
	}
	return nil, errors.Errorf("unknown audio backend %q", name)
}

// Collect drains a streamer into memory.
func Collect(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok || n < len(buf) {
			return out
		}
	}
}
