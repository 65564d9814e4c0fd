package main

import (
	"time"

	"github.com/faiface/beep"

	"github.com/dimfu/clacktime/internal/audio"
	"github.com/dimfu/clacktime/internal/logger"
)

// NewOutput builds the configured audio backend. Nothing is opened until the
// first beat or chime resumes it.
func NewOutput(s Settings) (audio.Output, error) {
	return audio.New(
		s.Backend,
		beep.SampleRate(s.SampleRate),
		time.Duration(s.BufferMillis)*time.Millisecond,
	)
}

// Silence cuts whatever is still sounding before the process exits.
func Silence(out audio.Output) {
	switch o := out.(type) {
	case *audio.Speaker:
		o.Clear()
	case *audio.Oto:
		if err := o.Suspend(); err != nil {
			logger.GetProjectLogger().WithError(err).Debug("could not suspend audio")
		}
	}
}
