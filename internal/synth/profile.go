// Package synth turns beat requests into short synthesized sounds.
package synth

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile selects the timbre of a beat.
type Profile int

const (
	Metronome Profile = iota
	Cowbell
	Woodblock
	Clap
)

// Profiles lists every profile in display order.
var Profiles = []Profile{Metronome, Cowbell, Woodblock, Clap}

// AccentFactor scales the amplitude of the first beat of a measure.
const AccentFactor = 1.5

// ErrUnknownProfile is returned when a profile name cannot be parsed.
var ErrUnknownProfile = errors.New("unknown sound profile")

type source int

const (
	sine source = iota
	noise
)

// recipe is the synthesis description behind a profile.
type recipe struct {
	source     source
	freq       float64
	accentFreq float64
	attack     time.Duration
	decay      time.Duration // time at which the envelope reaches the floor
	length     time.Duration // time at which the source stops
	gain       float64
}

func (p Profile) recipe() recipe {
	switch p {
	case Cowbell:
		return recipe{source: sine, freq: 600, accentFreq: 800, attack: time.Millisecond, decay: 80 * time.Millisecond, length: 80 * time.Millisecond, gain: 1}
	case Woodblock:
		return recipe{source: sine, freq: 800, accentFreq: 1000, attack: time.Millisecond, decay: 70 * time.Millisecond, length: 70 * time.Millisecond, gain: 1}
	case Clap:
		return recipe{source: noise, attack: time.Millisecond, decay: 150 * time.Millisecond, length: 100 * time.Millisecond, gain: 0.8}
	default:
		return recipe{source: sine, freq: 440, accentFreq: 880, attack: time.Millisecond, decay: 60 * time.Millisecond, length: 60 * time.Millisecond, gain: 1}
	}
}

func (p Profile) String() string {
	switch p {
	case Metronome:
		return "metronome"
	case Cowbell:
		return "cowbell"
	case Woodblock:
		return "woodblock"
	case Clap:
		return "clap"
	}
	return "unknown"
}

// Next cycles to the following profile, wrapping around.
func (p Profile) Next() Profile {
	return Profiles[(int(p)+1)%len(Profiles)]
}

// ParseProfile maps a profile name to its tag.
func ParseProfile(s string) (Profile, error) {
	for _, p := range Profiles {
		if strings.EqualFold(strings.TrimSpace(s), p.String()) {
			return p, nil
		}
	}
	return Metronome, errors.Wrapf(ErrUnknownProfile, "%q", s)
}

func (p Profile) MarshalText() ([]byte, error) {
	if p < Metronome || p > Clap {
		return nil, errors.Wrapf(ErrUnknownProfile, "%d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Profile) UnmarshalText(text []byte) error {
	parsed, err := ParseProfile(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
