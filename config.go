package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dimfu/clacktime/internal/audio"
	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/countdown"
	"github.com/dimfu/clacktime/internal/engine"
	"github.com/dimfu/clacktime/internal/preset"
	"github.com/dimfu/clacktime/internal/synth"
)

// Settings is what the settings file and the flags configure. Flags win.
type Settings struct {
	Tempo            int           `yaml:"tempo"`
	Timesig          string        `yaml:"timesig"`
	Sound            synth.Profile `yaml:"sound"`
	Volume           float64       `yaml:"volume"`
	CountdownMinutes int           `yaml:"countdown"`
	Backend          string        `yaml:"backend"`
	SampleRate       int           `yaml:"sampleRate"`
	BufferMillis     int           `yaml:"bufferMillis"`
	PresetFile       string        `yaml:"presets"`
	NoPresets        bool          `yaml:"noPresets"`
	LogLevel         string        `yaml:"logLevel"`
	LogFile          string        `yaml:"logFile"`
}

func DefaultSettings() Settings {
	return Settings{
		Tempo:            beat.DefaultTempo,
		Timesig:          DEFAULT_SIG,
		Sound:            synth.Metronome,
		Volume:           engine.DefaultVolume,
		CountdownMinutes: countdown.DefaultMinutes,
		Backend:          "speaker",
		SampleRate:       int(audio.DefaultSampleRate),
		BufferMillis:     int(audio.DefaultBuffer.Milliseconds()),
		PresetFile:       "~/" + preset.DefaultFile,
		LogLevel:         "info",
	}
}

// LoadSettings reads path over the defaults. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, errors.Wrapf(err, "error while reading %s", path)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "error while parsing %s", path)
	}
	return s, nil
}

// WriteSettings saves s as YAML, used by `config init`.
func WriteSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "error while encoding settings")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "error while writing %s", path)
	}
	return nil
}

// Validate rejects values the user typed wrong. Values that are merely out of
// range are clamped by the engine instead.
func (s Settings) Validate() error {
	if s.Tempo < beat.MinTempo || s.Tempo > beat.MaxTempo {
		return errors.Errorf("tempo %d is not valid, make sure it is between %d and %d", s.Tempo, beat.MinTempo, beat.MaxTempo)
	}
	if _, err := ParseTimeSig(s.Timesig); err != nil {
		return err
	}
	if s.Volume < 0 || s.Volume > 1 {
		return errors.Errorf("volume %v is not valid, make sure it is between 0 and 1", s.Volume)
	}
	if s.CountdownMinutes < countdown.MinMinutes || s.CountdownMinutes > countdown.MaxMinutes {
		return errors.Errorf("countdown %d is not valid, make sure it is between %d and %d minutes", s.CountdownMinutes, countdown.MinMinutes, countdown.MaxMinutes)
	}
	return nil
}

func (s Settings) TimeSignature() TimeSignature {
	ts, err := ParseTimeSig(s.Timesig)
	if err != nil {
		return TimeSignature{Beats: beat.DefaultBeatsPerMeasure, NoteValue: 4}
	}
	return ts
}

func (s Settings) EngineConfig() engine.Config {
	return engine.Config{
		Beat: beat.Settings{
			Tempo:           s.Tempo,
			BeatsPerMeasure: s.TimeSignature().Beats,
			Profile:         s.Sound,
		},
		Volume:           s.Volume,
		CountdownMinutes: s.CountdownMinutes,
	}
}

// PresetStore opens the configured preset file, or keeps presets in memory
// when they are disabled.
func (s Settings) PresetStore() (preset.Store, error) {
	if s.NoPresets {
		return preset.NewMemoryStore(), nil
	}
	path, err := ExpandHome(s.PresetFile)
	if err != nil {
		return nil, err
	}
	return preset.NewFileStore(path), nil
}
