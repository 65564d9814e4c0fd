package ui

import (
	"math"
	"strings"

	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/engine"
	"github.com/dimfu/clacktime/internal/logger"
)

const (
	TempoFine   = 1
	TempoCoarse = 5
	VolumeStep  = 0.1
)

type Command int

const (
	None Command = iota
	ToggleBeat
	TempoUp
	TempoDown
	TempoUpCoarse
	TempoDownCoarse
	Measure
	NextSound
	VolumeUp
	VolumeDown
	ToggleCountdown
	ResetCountdown
	CountdownLonger
	CountdownShorter
	SavePreset
	Quit
)

// Action is a parsed key press. Measure carries the digit for the Measure
// command.
type Action struct {
	Command Command
	Measure int
}

var bindings = map[string]Command{
	" ":      ToggleBeat,
	"space":  ToggleBeat,
	"up":     TempoUp,
	"down":   TempoDown,
	"right":  TempoUpCoarse,
	"left":   TempoDownCoarse,
	"s":      NextSound,
	"+":      VolumeUp,
	"=":      VolumeUp,
	"-":      VolumeDown,
	"t":      ToggleCountdown,
	"r":      ResetCountdown,
	"]":      CountdownLonger,
	"[":      CountdownShorter,
	"p":      SavePreset,
	"q":      Quit,
	"esc":    Quit,
	"ctrl+c": Quit,
}

// Parse maps a key name, as bubbletea spells them, to an action.
func Parse(key string) Action {
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return Action{Command: Measure, Measure: int(key[0] - '0')}
	}
	if cmd, ok := bindings[key]; ok {
		return Action{Command: cmd}
	}
	return Action{Command: bindings[strings.ToLower(key)]}
}

// KeyStep moves bpm by delta within the full tempo range.
func KeyStep(bpm, delta int) int {
	return beat.ClampTempo(bpm + delta)
}

// Result tells a surface what happened beyond the engine state it redraws.
type Result struct {
	Quit    bool
	Message string
}

// Dispatch applies an action to the engine.
func Dispatch(e *engine.Engine, a Action) (Result, error) {
	st := e.Status()
	log := logger.GetProjectLogger()

	switch a.Command {
	case ToggleBeat:
		if err := e.ToggleBeat(); err != nil {
			return Result{Message: "audio unavailable"}, err
		}
	case TempoUp:
		e.SetTempo(KeyStep(st.Beat.Tempo, TempoFine))
	case TempoDown:
		e.SetTempo(KeyStep(st.Beat.Tempo, -TempoFine))
	case TempoUpCoarse:
		e.SetTempo(KeyStep(st.Beat.Tempo, TempoCoarse))
	case TempoDownCoarse:
		e.SetTempo(KeyStep(st.Beat.Tempo, -TempoCoarse))
	case Measure:
		e.SetBeatsPerMeasure(a.Measure)
	case NextSound:
		e.SetSoundProfile(st.Beat.Profile.Next())
	case VolumeUp:
		e.SetVolume(stepVolume(st.Volume, VolumeStep))
	case VolumeDown:
		e.SetVolume(stepVolume(st.Volume, -VolumeStep))
	case ToggleCountdown:
		e.ToggleCountdown()
	case ResetCountdown:
		if !e.ResetCountdown() {
			return Result{Message: "pause the timer first"}, nil
		}
	case CountdownLonger, CountdownShorter:
		minutes := st.Countdown.TotalSeconds / 60
		if a.Command == CountdownLonger {
			minutes++
		} else {
			minutes--
		}
		if !e.SetCountdownMinutes(minutes) {
			return Result{Message: "pause the timer first"}, nil
		}
	case SavePreset:
		r, err := e.SavePreset("")
		if err != nil {
			return Result{Message: "preset not saved"}, err
		}
		log.WithField("preset", r.Name).Info("preset saved")
		return Result{Message: "saved " + r.Name}, nil
	case Quit:
		return Result{Quit: true}, nil
	}
	return Result{}, nil
}

// stepVolume keeps keyboard volume changes on whole percents.
func stepVolume(v, delta float64) float64 {
	return math.Round((v+delta)*100) / 100
}
