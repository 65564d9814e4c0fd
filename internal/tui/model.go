// Package tui is the full-screen bubbletea surface.
package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/engine"
	"github.com/dimfu/clacktime/internal/logger"
	"github.com/dimfu/clacktime/internal/preset"
)

type beatMsg beat.Event

type countdownMsg int

type completedMsg struct{}

type presetsMsg struct {
	records []preset.Record
	err     error
}

// listener forwards engine events into the program. Events that find the
// channel full are dropped; the next one redraws everything anyway.
type listener struct {
	sub chan tea.Msg
}

func (l listener) BeatFired(ev beat.Event)     { l.send(beatMsg(ev)) }
func (l listener) CountdownTick(remaining int) { l.send(countdownMsg(remaining)) }
func (l listener) CountdownCompleted()         { l.send(completedMsg{}) }

func (l listener) send(msg tea.Msg) {
	select {
	case l.sub <- msg:
	default:
	}
}

type model struct {
	engine   *engine.Engine
	sub      chan tea.Msg
	progress progress.Model

	lastBeat int
	presets  []preset.Record
	cursor   int
	message  string
	quitting bool
}

func newModel(e *engine.Engine) model {
	sub := make(chan tea.Msg, 16)
	e.Subscribe(listener{sub: sub})

	return model{
		engine: e,
		sub:    sub,
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForActivity(m.sub), loadPresets(m.engine))
}

// waitForActivity blocks until the engine reports something.
func waitForActivity(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func loadPresets(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		records, err := e.Presets()
		return presetsMsg{records: records, err: err}
	}
}

// Run shows the TUI until the user quits.
func Run(e *engine.Engine) error {
	_, err := tea.NewProgram(newModel(e), tea.WithAltScreen()).Run()
	if err != nil {
		logger.GetProjectLogger().WithError(err).Error("tui stopped")
	}
	return err
}
