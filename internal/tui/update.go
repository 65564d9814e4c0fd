package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dimfu/clacktime/internal/logger"
	"github.com/dimfu/clacktime/internal/ui"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case beatMsg:
		m.lastBeat = msg.Beat
		return m, waitForActivity(m.sub)
	case countdownMsg:
		return m, waitForActivity(m.sub)
	case completedMsg:
		m.message = "time is up"
		return m, waitForActivity(m.sub)
	case presetsMsg:
		if msg.err != nil {
			m.message = "presets unavailable"
			logger.GetProjectLogger().WithError(msg.err).Warn("could not load presets")
			return m, nil
		}
		m.presets = msg.records
		if m.cursor >= len(m.presets) {
			m.cursor = max(len(m.presets)-1, 0)
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		if len(m.presets) > 0 {
			m.cursor = (m.cursor + 1) % len(m.presets)
		}
		return m, nil
	case "shift+tab":
		if len(m.presets) > 0 {
			m.cursor = (m.cursor + len(m.presets) - 1) % len(m.presets)
		}
		return m, nil
	case "enter":
		if m.cursor < len(m.presets) {
			r := m.presets[m.cursor]
			m.engine.ApplyPreset(r)
			m.message = "applied " + r.Name
		}
		return m, nil
	case "x":
		if m.cursor < len(m.presets) {
			if err := m.engine.DeletePreset(m.cursor); err != nil {
				m.message = "preset not deleted"
				logger.GetProjectLogger().WithError(err).Warn("could not delete preset")
				return m, nil
			}
			m.message = "deleted " + m.presets[m.cursor].Name
		}
		return m, loadPresets(m.engine)
	}

	action := ui.Parse(msg.String())
	res, err := ui.Dispatch(m.engine, action)
	if err != nil {
		logger.GetProjectLogger().WithError(err).Warn("key action failed")
	}
	m.message = res.Message
	if res.Quit {
		m.quitting = true
		return m, tea.Quit
	}
	if action.Command == ui.SavePreset {
		return m, loadPresets(m.engine)
	}
	if action.Command == ui.ToggleBeat {
		m.lastBeat = 0
	}
	return m, nil
}
