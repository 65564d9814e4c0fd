package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/countdown"
	"github.com/dimfu/clacktime/internal/ui"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	tempoStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
)

const help = "space start/stop • ↑↓ ±1 • ←→ ±5 • 1-9 beats • s sound • +/- volume\n" +
	"t timer • r reset • [ ] minutes • p save • tab select • enter apply • x delete • q quit"

func (m model) View() string {
	if m.quitting {
		return ""
	}
	st := m.engine.Status()

	var b strings.Builder
	b.WriteString(titleStyle.Render("clacktime") + "\n\n")

	state := "stopped"
	last := 0
	if st.Beat.State == beat.Running {
		state = "playing"
		last = m.lastBeat
	}
	fmt.Fprintf(&b, "%s bpm  %s\n", tempoStyle.Render(fmt.Sprintf("%d", st.Beat.Tempo)), dimStyle.Render(state))
	b.WriteString(dots(last, st.Beat.BeatsPerMeasure) + "\n")
	fmt.Fprintf(&b, "%s  •  volume %d%%\n\n", st.Beat.Profile, int(st.Volume*100+0.5))

	timer := "timer " + ui.FormatRemaining(st.Countdown.RemainingSeconds)
	if st.Countdown.State == countdown.Running {
		timer += dimStyle.Render("  running")
	}
	b.WriteString(timer + "\n")
	b.WriteString(m.progress.ViewAs(elapsed(st.Countdown)) + "\n")

	b.WriteString("\n" + m.presetView() + "\n")
	if m.message != "" {
		b.WriteString(messageStyle.Render(m.message) + "\n")
	}
	b.WriteString(dimStyle.Render(help))

	return panelStyle.Render(b.String())
}

func (m model) presetView() string {
	if len(m.presets) == 0 {
		return dimStyle.Render("no presets, press p to save one")
	}
	lines := make([]string, 0, len(m.presets))
	for i, r := range m.presets {
		line := fmt.Sprintf("  %s  %d bpm  %d beats  %s", r.Name, r.BPM, r.BeatsPerMeasure, r.SoundType)
		if i == m.cursor {
			line = cursorStyle.Render("> " + line[2:])
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func dots(current, n int) string {
	parts := strings.Split(ui.BeatDots(current, n), " ")
	if len(parts) > 0 {
		parts[0] = accentStyle.Render(parts[0])
	}
	return strings.Join(parts, " ")
}

// elapsed is the share of the countdown already used, for the progress bar.
func elapsed(st countdown.Status) float64 {
	if st.TotalSeconds <= 0 {
		return 0
	}
	return 1 - float64(st.RemainingSeconds)/float64(st.TotalSeconds)
}
