package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/dimfu/clacktime/internal/audio"
	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/countdown"
	"github.com/dimfu/clacktime/internal/engine"
	"github.com/dimfu/clacktime/internal/preset"
	"github.com/dimfu/clacktime/internal/synth"
)

func newTestModel(t *testing.T, records ...preset.Record) model {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Clock = testingclock.NewFakeClock(time.Date(2024, 6, 2, 7, 15, 0, 0, time.UTC))
	e := engine.New(audio.NewRecorder(audio.DefaultSampleRate), preset.NewMemoryStore(records...), cfg)
	t.Cleanup(e.Close)
	return newModel(e)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

// settle runs a command and feeds its message back, as the program would.
func settle(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		return m
	}
	m, _ = update(t, m, cmd())
	return m
}

func TestKeysDriveEngine(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = update(t, m, runes("3"))
	m, _ = update(t, m, runes("s"))

	st := m.engine.Status()
	assert.Equal(t, 126, st.Beat.Tempo)
	assert.Equal(t, 3, st.Beat.BeatsPerMeasure)
	assert.Equal(t, synth.Cowbell, st.Beat.Profile)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, beat.Running, m.engine.Status().Beat.State)

	m, _ = update(t, m, runes("t"))
	assert.Equal(t, countdown.Running, m.engine.Status().Countdown.State)
}

func TestEngineEventsKeepListening(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, cmd := update(t, m, beatMsg(beat.Event{Beat: 2, BeatsPerMeasure: 4}))
	assert.Equal(t, 2, m.lastBeat)
	require.NotNil(t, cmd)

	m, cmd = update(t, m, completedMsg{})
	assert.Equal(t, "time is up", m.message)
	require.NotNil(t, cmd)

	m.sub <- countdownMsg(41)
	assert.Equal(t, countdownMsg(41), cmd())
}

func TestListenerDropsWhenFull(t *testing.T) {
	t.Parallel()

	l := listener{sub: make(chan tea.Msg, 1)}
	l.CountdownTick(3)
	assert.NotPanics(t, func() { l.CountdownTick(2) })
	assert.Equal(t, countdownMsg(3), <-l.sub)
}

func TestPresets(t *testing.T) {
	t.Parallel()

	m := newTestModel(t,
		preset.Record{Name: "warmup", BPM: 80, BeatsPerMeasure: 4, SoundType: synth.Metronome, Volume: 0.5},
		preset.Record{Name: "waltz", BPM: 100, BeatsPerMeasure: 3, SoundType: synth.Cowbell, Volume: 0.5, TimerMinutes: 5},
	)
	m = settle(t, m, loadPresets(m.engine))
	require.Len(t, m.presets, 2)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.cursor)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "applied waltz", m.message)

	st := m.engine.Status()
	assert.Equal(t, 100, st.Beat.Tempo)
	assert.Equal(t, 3, st.Beat.BeatsPerMeasure)
	assert.Equal(t, 300, st.Countdown.TotalSeconds)

	m, cmd := update(t, m, runes("p"))
	assert.Equal(t, "saved Preset 07:15:00", m.message)
	m = settle(t, m, cmd)
	require.Len(t, m.presets, 3)

	m, cmd = update(t, m, runes("x"))
	assert.Equal(t, "deleted waltz", m.message)
	m = settle(t, m, cmd)
	require.Len(t, m.presets, 2)
	assert.Equal(t, "warmup", m.presets[0].Name)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 0, m.cursor)
}

func TestQuit(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestView(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, preset.Record{Name: "groove", BPM: 90, BeatsPerMeasure: 4})
	m = settle(t, m, loadPresets(m.engine))

	view := m.View()
	assert.Contains(t, view, "clacktime")
	assert.Contains(t, view, "120")
	assert.Contains(t, view, "stopped")
	assert.Contains(t, view, "timer 10:00")
	assert.Contains(t, view, "groove")
	assert.Contains(t, view, "volume 80%")
}

func TestElapsed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, elapsed(countdown.Status{TotalSeconds: 600, RemainingSeconds: 600}))
	assert.Equal(t, 0.5, elapsed(countdown.Status{TotalSeconds: 600, RemainingSeconds: 300}))
	assert.Equal(t, 1.0, elapsed(countdown.Status{TotalSeconds: 60}))
	assert.Equal(t, 0.0, elapsed(countdown.Status{}))
}
