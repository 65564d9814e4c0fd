// Package ui holds what the console and the TUI share: formatting and the
// key bindings.
package ui

import (
	"fmt"
	"strings"

	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/countdown"
	"github.com/dimfu/clacktime/internal/engine"
)

const (
	dotOn  = "●"
	dotOff = "○"
)

// FormatRemaining renders seconds as mm:ss. Minutes are not wrapped into
// hours.
func FormatRemaining(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// BeatDots draws one dot per beat with the last fired beat filled in. A
// current of 0 draws an empty measure.
func BeatDots(current, n int) string {
	dots := make([]string, n)
	for i := range dots {
		dots[i] = dotOff
		if i+1 == current {
			dots[i] = dotOn
		}
	}
	return strings.Join(dots, " ")
}

// Line is the single-line status shown by the console.
func Line(st engine.Status, lastBeat int) string {
	play := "■"
	if st.Beat.State == beat.Running {
		play = "▶"
	} else {
		lastBeat = 0
	}

	timer := FormatRemaining(st.Countdown.RemainingSeconds)
	if st.Countdown.State == countdown.Running {
		timer += " ⏵"
	} else if st.Countdown.RemainingSeconds == 0 {
		timer += " done"
	}

	return fmt.Sprintf("%s %3d bpm  %s  %-9s  vol %3d%%  timer %s",
		play,
		st.Beat.Tempo,
		BeatDots(lastBeat, st.Beat.BeatsPerMeasure),
		st.Beat.Profile,
		int(st.Volume*100+0.5),
		timer,
	)
}
