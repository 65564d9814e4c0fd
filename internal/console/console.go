// Package console is the default terminal surface: raw key presses in, one
// live status line out.
package console

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/eiannone/keyboard"
	"github.com/gosuri/uilive"
	"github.com/pkg/errors"

	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/engine"
	"github.com/dimfu/clacktime/internal/logger"
	"github.com/dimfu/clacktime/internal/ui"
)

const help = "space start/stop  ↑↓ ±1  ←→ ±5  1-9 beats  s sound  +/- volume  t timer  r reset  [ ] minutes  p save  q quit"

// listener turns engine events into redraw requests. It never blocks.
type listener struct {
	redraw   chan struct{}
	lastBeat atomic.Int32
	done     atomic.Bool
}

func newListener() *listener {
	return &listener{redraw: make(chan struct{}, 1)}
}

func (l *listener) BeatFired(ev beat.Event) {
	l.lastBeat.Store(int32(ev.Beat))
	l.poke()
}

func (l *listener) CountdownTick(int) {
	l.poke()
}

func (l *listener) CountdownCompleted() {
	l.done.Store(true)
	l.poke()
}

func (l *listener) poke() {
	select {
	case l.redraw <- struct{}{}:
	default:
	}
}

// Run reads the keyboard until the user quits or ctx is done.
func Run(ctx context.Context, e *engine.Engine, out io.Writer) error {
	keys, err := keyboard.GetKeys(10)
	if err != nil {
		return errors.Wrap(err, "error while opening keyboard")
	}
	defer keyboard.Close()

	live := uilive.New()
	live.Out = out
	live.Start()
	defer live.Stop()

	fmt.Fprintln(out, help)
	return Loop(ctx, e, keys, live)
}

// Loop dispatches key events to the engine and redraws the status line on
// every key and engine event.
func Loop(ctx context.Context, e *engine.Engine, keys <-chan keyboard.KeyEvent, w io.Writer) error {
	log := logger.GetProjectLogger()
	l := newListener()
	e.Subscribe(l)

	message := ""
	draw := func() {
		line := ui.Line(e.Status(), int(l.lastBeat.Load()))
		if l.done.Swap(false) {
			message = "time is up"
		}
		if message != "" {
			line += "  " + message
		}
		fmt.Fprintln(w, line)
	}
	draw()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.redraw:
			draw()
		case ev, ok := <-keys:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				return errors.Wrap(ev.Err, "error while reading keyboard")
			}

			res, err := ui.Dispatch(e, ui.Parse(KeyName(ev)))
			if err != nil {
				log.WithError(err).Warn("key action failed")
			}
			if res.Quit {
				return nil
			}
			message = res.Message
			draw()
		}
	}
}

// KeyName spells a key event the way ui.Parse expects.
func KeyName(ev keyboard.KeyEvent) string {
	switch ev.Key {
	case keyboard.KeySpace:
		return "space"
	case keyboard.KeyArrowUp:
		return "up"
	case keyboard.KeyArrowDown:
		return "down"
	case keyboard.KeyArrowLeft:
		return "left"
	case keyboard.KeyArrowRight:
		return "right"
	case keyboard.KeyEsc:
		return "esc"
	case keyboard.KeyCtrlC:
		return "ctrl+c"
	}
	if ev.Rune != 0 {
		return string(ev.Rune)
	}
	return ""
}
