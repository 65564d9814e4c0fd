package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dimfu/clacktime/internal/audio"
	"github.com/dimfu/clacktime/internal/beat"
	"github.com/dimfu/clacktime/internal/console"
	"github.com/dimfu/clacktime/internal/countdown"
	"github.com/dimfu/clacktime/internal/engine"
	"github.com/dimfu/clacktime/internal/export"
	"github.com/dimfu/clacktime/internal/logger"
	"github.com/dimfu/clacktime/internal/preset"
	"github.com/dimfu/clacktime/internal/synth"
	"github.com/dimfu/clacktime/internal/tui"
	"github.com/dimfu/clacktime/internal/ui"
)

// chimeTail keeps a headless process alive while the completion chime plays.
const chimeTail = time.Second

type options struct {
	config    string
	tempo     int
	timesig   string
	sound     string
	volume    float64
	countdown int
	backend   string
	presets   string
	noPresets bool
	logLevel  string
	logFile   string

	headless bool
	timer    bool
	output   string
	measures int
	force    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "clacktime",
		Short: "A terminal metronome with a countdown timer",
		Long: `clacktime clicks at a steady tempo with an accent on the first beat of
every measure, and runs an independent practice countdown that chimes when
it reaches zero.

Examples:
  clacktime --tempo 90 --timesig 3/4
  clacktime --headless --timer --countdown 5
  clacktime tui
  clacktime render -o click.wav --measures 16
  clacktime preset add slow --tempo 60`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.settings(cmd)
			if err != nil {
				return err
			}
			return o.run(cmd.Context(), s, nil, cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.config, "config", "", "settings file (default ~/"+SETTINGS_FILE+")")
	pf.IntVar(&o.tempo, "tempo", beat.DefaultTempo, "the speed in beats per minute")
	pf.StringVar(&o.timesig, "timesig", DEFAULT_SIG, "indicate how many beats are in each measure")
	pf.StringVar(&o.sound, "sound", synth.Metronome.String(), "metronome, cowbell, woodblock or clap")
	pf.Float64Var(&o.volume, "volume", engine.DefaultVolume, "volume between 0 and 1")
	pf.IntVar(&o.countdown, "countdown", countdown.DefaultMinutes, "countdown length in minutes")
	pf.StringVar(&o.backend, "backend", "speaker", "audio backend: speaker, oto or none")
	pf.StringVar(&o.presets, "presets", "", "preset file (default ~/"+preset.DefaultFile+")")
	pf.BoolVar(&o.noPresets, "no-presets", false, "keep presets in memory only")
	pf.StringVar(&o.logLevel, "log-level", "info", "log level")
	pf.StringVar(&o.logFile, "log-file", "", "append logs to this file")

	root.Flags().BoolVar(&o.headless, "headless", false, "play without the keyboard interface")
	root.Flags().BoolVar(&o.timer, "timer", false, "start the countdown with the beat")

	root.AddCommand(
		newTUICmd(o),
		newRenderCmd(o),
		newPresetCmd(o),
		newConfigCmd(o),
	)
	return root
}

func newTUICmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Full screen interface with presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.settings(cmd)
			if err != nil {
				return err
			}
			if err := setupLogging(s, true); err != nil {
				return err
			}
			defer logger.Close()

			e, out, err := buildEngine(s)
			if err != nil {
				return err
			}
			defer Silence(out)
			defer e.Close()
			return tui.Run(e)
		},
	}
}

func newRenderCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write a click track to a .wav or .mid file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.settings(cmd)
			if err != nil {
				return err
			}
			if err := render(o.output, renderOptions(s, o.measures)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", o.output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file, .wav or .mid (required)")
	cmd.Flags().IntVar(&o.measures, "measures", export.DefaultMeasures, "number of measures")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newPresetCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved presets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List presets with their index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := o.store(cmd)
			if err != nil {
				return err
			}
			records, err := store.List()
			if err != nil {
				return err
			}
			return printPresets(cmd.OutOrStdout(), records)
		},
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Save the current flags as a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.settings(cmd)
			if err != nil {
				return err
			}
			store, err := s.PresetStore()
			if err != nil {
				return err
			}
			r := presetFromSettings(args[0], s)
			if err := store.Append(r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", r.Name)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <index>",
		Short: "Delete the preset at index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.Errorf("`%v` is not a preset index", args[0])
			}
			store, err := o.store(cmd)
			if err != nil {
				return err
			}
			return store.RemoveAt(index)
		},
	}

	apply := &cobra.Command{
		Use:   "apply <name>",
		Short: "Start the metronome with a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.settings(cmd)
			if err != nil {
				return err
			}
			store, err := s.PresetStore()
			if err != nil {
				return err
			}
			r, ok, err := preset.Find(store, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf("`%v` preset not found", args[0])
			}
			return o.run(cmd.Context(), s, &r, cmd.OutOrStdout())
		},
	}
	apply.Flags().BoolVar(&o.headless, "headless", false, "play without the keyboard interface")
	apply.Flags().BoolVar(&o.timer, "timer", false, "start the countdown with the beat")

	cmd.AddCommand(list, add, rm, apply)
	return cmd
}

func newConfigCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the settings file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.settings(cmd)
			if err != nil {
				return err
			}
			path, err := o.settingsPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
			return printSettings(cmd.OutOrStdout(), s)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := o.settingsPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !o.force {
				return errors.Errorf("%s already exists, use --force to overwrite it", path)
			}
			if err := WriteSettings(path, DefaultSettings()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&o.force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}

func (o *options) settingsPath() (string, error) {
	if o.config != "" {
		return ExpandHome(o.config)
	}
	return HomePath(SETTINGS_FILE)
}

// settings loads the settings file and lays every flag the user set on top.
func (o *options) settings(cmd *cobra.Command) (Settings, error) {
	path, err := o.settingsPath()
	if err != nil {
		return Settings{}, err
	}
	s, err := LoadSettings(path)
	if err != nil {
		return s, err
	}

	f := cmd.Flags()
	if f.Changed("tempo") {
		s.Tempo = o.tempo
	}
	if f.Changed("timesig") {
		s.Timesig = o.timesig
	}
	if f.Changed("sound") {
		p, err := synth.ParseProfile(o.sound)
		if err != nil {
			return s, err
		}
		s.Sound = p
	}
	if f.Changed("volume") {
		s.Volume = o.volume
	}
	if f.Changed("countdown") {
		s.CountdownMinutes = o.countdown
	}
	if f.Changed("backend") {
		s.Backend = o.backend
	}
	if f.Changed("presets") {
		s.PresetFile = o.presets
	}
	if f.Changed("no-presets") {
		s.NoPresets = o.noPresets
	}
	if f.Changed("log-level") {
		s.LogLevel = o.logLevel
	}
	if f.Changed("log-file") {
		s.LogFile = o.logFile
	}
	return s, s.Validate()
}

func (o *options) store(cmd *cobra.Command) (preset.Store, error) {
	s, err := o.settings(cmd)
	if err != nil {
		return nil, err
	}
	return s.PresetStore()
}

// run plays until the user quits or a signal arrives. A non-nil record is
// applied before anything starts.
func (o *options) run(ctx context.Context, s Settings, r *preset.Record, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	interactive := !o.headless && isTerminal(os.Stdout)
	if err := setupLogging(s, interactive); err != nil {
		return err
	}
	defer logger.Close()

	e, out, err := buildEngine(s)
	if err != nil {
		return err
	}
	defer Silence(out)
	defer e.Close()

	if r != nil {
		e.ApplyPreset(*r)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !interactive {
		return runHeadless(ctx, e, o.timer)
	}
	if err := ClearTerminal(); err != nil {
		logger.GetProjectLogger().WithError(err).Debug("could not clear terminal")
	}
	if o.timer {
		e.StartCountdown()
	}
	return console.Run(ctx, e, w)
}

func buildEngine(s Settings) (*engine.Engine, audio.Output, error) {
	out, err := NewOutput(s)
	if err != nil {
		return nil, nil, err
	}
	store, err := s.PresetStore()
	if err != nil {
		return nil, nil, err
	}
	return engine.New(out, store, s.EngineConfig()), out, nil
}

// completion reports the end of the countdown to a headless run and logs
// beats at debug level.
type completion struct {
	once sync.Once
	done chan struct{}
}

func (c *completion) BeatFired(ev beat.Event) {
	logger.GetProjectLogger().WithFields(logrus.Fields{
		"beat":   ev.Beat,
		"accent": ev.Accent,
	}).Debug("beat")
}

func (c *completion) CountdownTick(remaining int) {
	if remaining%60 == 0 {
		logger.GetProjectLogger().WithField("remaining", ui.FormatRemaining(remaining)).Info("countdown")
	}
}

func (c *completion) CountdownCompleted() {
	c.once.Do(func() { close(c.done) })
}

func runHeadless(ctx context.Context, e *engine.Engine, timer bool) error {
	log := logger.GetProjectLogger()
	c := &completion{done: make(chan struct{})}
	e.Subscribe(c)

	if err := e.StartBeat(); err != nil {
		return err
	}
	st := e.Status()
	log.WithFields(logrus.Fields{
		"bpm":   st.Beat.Tempo,
		"beats": st.Beat.BeatsPerMeasure,
		"sound": st.Beat.Profile.String(),
	}).Info("playing, press ctrl-c to stop")

	if timer {
		e.StartCountdown()
	}

	select {
	case <-ctx.Done():
		return nil
	case <-c.done:
		log.Info("time is up")
	}

	e.StopBeat()
	select {
	case <-ctx.Done():
	case <-time.After(chimeTail):
	}
	return nil
}

func setupLogging(s Settings, interactive bool) error {
	level := s.LogLevel
	if interactive && s.LogFile == "" {
		// keep the status line readable
		lvl, err := logrus.ParseLevel(level)
		if err == nil && lvl > logrus.WarnLevel {
			level = logrus.WarnLevel.String()
		}
	}
	path, err := ExpandHome(s.LogFile)
	if err != nil {
		return err
	}
	return logger.Configure(level, path)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderOptions(s Settings, measures int) export.Options {
	ts := s.TimeSignature()
	return export.Options{
		Tempo:           s.Tempo,
		BeatsPerMeasure: ts.Beats,
		NoteValue:       ts.NoteValue,
		Profile:         s.Sound,
		Volume:          s.Volume,
		Measures:        measures,
		SampleRate:      audio.DefaultSampleRate,
	}
}

func render(path string, opts export.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "error while creating output file")
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		err = export.WAV(f, opts)
	case ".mid", ".midi":
		err = export.MIDI(f, opts)
	default:
		err = errors.Errorf("unknown output format %q, use .wav or .mid", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func presetFromSettings(name string, s Settings) preset.Record {
	return preset.Record{
		Name:            name,
		BPM:             s.Tempo,
		BeatsPerMeasure: s.TimeSignature().Beats,
		SoundType:       s.Sound,
		Volume:          s.Volume,
		TimerMinutes:    s.CountdownMinutes,
	}.Normalize()
}

func printPresets(w io.Writer, records []preset.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no presets saved")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "NAME", "BPM", "BEATS", "SOUND", "VOLUME", "TIMER")
	for i, r := range records {
		timer := "-"
		if r.TimerMinutes > 0 {
			timer = fmt.Sprintf("%dm", r.TimerMinutes)
		}
		t.Row(
			strconv.Itoa(i),
			r.Name,
			strconv.Itoa(r.BPM),
			strconv.Itoa(r.BeatsPerMeasure),
			r.SoundType.String(),
			fmt.Sprintf("%d%%", int(r.Volume*100+0.5)),
			timer,
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printSettings(w io.Writer, s Settings) error {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Row("tempo", strconv.Itoa(s.Tempo)).
		Row("timesig", s.TimeSignature().String()).
		Row("sound", s.Sound.String()).
		Row("volume", strconv.FormatFloat(s.Volume, 'f', -1, 64)).
		Row("countdown", fmt.Sprintf("%dm", s.CountdownMinutes)).
		Row("backend", s.Backend).
		Row("presets", s.PresetFile).
		Row("log level", s.LogLevel)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
