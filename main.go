package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alexflint/go-arg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"tjweldon/lofi/src/chords"
	"tjweldon/lofi/src/clock"
	"tjweldon/lofi/src/config"
	"tjweldon/lofi/src/lofi"
	"tjweldon/lofi/src/synth"
	"tjweldon/lofi/src/tui"
	"tjweldon/lofi/src/util"
)

var logger = util.Logger{}.Ctx("main")

type args struct {
	Config   string             `arg:"-c,--config" default:"lofi.yml" help:"YAML config file; missing means defaults"`
	BPM      *int               `arg:"--bpm" help:"tempo, 60 to 100"`
	Swing    *float64           `arg:"--swing" help:"swing, 0 to 1"`
	Filter   *float64           `arg:"--filter" help:"low-pass cutoff in Hz, 200 to 2000"`
	Preset   string             `arg:"--preset" help:"chord progression to start with"`
	Presets  string             `arg:"--presets" help:"YAML file of extra presets"`
	Drums    string             `arg:"--drums" help:"stock drum pattern"`
	Volume   map[string]float64 `arg:"--volume" help:"track level in dB, e.g. --volume chords=-9"`
	Duration time.Duration      `arg:"-d,--duration" help:"stop after this long"`
	TUI      bool               `arg:"--tui" help:"interactive terminal controls"`
	Kick     string             `arg:"--kick" help:"wav file to use as the kick"`
	Snare    string             `arg:"--snare" help:"wav file to use as the snare"`
	Hat      string             `arg:"--hat" help:"wav file to use as the hihat"`
	Log      string             `arg:"--log" help:"write logs to this file"`
	Verbose  bool               `arg:"-v" help:"log more"`
}

func (args) Description() string {
	return "lofi plays an endless lo-fi hip hop loop: swung drums, four seventh chords and vinyl crackle"
}

// apply puts any flags that were given over the config
func (a args) apply(cfg *config.Config) error {
	if a.BPM != nil {
		cfg.Tempo = *a.BPM
	}
	if a.Swing != nil {
		cfg.Swing = *a.Swing
	}
	if a.Filter != nil {
		cfg.Filter = *a.Filter
	}
	if a.Preset != "" {
		cfg.Preset = a.Preset
	}
	if a.Presets != "" {
		cfg.PresetsFile = a.Presets
	}
	if a.Drums != "" {
		cfg.Pattern = config.Pattern{Name: a.Drums}
	}
	if a.Kick != "" {
		cfg.Samples.Kick = a.Kick
	}
	if a.Snare != "" {
		cfg.Samples.Snare = a.Snare
	}
	if a.Hat != "" {
		cfg.Samples.HiHat = a.Hat
	}
	if a.Log != "" {
		cfg.Log.File = a.Log
	}
	if a.Verbose {
		cfg.Log.Level = util.Normal.String()
	}
	for name, db := range a.Volume {
		track, err := lofi.ParseTrack(name)
		if err != nil {
			return err
		}
		cfg.Volumes.Set(track, db)
	}
	return nil
}

func main() {
	var a args
	arg.MustParse(&a)

	cfg, err := config.Load(a.Config)
	if err != nil {
		log.Fatal(err)
	}
	if err := a.apply(cfg); err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// the terminal UI owns the screen, so its logs go to a file
	if a.TUI && cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(os.TempDir(), "lofi.log")
	}
	if cfg.Log.File != "" {
		closeLog, err := util.LogToFile(cfg.Log.File)
		if err != nil {
			log.Fatal(err)
		}
		defer closeLog()
	}
	cfg.LogVolume().FilterBelow()

	rate := beep.SampleRate(cfg.Audio.SampleRate)
	samples, err := cfg.Samples.Load(rate)
	if err != nil {
		log.Fatal(err)
	}

	src := clock.Wall()
	pool := synth.NewPool(src, synth.Options{
		Rate:         rate,
		FilterCutoff: cfg.Filter,
		Samples:      samples,
		Seed:         time.Now().UnixNano(),
	})

	opts, err := cfg.Options()
	if err != nil {
		log.Fatal(err)
	}
	opts.Source = src
	for _, p := range opts.Presets {
		if missing := p.Unresolved(chords.Default); len(missing) > 0 {
			logger.Ctx("main").Vol(util.Loud).Log("preset", p.Name, "has chords that will be skipped:", missing)
		}
	}
	seq, err := lofi.New(pool, opts)
	if err != nil {
		log.Fatal(err)
	}

	format := pool.Format()
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(cfg.Audio.Buffer)); err != nil {
		log.Fatal(err)
	}
	speaker.Play(pool)
	logger.Ctx("main").Vol(util.Normal).Log("playing at", format.SampleRate, "Hz with", cfg.Audio.Buffer, "buffer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if a.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Duration)
		defer cancel()
	}

	if a.TUI {
		runTUI(ctx, seq)
	} else {
		runHeadless(ctx, seq)
	}

	seq.Stop()
	speaker.Clear()
}

func runHeadless(ctx context.Context, seq *lofi.Sequencer) {
	logger := logger.Ctx("runHeadless").Vol(util.Normal)
	states, cancel := seq.Subscribe()
	defer cancel()

	seq.Start()
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-states:
			if s.Step == 0 {
				logger.Log("slot", s.Slot, seq.Progression()[s.Slot])
			}
		}
	}
}

func runTUI(ctx context.Context, seq *lofi.Sequencer) {
	p := tea.NewProgram(tui.NewModel(seq, chords.Default), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
