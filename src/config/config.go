// Package config loads the beat maker's startup settings from YAML
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"tjweldon/lofi/src/chords"
	"tjweldon/lofi/src/clock"
	"tjweldon/lofi/src/examples"
	"tjweldon/lofi/src/lofi"
	"tjweldon/lofi/src/sequencer"
	"tjweldon/lofi/src/synth"
	"tjweldon/lofi/src/util"
)

// Volumes are the starting track levels in dB
type Volumes struct {
	Drums  float64 `yaml:"drums"`
	Chords float64 `yaml:"chords"`
	Vinyl  float64 `yaml:"vinyl"`
}

// Set changes the level of one track
func (v *Volumes) Set(t lofi.Track, db float64) {
	switch t {
	case lofi.Drums:
		v.Drums = db
	case lofi.Chords:
		v.Chords = db
	case lofi.Vinyl:
		v.Vinyl = db
	}
}

// Audio configures the output device and scheduling
type Audio struct {
	SampleRate int           `yaml:"sample_rate"`
	Buffer     time.Duration `yaml:"buffer"`
	Lookahead  time.Duration `yaml:"lookahead"`
}

// Samples are optional wav files that replace the synthesised drums
type Samples struct {
	Kick  string `yaml:"kick,omitempty"`
	Snare string `yaml:"snare,omitempty"`
	HiHat string `yaml:"hihat,omitempty"`
}

// Pattern picks a stock drum pattern by name. Any voice given here as a 16
// character step string replaces that voice of the stock pattern.
type Pattern struct {
	Name  string `yaml:"name"`
	Kick  string `yaml:"kick,omitempty"`
	Snare string `yaml:"snare,omitempty"`
	HiHat string `yaml:"hihat,omitempty"`
}

type Log struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level"`
}

// Config is everything the beat maker starts up with
type Config struct {
	Tempo       int     `yaml:"tempo"`
	Swing       float64 `yaml:"swing"`
	Filter      float64 `yaml:"filter"`
	Volumes     Volumes `yaml:"volumes"`
	Preset      string  `yaml:"preset"`
	PresetsFile string  `yaml:"presets_file,omitempty"`
	Pattern     Pattern `yaml:"pattern"`
	Audio       Audio   `yaml:"audio"`
	Samples     Samples `yaml:"samples"`
	Log         Log     `yaml:"log"`
}

// Default returns the settings the beat maker ships with
func Default() *Config {
	return &Config{
		Tempo:   75,
		Swing:   0.5,
		Filter:  800,
		Volumes: Volumes{Drums: -6, Chords: -12, Vinyl: -20},
		Preset:  "Classic Lo-Fi",
		Pattern: Pattern{Name: examples.DefaultDrums},
		Audio: Audio{
			SampleRate: 44100,
			Buffer:     50 * time.Millisecond,
			Lookahead:  100 * time.Millisecond,
		},
		Log: Log{Level: util.Loud.String()},
	}
}

// Load reads the config at path over the defaults. A missing file is not an
// error: the defaults are returned as they are.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "in config %s", path)
	}
	return cfg, nil
}

// Validate checks every value is in the range the sequencer accepts
func (c *Config) Validate() error {
	check := func(what string, v float64, r lofi.Range) error {
		if !r.Contains(v) {
			return errors.Wrapf(lofi.ErrInvalidParameter, "%s %v outside [%v, %v]", what, v, r.Min, r.Max)
		}
		return nil
	}
	if err := check("tempo", float64(c.Tempo), lofi.TempoRange); err != nil {
		return err
	}
	if err := check("swing", c.Swing, lofi.SwingRange); err != nil {
		return err
	}
	if err := check("filter", c.Filter, lofi.FilterRange); err != nil {
		return err
	}
	for t, db := range c.volumes() {
		if err := check(t.String()+" volume", db, t.Range()); err != nil {
			return err
		}
	}
	if _, err := c.Pattern.Steps(); err != nil {
		return err
	}
	if c.Audio.SampleRate <= 0 {
		return errors.Errorf("sample rate %d", c.Audio.SampleRate)
	}
	if c.Audio.Buffer <= 0 {
		return errors.Errorf("buffer %v", c.Audio.Buffer)
	}
	if c.Audio.Lookahead < 0 || c.Audio.Lookahead > lofi.MaxLookahead {
		return errors.Wrapf(lofi.ErrInvalidParameter, "lookahead %v outside [0, %v]", c.Audio.Lookahead, lofi.MaxLookahead)
	}
	if _, err := util.ParseLogVolume(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func (c *Config) volumes() map[lofi.Track]float64 {
	return map[lofi.Track]float64{
		lofi.Drums:  c.Volumes.Drums,
		lofi.Chords: c.Volumes.Chords,
		lofi.Vinyl:  c.Volumes.Vinyl,
	}
}

// Steps resolves the stock pattern, applies the overrides and parses it
func (p Pattern) Steps() (sequencer.StepPattern, error) {
	stock, err := examples.FindDrums(p.Name)
	if err != nil {
		return sequencer.StepPattern{}, err
	}
	return stock.Override(examples.DrumPattern{Kick: p.Kick, Snare: p.Snare, HiHat: p.HiHat}).Steps()
}

// Presets is the built in preset list with the presets file, if any, merged
// over it
func (c *Config) Presets() (chords.Presets, error) {
	presets := chords.DefaultPresets()
	if c.PresetsFile == "" {
		return presets, nil
	}
	extra, err := chords.LoadPresetsFile(c.PresetsFile)
	if err != nil {
		return nil, err
	}
	return presets.Merge(extra), nil
}

// Options converts the config into the sequencer's starting values. The
// caller fills in the clock source.
func (c *Config) Options() (lofi.Options, error) {
	pattern, err := c.Pattern.Steps()
	if err != nil {
		return lofi.Options{}, err
	}
	presets, err := c.Presets()
	if err != nil {
		return lofi.Options{}, err
	}
	return lofi.Options{
		Tempo:     clock.Tempo{BPM: c.Tempo, Swing: c.Swing},
		Filter:    c.Filter,
		Volumes:   c.volumes(),
		Pattern:   pattern,
		Chords:    chords.Default,
		Presets:   presets,
		Preset:    c.Preset,
		Lookahead: c.Audio.Lookahead,
	}, nil
}

// Load decodes every configured sample at the engine's rate, keyed by the
// voice it replaces
func (s Samples) Load(rate beep.SampleRate) (map[synth.VoiceID]*beep.Buffer, error) {
	bufs := make(map[synth.VoiceID]*beep.Buffer)
	for voice, path := range map[synth.VoiceID]string{
		synth.Kick:  s.Kick,
		synth.Snare: s.Snare,
		synth.HiHat: s.HiHat,
	} {
		if path == "" {
			continue
		}
		buf, err := util.BufferSample(path, rate)
		if err != nil {
			return nil, errors.Wrapf(err, "%s sample", voice)
		}
		bufs[voice] = buf
	}
	return bufs, nil
}

// LogVolume is the configured log threshold
func (c *Config) LogVolume() util.LogVolume {
	lv, err := util.ParseLogVolume(c.Log.Level)
	if err != nil {
		return util.Loud
	}
	return lv
}
