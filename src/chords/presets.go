package chords

import (
	_ "embed"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Preset is a named four chord progression
type Preset struct {
	Name  string    `yaml:"name"`
	Slots [4]string `yaml:"slots"`
}

// Presets is an ordered list of presets. Order is kept so menus list them
// the same way every time.
type Presets []Preset

//go:embed presets.yml
var defaultPresetsYaml []byte

// DefaultPresets returns the built in progressions
func DefaultPresets() Presets {
	var presets Presets
	if err := yaml.Unmarshal(defaultPresetsYaml, &presets); err != nil {
		panic(errors.Wrap(err, "unmarshalling built in presets"))
	}
	return presets
}

// LoadPresets decodes a YAML list of presets. Every preset must have a name
// and exactly four slots.
func LoadPresets(r io.Reader) (Presets, error) {
	var raw []struct {
		Name  string   `yaml:"name"`
		Slots []string `yaml:"slots"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding presets")
	}

	presets := make(Presets, 0, len(raw))
	for i, p := range raw {
		if p.Name == "" {
			return nil, errors.Errorf("preset %d has no name", i)
		}
		if len(p.Slots) != 4 {
			return nil, errors.Errorf("preset %q: want 4 slots, got %d", p.Name, len(p.Slots))
		}
		presets = append(presets, Preset{Name: p.Name, Slots: [4]string(p.Slots)})
	}
	return presets, nil
}

// LoadPresetsFile reads presets from the YAML file at path
func LoadPresetsFile(path string) (Presets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening presets %s", path)
	}
	defer f.Close()

	presets, err := LoadPresets(f)
	return presets, errors.Wrapf(err, "in %s", path)
}

// Find looks a preset up by name
func (ps Presets) Find(name string) (Preset, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Names lists the presets in order
func (ps Presets) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

// Merge returns ps with others added. A preset in others replaces the one in
// ps with the same name, keeping its position.
func (ps Presets) Merge(others Presets) Presets {
	merged := append(Presets(nil), ps...)
	for _, o := range others {
		replaced := false
		for i := range merged {
			if merged[i].Name == o.Name {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return merged
}

// Unresolved lists the chords of p that lib can't voice
func (p Preset) Unresolved(lib Library) []string {
	var missing []string
	for _, chord := range p.Slots {
		if _, ok := lib[chord]; !ok {
			missing = append(missing, chord)
		}
	}
	return missing
}
