package synth

import (
	"math"
	"testing"
	"time"

	"github.com/faiface/beep"
)

func TestParsePitch(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"A4", 440},
		{"A3", 220},
		{"C4", 261.63},
		{"Bb3", 233.08},
		{"A#3", 233.08},
		{"F#5", 739.99},
		{"E2", 82.41},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePitch(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("got %.2fHz, want %.2fHz", got, tt.want)
			}
		})
	}
}

func TestParsePitchRejects(t *testing.T) {
	for _, name := range []string{"", "C", "H4", "Cx4", "Cb", "c4"} {
		if _, err := ParsePitch(name); err == nil {
			t.Errorf("%q parsed", name)
		}
	}
}

func TestParsePitchesSkipsBadNames(t *testing.T) {
	got := ParsePitches([]string{"C4", "??", "G4"})
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestEnvelopeLength(t *testing.T) {
	env := Envelope{Attack: 10 * time.Millisecond, Decay: 10 * time.Millisecond, Sustain: 0.5, Release: 50 * time.Millisecond}
	ones := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{1, 1}
		}
		return len(samples), true
	})

	out := render(env.Apply(ones, rate, 100*time.Millisecond), rate.N(time.Second))
	if len(out) != rate.N(150*time.Millisecond) {
		t.Fatalf("note lasted %d samples, want %d", len(out), rate.N(150*time.Millisecond))
	}
	if out[0][0] != 0 {
		t.Errorf("attack starts at %v", out[0][0])
	}
	if peak := out[rate.N(10*time.Millisecond)][0]; math.Abs(peak-1) > 1e-9 {
		t.Errorf("peak = %v", peak)
	}
	if held := out[rate.N(50*time.Millisecond)][0]; math.Abs(held-0.5) > 1e-9 {
		t.Errorf("sustain = %v", held)
	}
	if last := out[len(out)-1][0]; last > 0.5/float64(rate.N(50*time.Millisecond))+1e-9 {
		t.Errorf("release ends at %v", last)
	}
}

func TestInstrumentsEndOnTheirOwn(t *testing.T) {
	tests := []struct {
		name    string
		inst    Instrument
		pitches []float64
	}{
		{"kick", NewKickDrum(rate), nil},
		{"snare", NewSnareDrum(rate, 1), nil},
		{"hihat", NewHiHat(rate, 2), nil},
		{"chords", NewPolySynth(rate), []float64{220, 277.18, 329.63}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit := rate.N(3 * time.Second)
			out := render(tt.inst.Note(tt.pitches, 100*time.Millisecond), limit)
			if len(out) == 0 || len(out) == limit {
				t.Fatalf("note rendered %d samples", len(out))
			}
			if energy(out) == 0 {
				t.Error("note is silent")
			}
		})
	}
}
