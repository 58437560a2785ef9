package chords

import (
	"strings"
	"testing"

	"tjweldon/lofi/src/synth"
)

func TestDefaultLibraryIsPlayable(t *testing.T) {
	for name, pitches := range Default {
		if len(pitches) < 3 {
			t.Errorf("%s has only %d notes", name, len(pitches))
		}
		for _, p := range pitches {
			if _, err := synth.ParsePitch(p); err != nil {
				t.Errorf("%s: %v", name, err)
			}
		}
	}
}

func TestResolve(t *testing.T) {
	got := Default.Resolve("Dm7")
	want := []string{"D4", "F4", "A4", "C5"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("Dm7 = %v", got)
	}

	got[0] = "X"
	if Default["Dm7"][0] != "D4" {
		t.Error("Resolve handed out the library's own slice")
	}

	if got := Default.Resolve("Cadd13#11"); got != nil {
		t.Errorf("unknown chord resolved to %v", got)
	}
}

func TestNext(t *testing.T) {
	lib := Library{"A": {"A4"}, "B": {"B4"}, "C": {"C4"}}
	tests := map[string]string{"A": "B", "B": "C", "C": "A", "nope": "A"}
	for in, want := range tests {
		if got := lib.Next(in); got != want {
			t.Errorf("Next(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultPresets(t *testing.T) {
	presets := DefaultPresets()
	want := []string{"Classic Lo-Fi", "Jazzy Nights", "Rainy Day", "Sunset Vibes", "Melancholy", "Late Night"}
	if strings.Join(presets.Names(), ",") != strings.Join(want, ",") {
		t.Fatalf("presets %v", presets.Names())
	}

	classic, ok := presets.Find("Classic Lo-Fi")
	if !ok || classic.Slots != [4]string{"Dm7", "G7", "Cmaj7", "Am7"} {
		t.Errorf("Classic Lo-Fi = %v", classic)
	}
	for _, p := range presets {
		if missing := p.Unresolved(Default); len(missing) > 0 {
			t.Errorf("%s uses unknown chords %v", p.Name, missing)
		}
	}
}

func TestLoadPresets(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    int
		wantErr bool
	}{
		{
			name: "valid",
			yaml: "- name: Mine\n  slots: [Am7, Am7, Dm7, G7]\n- name: Other\n  slots: [Cm7, Fm7, Bb7, Ebmaj7]\n",
			want: 2,
		},
		{name: "empty", yaml: ""},
		{name: "three slots", yaml: "- name: Short\n  slots: [Am7, Dm7, G7]\n", wantErr: true},
		{name: "no name", yaml: "- slots: [Am7, Am7, Dm7, G7]\n", wantErr: true},
		{name: "unknown field", yaml: "- name: X\n  slots: [Am7, Am7, Dm7, G7]\n  tempo: 80\n", wantErr: true},
		{name: "not yaml", yaml: "- [", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadPresets(strings.NewReader(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("got %d presets", len(got))
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Presets{
		{Name: "A", Slots: [4]string{"Am7", "Am7", "Am7", "Am7"}},
		{Name: "B", Slots: [4]string{"G7", "G7", "G7", "G7"}},
	}
	merged := base.Merge(Presets{
		{Name: "A", Slots: [4]string{"Dm7", "Dm7", "Dm7", "Dm7"}},
		{Name: "C", Slots: [4]string{"Cm7", "Cm7", "Cm7", "Cm7"}},
	})

	if strings.Join(merged.Names(), "") != "ABC" {
		t.Fatalf("merged %v", merged.Names())
	}
	if merged[0].Slots[0] != "Dm7" {
		t.Errorf("A was not replaced: %v", merged[0])
	}
	if base[0].Slots[0] != "Am7" {
		t.Errorf("Merge modified its receiver")
	}
}
